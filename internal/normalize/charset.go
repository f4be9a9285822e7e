package normalize

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

var charsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([A-Za-z0-9._-]+)`)

// decodeCharset converts a document declared in a non-UTF8 charset to UTF-8.
// The charset is sniffed from meta tags; unknown or missing declarations
// leave the body untouched.
func decodeCharset(body string) string {
	name := sniffCharset(body)
	switch name {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		return body
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return body
	}

	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader([]byte(body))))
	if err != nil {
		return body
	}
	return string(decoded)
}

// sniffCharset reads the declared charset from <meta charset=...> or the
// http-equiv content-type form.
func sniffCharset(body string) string {
	// Charset declarations live near the top of the document.
	head := body
	if len(head) > 4096 {
		head = head[:4096]
	}
	m := charsetRe.FindStringSubmatch(head)
	if len(m) < 2 {
		return ""
	}
	return strings.ToLower(m[1])
}
