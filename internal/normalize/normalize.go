// Package normalize turns raw fetched content into cleaned text plus the
// structural hints the extraction layers consume. Normalization is pure:
// malformed markup yields empty hints, never an error.
package normalize

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/sells-group/profile-cli/internal/model"
)

// Normalize cleans one source's raw content. HTML is charset-decoded, mined
// for structural hints, stripped of noise blocks, and converted to text.
// Non-HTML content passes through with whitespace collapse only.
func Normalize(raw *model.RawContent) *model.NormalizedContent {
	if raw == nil {
		return &model.NormalizedContent{}
	}

	if !raw.IsHTML {
		return &model.NormalizedContent{
			SourceID: raw.SourceID,
			Title:    strings.TrimSpace(raw.Title),
			Text:     collapseWhitespace(raw.Body),
		}
	}

	body := decodeCharset(raw.Body)

	nc := extractHints(body, raw.SourceID)
	nc.SourceID = raw.SourceID
	if nc.Title == "" {
		nc.Title = strings.TrimSpace(raw.Title)
	}
	nc.Text = htmlToText(body)
	return nc
}

// noiseTags are removed wholesale before text conversion.
var noiseTags = []string{"script", "style", "nav", "header", "footer", "aside", "noscript"}

var noiseRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(noiseTags))
	for _, tag := range noiseTags {
		res = append(res, regexp.MustCompile(`(?is)<`+tag+`[^>]*>.*?</`+tag+`>`))
	}
	return res
}()

// htmlToText strips noise blocks and converts the remainder to markdown
// text. If conversion fails, falls back to a plain tag strip.
func htmlToText(body string) string {
	for _, re := range noiseRes {
		body = re.ReplaceAllString(body, "")
	}

	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return collapseWhitespace(stripTags(body))
	}
	return collapseWhitespace(md)
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// stripTags removes remaining HTML tags and decodes common entities.
func stripTags(body string) string {
	body = tagRe.ReplaceAllString(body, " ")
	return entityReplacer.Replace(body)
}

var (
	spaceRe = regexp.MustCompile(`[ \t]+`)
	nlRe    = regexp.MustCompile(`\n{3,}`)
)

// collapseWhitespace squeezes runs of spaces and blank lines.
func collapseWhitespace(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	s = nlRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
