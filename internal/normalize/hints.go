package normalize

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/profile-cli/internal/model"
)

const maxNavLinkLen = 50

var (
	titleRe   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaRe    = regexp.MustCompile(`(?is)<meta\b[^>]*>`)
	jsonLDRe  = regexp.MustCompile(`(?is)<script[^>]*application/ld\+json[^>]*>(.*?)</script>`)
	navRe     = regexp.MustCompile(`(?is)<nav\b[^>]*>(.*?)</nav>`)
	navListRe = regexp.MustCompile(`(?is)<ul[^>]+class=["'][^"']*(?:nav|menu)[^"']*["'][^>]*>(.*?)</ul>`)
	anchorRe  = regexp.MustCompile(`(?is)<a\b[^>]*>(.*?)</a>`)
	imgRe     = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	hrefRe    = regexp.MustCompile(`(?i)\bhref\s*=\s*["']([^"']+)["']`)

	nameAttrRe     = attrPattern("name")
	propertyAttrRe = attrPattern("property")
	contentAttrRe  = attrPattern("content")
	srcAttrRe      = attrPattern("src")

	headingRes = func() map[int]*regexp.Regexp {
		res := make(map[int]*regexp.Regexp, 6)
		for level := 1; level <= 6; level++ {
			l := strconv.Itoa(level)
			res[level] = regexp.MustCompile(`(?is)<h` + l + `[^>]*>(.*?)</h` + l + `>`)
		}
		return res
	}()
)

func attrPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + name + `\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s>"']+))`)
}

// socialHosts map platforms to host patterns, checked in a fixed order so
// hint output is deterministic.
var socialHosts = []struct {
	platform string
	re       *regexp.Regexp
}{
	{"linkedin", regexp.MustCompile(`(?i)linkedin\.com/[\w.\-/]+`)},
	{"twitter", regexp.MustCompile(`(?i)(?:twitter|x)\.com/[\w.\-/]+`)},
	{"facebook", regexp.MustCompile(`(?i)facebook\.com/[\w.\-/]+`)},
	{"instagram", regexp.MustCompile(`(?i)instagram\.com/[\w.\-/]+`)},
	{"youtube", regexp.MustCompile(`(?i)youtube\.com/[\w.\-/]+`)},
	{"github", regexp.MustCompile(`(?i)github\.com/[\w.\-/]+`)},
}

// extractHints mines structural hints from the full document, before noise
// stripping removes the regions some of them live in.
func extractHints(body, sourceURL string) *model.NormalizedContent {
	nc := &model.NormalizedContent{}

	if m := titleRe.FindStringSubmatch(body); len(m) > 1 {
		nc.Title = innerText(m[1])
	}

	extractMeta(body, nc)
	nc.JSONLD = extractJSONLD(body)
	nc.Headers = extractHeaders(body)
	nc.NavLinks = extractNavLinks(body)
	nc.LogoURLs = extractLogoURLs(body, sourceURL)
	nc.SocialLinks = extractSocialLinks(body)

	return nc
}

// extractMeta pulls the description meta tag and all og:* properties.
func extractMeta(body string, nc *model.NormalizedContent) {
	for _, tag := range metaRe.FindAllString(body, -1) {
		content := attrValue(tag, contentAttrRe)
		if content == "" {
			continue
		}
		if strings.EqualFold(attrValue(tag, nameAttrRe), "description") && nc.MetaDescription == "" {
			nc.MetaDescription = content
			continue
		}
		prop := strings.ToLower(attrValue(tag, propertyAttrRe))
		if strings.HasPrefix(prop, "og:") {
			if nc.OpenGraph == nil {
				nc.OpenGraph = make(map[string]string)
			}
			if _, seen := nc.OpenGraph[prop]; !seen {
				nc.OpenGraph[prop] = content
			}
		}
	}
}

// extractJSONLD parses ld+json blocks, skipping malformed ones. Top-level
// arrays are flattened into their object elements.
func extractJSONLD(body string) []map[string]any {
	var blocks []map[string]any
	for _, m := range jsonLDRe.FindAllStringSubmatch(body, -1) {
		var parsed any
		if err := json.Unmarshal([]byte(m[1]), &parsed); err != nil {
			continue
		}
		switch v := parsed.(type) {
		case map[string]any:
			blocks = append(blocks, v)
		case []any:
			for _, item := range v {
				if obj, ok := item.(map[string]any); ok {
					blocks = append(blocks, obj)
				}
			}
		}
	}
	return blocks
}

func extractHeaders(body string) map[int][]string {
	var headers map[int][]string
	for level := 1; level <= 6; level++ {
		for _, m := range headingRes[level].FindAllStringSubmatch(body, -1) {
			text := innerText(m[1])
			if text == "" {
				continue
			}
			if headers == nil {
				headers = make(map[int][]string)
			}
			headers[level] = append(headers[level], text)
		}
	}
	return headers
}

// extractNavLinks collects short anchor texts from <nav> blocks and from
// lists whose class names suggest navigation.
func extractNavLinks(body string) []string {
	var blocks []string
	for _, m := range navRe.FindAllStringSubmatch(body, -1) {
		blocks = append(blocks, m[1])
	}
	for _, m := range navListRe.FindAllStringSubmatch(body, -1) {
		blocks = append(blocks, m[1])
	}

	var links []string
	seen := make(map[string]bool)
	for _, block := range blocks {
		for _, a := range anchorRe.FindAllStringSubmatch(block, -1) {
			text := innerText(a[1])
			if text == "" || len(text) >= maxNavLinkLen {
				continue
			}
			key := strings.ToLower(text)
			if seen[key] {
				continue
			}
			seen[key] = true
			links = append(links, text)
		}
	}
	return links
}

// extractLogoURLs finds images whose markup mentions "logo" or "brand" and
// resolves their src to absolute URLs.
func extractLogoURLs(body, sourceURL string) []string {
	var base *url.URL
	if u, err := url.Parse(sourceURL); err == nil && u.Host != "" {
		base = u
	}

	var logos []string
	seen := make(map[string]bool)
	for _, tag := range imgRe.FindAllString(body, -1) {
		lower := strings.ToLower(tag)
		if !strings.Contains(lower, "logo") && !strings.Contains(lower, "brand") {
			continue
		}
		src := attrValue(tag, srcAttrRe)
		if src == "" {
			continue
		}
		resolved := resolveURL(base, src)
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true
		logos = append(logos, resolved)
	}
	return logos
}

// extractSocialLinks returns the first matching profile URL per platform.
func extractSocialLinks(body string) []string {
	var hrefs []string
	for _, m := range hrefRe.FindAllStringSubmatch(body, -1) {
		hrefs = append(hrefs, m[1])
	}

	var links []string
	for _, sh := range socialHosts {
		for _, href := range hrefs {
			if sh.re.MatchString(href) {
				links = append(links, href)
				break
			}
		}
	}
	return links
}

// resolveURL makes src absolute relative to base. Protocol-relative URLs
// default to https.
func resolveURL(base *url.URL, src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return src
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// attrValue extracts one attribute's value from a single tag's markup.
func attrValue(tag string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if group != "" {
			return strings.TrimSpace(group)
		}
	}
	return ""
}

// innerText strips nested tags and entities from captured markup.
func innerText(s string) string {
	s = stripTags(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
