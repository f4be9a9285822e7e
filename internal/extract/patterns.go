// Package extract implements the two cheap extraction layers: a
// deterministic regex pattern scan and a pluggable named-entity pass.
// Neither layer is authoritative; both only propose candidates for the
// reconciler to weigh.
package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/profile-cli/internal/model"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Placeholder domains that show up in templates and documentation.
	excludedEmailDomains = []string{"example.com", "domain.com", "test.com"}

	phoneRes = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,4}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`), // international
		regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),                       // US format
		regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`),                             // simple US
		regexp.MustCompile(`\+\d{1,3}\s\d{1,3}\s\d{3}\s\d{4}`),                          // spaced international
		regexp.MustCompile(`\d{4}[-.\s]?\d{3}[-.\s]?\d{3}`),                             // alternative grouping
	}

	addressRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\d+\s+[\w\s]+?(?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Boulevard|Blvd)\b`),
		regexp.MustCompile(`(?i)P\.?O\.?\s*Box\s*\d+`),
		regexp.MustCompile(`(?i)\d+\s+[\w\s]+,\s*[\w\s]+,\s*[A-Z]{2}\s*\d{5}`),
	}

	socialRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bhttps?://(?:www\.)?linkedin\.com/[\w.\-/%]+`),
		regexp.MustCompile(`(?i)\bhttps?://(?:www\.)?(?:twitter|x)\.com/[\w.\-/%]+`),
		regexp.MustCompile(`(?i)\bhttps?://(?:www\.)?facebook\.com/[\w.\-/%]+`),
		regexp.MustCompile(`(?i)\bhttps?://(?:www\.)?instagram\.com/[\w.\-/%]+`),
		regexp.MustCompile(`(?i)\bhttps?://(?:www\.)?youtube\.com/[\w.\-/%@]+`),
		regexp.MustCompile(`(?i)\bhttps?://(?:www\.)?github\.com/[\w.\-/%]+`),
	}

	peopleRes = []*regexp.Regexp{
		regexp.MustCompile(`(CEO|Chief Executive Officer|President|Founder|Co-Founder)\s*:?\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
		regexp.MustCompile(`(CTO|Chief Technology Officer|Tech Lead)\s*:?\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
		regexp.MustCompile(`(CFO|Chief Financial Officer)\s*:?\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`),
		regexp.MustCompile(`(Director|Manager|VP)\s+([A-Z][a-z]+\s+[A-Z][a-z]+)`),
	}

	foundedRe = regexp.MustCompile(`(?i)(?:founded|established|since)\s+in\s+(\d{4})`)

	employeeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*)[+\-]?\s*(?:employees|staff|people|team)`),
		regexp.MustCompile(`(?i)(?:over|more than)\s+(\d{1,3}(?:,\d{3})*)\s*(?:employees|staff|people)`),
		regexp.MustCompile(`(?i)employee count:\s*(\d{1,3}(?:,\d{3})*)`),
		regexp.MustCompile(`(?i)(\d+)\s*employee(?:s)?`),
	}
)

// technologyKeywords is a fixed vocabulary; matches are reported by their
// canonical name, not the matched text.
var technologyKeywords = []string{
	"python", "javascript", "java", "c#", "php", "ruby", "go", "typescript",
	"react", "angular", "vue", "node.js", "express", "django", "flask",
	"mysql", "postgresql", "mongodb", "redis", "aws", "azure", "docker",
	"kubernetes", "tensorflow", "pytorch", "machine learning", "ai",
	"blockchain", "microservices", "rest api", "graphql",
}

var technologyRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(technologyKeywords))
	for _, kw := range technologyKeywords {
		res = append(res, keywordPattern(kw))
	}
	return res
}()

// keywordPattern builds a case-insensitive whole-token matcher. Boundaries
// are only anchored against word characters, so keywords like "c#" work.
func keywordPattern(kw string) *regexp.Regexp {
	pattern := regexp.QuoteMeta(kw)
	if isWordByte(kw[0]) {
		pattern = `\b` + pattern
	}
	if isWordByte(kw[len(kw)-1]) {
		pattern += `\b`
	}
	return regexp.MustCompile(`(?i)` + pattern)
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z') ||
		('0' <= b && b <= '9')
}

// Patterns runs the deterministic regex layer over normalized content.
// Matches are trimmed and deduplicated case-insensitively per field.
func Patterns(nc *model.NormalizedContent) model.PatternFields {
	pf := make(model.PatternFields)
	if nc == nil {
		return pf
	}

	seen := make(map[string]bool)
	text := nc.Text

	extractEmails(text, pf, seen)
	extractPhones(text, pf, seen)
	extractAddresses(text, pf, seen)
	extractSocialLinks(nc, pf, seen)
	extractPeople(text, pf, seen)
	extractFoundedYear(text, pf, seen)
	extractEmployeeCount(text, pf, seen)
	extractTechnologies(text, pf, seen)
	mineHints(nc, pf, seen)

	return pf
}

func extractEmails(text string, pf model.PatternFields, seen map[string]bool) {
	for _, m := range emailRe.FindAllString(text, -1) {
		if excludedEmail(m) {
			continue
		}
		addUnique(pf, seen, model.FieldEmails, m)
	}
}

func excludedEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, d := range excludedEmailDomains {
		if strings.HasSuffix(lower, "@"+d) {
			return true
		}
	}
	return false
}

// extractPhones keeps only matches whose digit count is a plausible phone
// length (7 to 15 after stripping everything else).
func extractPhones(text string, pf model.PatternFields, seen map[string]bool) {
	for _, re := range phoneRes {
		for _, m := range re.FindAllString(text, -1) {
			digits := countDigits(m)
			if digits < 7 || digits > 15 {
				continue
			}
			addUnique(pf, seen, model.FieldPhones, m)
		}
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func extractAddresses(text string, pf model.PatternFields, seen map[string]bool) {
	for _, re := range addressRes {
		for _, m := range re.FindAllString(text, -1) {
			addUnique(pf, seen, model.FieldAddresses, m)
		}
	}
}

// extractSocialLinks merges hint-detected profile URLs with ones found in
// the text itself.
func extractSocialLinks(nc *model.NormalizedContent, pf model.PatternFields, seen map[string]bool) {
	for _, link := range nc.SocialLinks {
		addUnique(pf, seen, model.FieldSocialLinks, link)
	}
	for _, re := range socialRes {
		for _, m := range re.FindAllString(nc.Text, -1) {
			addUnique(pf, seen, model.FieldSocialLinks, m)
		}
	}
}

// extractPeople finds job-title/proper-noun pairs like "CEO: Jane Doe".
func extractPeople(text string, pf model.PatternFields, seen map[string]bool) {
	for _, re := range peopleRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m) < 3 {
				continue
			}
			title := strings.TrimSpace(m[1])
			name := strings.TrimSpace(m[2])
			addUnique(pf, seen, model.FieldKeyPeople, name+" ("+title+")")
		}
	}
}

func extractFoundedYear(text string, pf model.PatternFields, seen map[string]bool) {
	for _, m := range foundedRe.FindAllStringSubmatch(text, -1) {
		addUnique(pf, seen, model.FieldFoundedYear, m[1])
	}
}

func extractEmployeeCount(text string, pf model.PatternFields, seen map[string]bool) {
	for _, re := range employeeRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			count := strings.ReplaceAll(m[1], ",", "")
			addUnique(pf, seen, model.FieldEmployeeCount, count)
		}
	}
}

func extractTechnologies(text string, pf model.PatternFields, seen map[string]bool) {
	for i, re := range technologyRes {
		if re.MatchString(text) {
			addUnique(pf, seen, model.FieldTechnologyStack, technologyKeywords[i])
		}
	}
}

// addUnique trims value and appends it under key unless an equal value
// (case-insensitive) was already recorded for that field.
func addUnique(pf model.PatternFields, seen map[string]bool, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	k := key + "|" + strings.ToLower(value)
	if seen[k] {
		return
	}
	seen[k] = true
	pf.Add(key, value)
}
