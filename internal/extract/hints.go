package extract

import (
	"strings"

	"github.com/sells-group/profile-cli/internal/model"
)

// mineHints turns structural hints (JSON-LD, meta tags, title, headings)
// into field candidates. Structured data is appended before the looser
// title and heading guesses so earlier proposals carry more confidence.
func mineHints(nc *model.NormalizedContent, pf model.PatternFields, seen map[string]bool) {
	mineJSONLD(nc, pf, seen)

	if name := companyNameFromTitle(nc.Title); name != "" {
		addUnique(pf, seen, model.FieldCompanyName, name)
	}
	if site := nc.OpenGraph["og:site_name"]; site != "" {
		addUnique(pf, seen, model.FieldCompanyName, site)
	}
	if hs := nc.Headers[1]; len(hs) > 0 && len(hs[0]) < 100 {
		addUnique(pf, seen, model.FieldCompanyName, hs[0])
	}
	for _, u := range nc.LogoURLs {
		addUnique(pf, seen, model.FieldLogoURL, u)
	}
}

// mineJSONLD pulls identity and contact properties out of schema.org
// Organization and LocalBusiness blocks.
func mineJSONLD(nc *model.NormalizedContent, pf model.PatternFields, seen map[string]bool) {
	for _, block := range nc.JSONLD {
		if !isOrganization(block["@type"]) {
			continue
		}
		addUnique(pf, seen, model.FieldCompanyName, jsonLDText(block["name"]))
		if email := jsonLDText(block["email"]); email != "" && !excludedEmail(email) {
			addUnique(pf, seen, model.FieldEmails, email)
		}
		addUnique(pf, seen, model.FieldPhones, jsonLDText(block["telephone"]))
		addUnique(pf, seen, model.FieldAddresses, formatAddress(block["address"]))
		for _, link := range jsonLDTexts(block["sameAs"]) {
			addUnique(pf, seen, model.FieldSocialLinks, link)
		}
	}
}

func isOrganization(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "Organization") || strings.EqualFold(t, "LocalBusiness")
	case []any:
		for _, item := range t {
			if isOrganization(item) {
				return true
			}
		}
	}
	return false
}

// jsonLDText coerces a JSON-LD property to a trimmed string. Objects fall
// back to their "name" property, which covers nested types like Country.
func jsonLDText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if s, ok := t["name"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func jsonLDTexts(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{strings.TrimSpace(t)}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

// formatAddress renders a schema.org PostalAddress as one line:
// "street, locality, region postal, country".
func formatAddress(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		regionPostal := strings.TrimSpace(jsonLDText(t["addressRegion"]) + " " + jsonLDText(t["postalCode"]))
		parts := nonEmpty(
			jsonLDText(t["streetAddress"]),
			jsonLDText(t["addressLocality"]),
			regionPostal,
			jsonLDText(t["addressCountry"]),
		)
		return strings.Join(parts, ", ")
	}
	return ""
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// companyNameFromTitle pulls the site name out of a "Page | Site" style
// title. The segment after the last separator is usually the site name;
// when it is empty the first segment is used instead. A bare hyphen is not
// treated as a separator so hyphenated names survive.
func companyNameFromTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range []string{"|", " - "} {
		if !strings.Contains(title, sep) {
			continue
		}
		parts := strings.Split(title, sep)
		if last := strings.TrimSpace(parts[len(parts)-1]); last != "" {
			return last
		}
		return strings.TrimSpace(parts[0])
	}
	return ""
}
