package model

// NormalizedContent is the cleaned text and structural hints extracted from
// one source's raw content. Owned exclusively by the source that produced it.
// Missing hints are empty values, never errors.
type NormalizedContent struct {
	SourceID        string            `json:"source_id"`
	Text            string            `json:"text"` // noise-stripped, whitespace-collapsed
	Title           string            `json:"title,omitempty"`
	MetaDescription string            `json:"meta_description,omitempty"`
	OpenGraph       map[string]string `json:"open_graph,omitempty"` // og:* property -> content
	JSONLD          []map[string]any  `json:"json_ld,omitempty"`    // parsed ld+json blocks, malformed skipped
	Headers         map[int][]string  `json:"headers,omitempty"`    // heading level 1..6 -> texts
	NavLinks        []string          `json:"nav_links,omitempty"`  // navigation anchor texts
	LogoURLs        []string          `json:"logo_urls,omitempty"`  // absolute candidate logo image URLs
	SocialLinks     []string          `json:"social_links,omitempty"`
}

// Empty reports whether normalization produced neither text nor hints.
func (nc *NormalizedContent) Empty() bool {
	return nc.Text == "" &&
		nc.Title == "" &&
		nc.MetaDescription == "" &&
		len(nc.OpenGraph) == 0 &&
		len(nc.JSONLD) == 0 &&
		len(nc.Headers) == 0 &&
		len(nc.NavLinks) == 0 &&
		len(nc.LogoURLs) == 0 &&
		len(nc.SocialLinks) == 0
}
