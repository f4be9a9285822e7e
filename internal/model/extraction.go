package model

// EntityLabel classifies a recognized named entity.
type EntityLabel string

const (
	EntityOrg      EntityLabel = "ORG"
	EntityPerson   EntityLabel = "PERSON"
	EntityLocation EntityLabel = "LOCATION"
	EntityMoney    EntityLabel = "MONEY"
	EntityProduct  EntityLabel = "PRODUCT"
)

// AllEntityLabels returns all labels the entity layer may emit.
func AllEntityLabels() []EntityLabel {
	return []EntityLabel{
		EntityOrg,
		EntityPerson,
		EntityLocation,
		EntityMoney,
		EntityProduct,
	}
}

// Entity is one named entity recognized in normalized text, with its
// case-insensitive occurrence count.
type Entity struct {
	Text      string      `json:"text"`
	Label     EntityLabel `json:"label"`
	Frequency int         `json:"frequency"`
}

// PatternFields maps a profile field key to the raw matches the pattern
// layer proposed for it. Matches are deduplicated but otherwise raw.
type PatternFields map[string][]string

// Add appends a match to a field, skipping empty strings.
func (pf PatternFields) Add(fieldKey, match string) {
	if match == "" {
		return
	}
	pf[fieldKey] = append(pf[fieldKey], match)
}

// Count returns the total number of matches across all fields.
func (pf PatternFields) Count() int {
	n := 0
	for _, matches := range pf {
		n += len(matches)
	}
	return n
}

// Candidate is the structured JSON the AI layer proposes for one source.
// All fields are optional; absent fields are simply not populated.
type Candidate struct {
	CompanyName      string   `json:"company_name,omitempty"`
	Overview         string   `json:"overview,omitempty"`
	Website          string   `json:"website,omitempty"`
	LogoURL          string   `json:"logo_url,omitempty"`
	Emails           []string `json:"emails,omitempty"`
	Phones           []string `json:"phones,omitempty"`
	Addresses        []string `json:"addresses,omitempty"`
	SocialLinks      []string `json:"social_links,omitempty"`
	Locations        []string `json:"locations,omitempty"`
	KeyPeople        []string `json:"key_people,omitempty"`
	ProductsServices []string `json:"products_services,omitempty"`
	TechnologyStack  []string `json:"technology_stack,omitempty"`
	Values           []string `json:"values,omitempty"`
	Achievements     []string `json:"achievements,omitempty"`
	Mission          string   `json:"mission,omitempty"`
	FoundedYear      string   `json:"founded_year,omitempty"`
	EmployeeCount    string   `json:"employee_count,omitempty"`
	Industry         string   `json:"industry,omitempty"`
}

// FieldValue returns the candidate's value for a field key as a scalar
// string and list slice; exactly one of the two is meaningful per field.
func (c *Candidate) FieldValue(fieldKey string) (string, []string) {
	if c == nil {
		return "", nil
	}
	switch fieldKey {
	case FieldCompanyName:
		return c.CompanyName, nil
	case FieldOverview:
		return c.Overview, nil
	case FieldWebsite:
		return c.Website, nil
	case FieldLogoURL:
		return c.LogoURL, nil
	case FieldMission:
		return c.Mission, nil
	case FieldFoundedYear:
		return c.FoundedYear, nil
	case FieldEmployeeCount:
		return c.EmployeeCount, nil
	case FieldIndustry:
		return c.Industry, nil
	case FieldEmails:
		return "", c.Emails
	case FieldPhones:
		return "", c.Phones
	case FieldAddresses:
		return "", c.Addresses
	case FieldSocialLinks:
		return "", c.SocialLinks
	case FieldLocations:
		return "", c.Locations
	case FieldKeyPeople:
		return "", c.KeyPeople
	case FieldProductsServices:
		return "", c.ProductsServices
	case FieldTechnologyStack:
		return "", c.TechnologyStack
	case FieldValues:
		return "", c.Values
	case FieldAchievements:
		return "", c.Achievements
	}
	return "", nil
}

// Empty reports whether the candidate carries no values at all.
func (c *Candidate) Empty() bool {
	if c == nil {
		return true
	}
	for _, f := range AllFields() {
		scalar, list := c.FieldValue(f.Key)
		if scalar != "" || len(list) > 0 {
			return false
		}
	}
	return true
}

// ExtractionResult is the per-source output of all extraction layers.
// A result with every layer empty is still valid (zero-content outcome).
type ExtractionResult struct {
	SourceID      string        `json:"source_id"`
	SourceOrder   int           `json:"source_order"`
	ContentLength int           `json:"content_length"` // normalized text length, drives AI tie-breaks
	Fetch         FetchMetadata `json:"fetch"`
	Patterns      PatternFields `json:"patterns,omitempty"`
	Entities      []Entity      `json:"entities,omitempty"`
	AICandidate   *Candidate    `json:"ai_candidate,omitempty"`
	AIFromCache   bool          `json:"ai_from_cache,omitempty"`
}

// DistinctSignals counts distinct pattern matches plus distinct entities,
// feeding the density term of the quality score.
func (er *ExtractionResult) DistinctSignals() int {
	return er.Patterns.Count() + len(er.Entities)
}
