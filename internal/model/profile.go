package model

import "time"

// Layer identifies which extraction strategy contributed a value.
// Precedence during reconciliation is ai > pattern > entity.
type Layer string

const (
	LayerAI      Layer = "ai"
	LayerPattern Layer = "pattern"
	LayerEntity  Layer = "entity"
)

// ProvenanceEntry records one (source, layer, raw value) contribution.
type ProvenanceEntry struct {
	SourceID string `json:"source_id"`
	Layer    Layer  `json:"layer"`
	RawValue string `json:"raw_value"`
}

// FieldProvenance is the full contribution list for one populated field.
// Invariant: every non-null field in a draft has at least one entry.
type FieldProvenance struct {
	FieldKey string            `json:"field_key"`
	Entries  []ProvenanceEntry `json:"entries"`
}

// ProfileDraft is the merged, provenance-tagged output of one run.
// Created by the reconciler; the scorer attaches ConfidenceScore before
// the draft is returned. Never persisted by the pipeline itself.
type ProfileDraft struct {
	CompanyName      string   `json:"company_name,omitempty"`
	Overview         string   `json:"overview,omitempty"`
	Website          string   `json:"website,omitempty"`
	Mission          string   `json:"mission,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	FoundedYear      string   `json:"founded_year,omitempty"`
	EmployeeCount    string   `json:"employee_count,omitempty"`
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

	ConfidenceScore float64                    `json:"confidence_score"`
	Warnings        []string                   `json:"warnings,omitempty"`
	Provenance      map[string]FieldProvenance `json:"provenance"`
}

// Get returns the draft's value for a field key as (scalar, list); exactly
// one of the two is meaningful depending on the field's kind.
func (d *ProfileDraft) Get(fieldKey string) (string, []string) {
	switch fieldKey {
	case FieldCompanyName:
		return d.CompanyName, nil
	case FieldOverview:
		return d.Overview, nil
	case FieldWebsite:
		return d.Website, nil
	case FieldMission:
		return d.Mission, nil
	case FieldIndustry:
		return d.Industry, nil
	case FieldFoundedYear:
		return d.FoundedYear, nil
	case FieldEmployeeCount:
		return d.EmployeeCount, nil
	case FieldLogoURL:
		return d.LogoURL, nil
	case FieldEmails:
		return "", d.Emails
	case FieldPhones:
		return "", d.Phones
	case FieldAddresses:
		return "", d.Addresses
	case FieldSocialLinks:
		return "", d.SocialLinks
	case FieldLocations:
		return "", d.Locations
	case FieldKeyPeople:
		return "", d.KeyPeople
	case FieldProductsServices:
		return "", d.ProductsServices
	case FieldTechnologyStack:
		return "", d.TechnologyStack
	case FieldValues:
		return "", d.Values
	case FieldAchievements:
		return "", d.Achievements
	}
	return "", nil
}

// Set assigns a field by key. List assignments replace the whole slice.
func (d *ProfileDraft) Set(fieldKey string, scalar string, list []string) {
	switch fieldKey {
	case FieldCompanyName:
		d.CompanyName = scalar
	case FieldOverview:
		d.Overview = scalar
	case FieldWebsite:
		d.Website = scalar
	case FieldMission:
		d.Mission = scalar
	case FieldIndustry:
		d.Industry = scalar
	case FieldFoundedYear:
		d.FoundedYear = scalar
	case FieldEmployeeCount:
		d.EmployeeCount = scalar
	case FieldLogoURL:
		d.LogoURL = scalar
	case FieldEmails:
		d.Emails = list
	case FieldPhones:
		d.Phones = list
	case FieldAddresses:
		d.Addresses = list
	case FieldSocialLinks:
		d.SocialLinks = list
	case FieldLocations:
		d.Locations = list
	case FieldKeyPeople:
		d.KeyPeople = list
	case FieldProductsServices:
		d.ProductsServices = list
	case FieldTechnologyStack:
		d.TechnologyStack = list
	case FieldValues:
		d.Values = list
	case FieldAchievements:
		d.Achievements = list
	}
}

// PopulatedFields returns the keys of every non-empty field, in schema order.
func (d *ProfileDraft) PopulatedFields() []string {
	var keys []string
	for _, f := range AllFields() {
		scalar, list := d.Get(f.Key)
		if scalar != "" || len(list) > 0 {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Stage identifies where in a source's pipeline a failure occurred.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageNormalize Stage = "normalize"
	StageExtract   Stage = "extract"
	StageAI        Stage = "ai"
	StageCancelled Stage = "cancelled"
)

// PipelineError records a per-source failure. Multiple PipelineErrors may
// coexist with a successful draft (partial success).
type PipelineError struct {
	SourceID string `json:"source_id"`
	Stage    Stage  `json:"stage"`
	Message  string `json:"message"`
}

// RunStatus represents the final state of a profiling run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusPartial  RunStatus = "partial" // draft produced, some sources failed
	RunStatusFailed   RunStatus = "failed"  // every source failed at fetch
)

// SourceTiming captures per-stage wall-clock durations for one source.
type SourceTiming struct {
	SourceID    string `json:"source_id"`
	FetchMS     int64  `json:"fetch_ms"`
	NormalizeMS int64  `json:"normalize_ms"`
	ExtractMS   int64  `json:"extract_ms"`
	AIMS        int64  `json:"ai_ms"`
	TotalMS     int64  `json:"total_ms"`
}

// Run records one pipeline invocation for observability.
type Run struct {
	ID          string          `json:"id"`
	OrgName     string          `json:"org_name"`
	InputMode   InputMode       `json:"input_mode"`
	SourceCount int             `json:"source_count"`
	Status      RunStatus       `json:"status"`
	Score       float64         `json:"score"`
	Draft       *ProfileDraft   `json:"draft,omitempty"`
	Errors      []PipelineError `json:"errors,omitempty"`
	Timings     []SourceTiming  `json:"timings,omitempty"`
	DurationMS  int64           `json:"duration_ms"`
	CreatedAt   time.Time       `json:"created_at"`
}
