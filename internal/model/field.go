package model

// Profile field keys. These name every slot in the draft schema; the
// reconciler, scorer, and AI prompt all iterate the same registry so the
// schema cannot drift between layers.
const (
	FieldCompanyName      = "company_name"
	FieldOverview         = "overview"
	FieldWebsite          = "website"
	FieldMission          = "mission"
	FieldIndustry         = "industry"
	FieldFoundedYear      = "founded_year"
	FieldEmployeeCount    = "employee_count"
	FieldLogoURL          = "logo_url"
	FieldEmails           = "emails"
	FieldPhones           = "phones"
	FieldAddresses        = "addresses"
	FieldSocialLinks      = "social_links"
	FieldLocations        = "locations"
	FieldKeyPeople        = "key_people"
	FieldProductsServices = "products_services"
	FieldTechnologyStack  = "technology_stack"
	FieldValues           = "values"
	FieldAchievements     = "achievements"
)

// FieldKind distinguishes single-winner fields from union-merged ones.
type FieldKind string

const (
	FieldKindScalar FieldKind = "scalar" // one winner, precedence-resolved
	FieldKindList   FieldKind = "list"   // unioned across sources, deduplicated
)

// Field describes one slot of the draft schema.
type Field struct {
	Key         string
	Kind        FieldKind
	EntityLabel EntityLabel // entity-layer fallback label, "" when none applies
	PatternKey  string      // pattern-layer field key, "" when the layer never proposes it
}

var fields = []Field{
	{Key: FieldCompanyName, Kind: FieldKindScalar, EntityLabel: EntityOrg, PatternKey: FieldCompanyName},
	{Key: FieldOverview, Kind: FieldKindScalar},
	{Key: FieldWebsite, Kind: FieldKindScalar},
	{Key: FieldMission, Kind: FieldKindScalar},
	{Key: FieldIndustry, Kind: FieldKindScalar},
	{Key: FieldFoundedYear, Kind: FieldKindScalar, PatternKey: FieldFoundedYear},
	{Key: FieldEmployeeCount, Kind: FieldKindScalar, PatternKey: FieldEmployeeCount},
	{Key: FieldLogoURL, Kind: FieldKindScalar, PatternKey: FieldLogoURL},
	{Key: FieldEmails, Kind: FieldKindList, PatternKey: FieldEmails},
	{Key: FieldPhones, Kind: FieldKindList, PatternKey: FieldPhones},
	{Key: FieldAddresses, Kind: FieldKindList, PatternKey: FieldAddresses},
	{Key: FieldSocialLinks, Kind: FieldKindList, PatternKey: FieldSocialLinks},
	{Key: FieldLocations, Kind: FieldKindList, EntityLabel: EntityLocation},
	{Key: FieldKeyPeople, Kind: FieldKindList, EntityLabel: EntityPerson, PatternKey: FieldKeyPeople},
	{Key: FieldProductsServices, Kind: FieldKindList, EntityLabel: EntityProduct},
	{Key: FieldTechnologyStack, Kind: FieldKindList, PatternKey: FieldTechnologyStack},
	{Key: FieldValues, Kind: FieldKindList},
	{Key: FieldAchievements, Kind: FieldKindList},
}

var fieldsByKey = func() map[string]*Field {
	m := make(map[string]*Field, len(fields))
	for i := range fields {
		m[fields[i].Key] = &fields[i]
	}
	return m
}()

// AllFields returns the draft schema in declaration order.
func AllFields() []Field {
	return fields
}

// FieldByKey returns the field descriptor for key, or nil if unknown.
func FieldByKey(key string) *Field {
	return fieldsByKey[key]
}

// ListFieldKeys returns the keys of all union-merged fields.
func ListFieldKeys() []string {
	var keys []string
	for _, f := range fields {
		if f.Kind == FieldKindList {
			keys = append(keys, f.Key)
		}
	}
	return keys
}
