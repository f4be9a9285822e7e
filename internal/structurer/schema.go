package structurer

import "github.com/santhosh-tekuri/jsonschema/v5"

// candidateSchemaJSON guards the shape of model output before it is mapped
// onto a Candidate. It is deliberately lenient: no required keys, extra
// keys allowed, and the year/headcount fields accept integers.
const candidateSchemaJSON = `{
  "type": "object",
  "properties": {
    "company_name":      {"type": ["string", "null"]},
    "overview":          {"type": ["string", "null"]},
    "website":           {"type": ["string", "null"]},
    "mission":           {"type": ["string", "null"]},
    "industry":          {"type": ["string", "null"]},
    "founded_year":      {"type": ["string", "integer", "null"]},
    "employee_count":    {"type": ["string", "integer", "null"]},
    "logo_url":          {"type": ["string", "null"]},
    "emails":            {"type": ["array", "null"], "items": {"type": "string"}},
    "phones":            {"type": ["array", "null"], "items": {"type": "string"}},
    "addresses":         {"type": ["array", "null"], "items": {"type": "string"}},
    "social_links":      {"type": ["array", "null"], "items": {"type": "string"}},
    "locations":         {"type": ["array", "null"], "items": {"type": "string"}},
    "key_people":        {"type": ["array", "null"], "items": {"type": "string"}},
    "products_services": {"type": ["array", "null"], "items": {"type": "string"}},
    "technology_stack":  {"type": ["array", "null"], "items": {"type": "string"}},
    "values":            {"type": ["array", "null"], "items": {"type": "string"}},
    "achievements":      {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

var candidateSchema = jsonschema.MustCompileString("candidate.json", candidateSchemaJSON)
