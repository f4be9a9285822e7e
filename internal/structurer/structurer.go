// Package structurer turns one source's normalized content into a
// structured profile candidate using a language model. The layer is
// best-effort: every failure mode degrades to a nil candidate with a
// warning, never an error, so a flaky model can only lose enrichment.
package structurer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
)

// MinTextLength is the shortest normalized text worth a model call.
// Shorter content skips the AI layer entirely.
const MinTextLength = 40

// contentBudget caps how much normalized text goes into the prompt.
const contentBudget = 10000

// defaultMaxTokens bounds the candidate JSON the model may emit.
const defaultMaxTokens = 2048

// Completer produces one model completion for a system/prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error)
}

const structureSystemText = "You are a business analyst structuring research about one organization. " +
	"Return a valid JSON object matching the requested schema. " +
	"Use null for fields the content does not support and [] for list fields with no evidence. " +
	"Never invent facts that are not in the content."

const structurePrompt = `Analyze the content below and describe the organization it covers as a JSON object with exactly these keys:
{
  "company_name": string or null,
  "overview": string or null (2-3 sentences),
  "website": string or null,
  "mission": string or null,
  "industry": string or null,
  "founded_year": string or null,
  "employee_count": string or null,
  "logo_url": string or null,
  "emails": [string],
  "phones": [string],
  "addresses": [string],
  "social_links": [string],
  "locations": [string],
  "key_people": [string, formatted "Name (Title)"],
  "products_services": [string],
  "technology_stack": [string],
  "values": [string],
  "achievements": [string]
}
%s
Source: %s
Content:
%s

Return only the JSON object.`

// Structurer drives the model call and response parsing for one source.
type Structurer struct {
	completer Completer
	timeout   time.Duration
	maxTokens int64
}

// Option configures a Structurer.
type Option func(*Structurer)

// WithMaxTokens overrides the completion token budget. Values under 1 keep
// the default.
func WithMaxTokens(n int64) Option {
	return func(s *Structurer) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// New builds a Structurer. A zero timeout disables the per-call deadline.
func New(completer Completer, timeout time.Duration, opts ...Option) *Structurer {
	s := &Structurer{completer: completer, timeout: timeout, maxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Candidate asks the model to structure nc into a profile candidate.
// It returns nil when the content is too short, the model call fails, or
// the response cannot be parsed into valid candidate JSON.
func (s *Structurer) Candidate(ctx context.Context, nc *model.NormalizedContent, focus []string) *model.Candidate {
	if s == nil || s.completer == nil || nc == nil {
		return nil
	}
	if len(strings.TrimSpace(nc.Text)) < MinTextLength {
		zap.L().Debug("structurer: content too short, skipping model call",
			zap.String("source", nc.SourceID),
			zap.Int("length", len(nc.Text)),
		)
		return nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.completer.Complete(ctx, structureSystemText, buildPrompt(nc, focus), s.maxTokens)
	if err != nil {
		zap.L().Warn("structurer: completion failed",
			zap.String("source", nc.SourceID),
			zap.Error(err),
		)
		return nil
	}

	return parseCandidate(raw, nc.SourceID)
}

func buildPrompt(nc *model.NormalizedContent, focus []string) string {
	focusLine := ""
	if len(focus) > 0 {
		focusLine = "Pay particular attention to: " + strings.Join(focus, ", ") + "."
	}

	var content strings.Builder
	if nc.Title != "" {
		content.WriteString("Title: " + nc.Title + "\n")
	}
	if nc.MetaDescription != "" {
		content.WriteString("Description: " + nc.MetaDescription + "\n")
	}
	text := nc.Text
	if len(text) > contentBudget {
		text = text[:contentBudget]
	}
	content.WriteString(text)

	return fmt.Sprintf(structurePrompt, focusLine, nc.SourceID, content.String())
}

// parseCandidate decodes the model response: fences stripped, JSON repaired
// once on unmarshal failure, then validated against the candidate schema.
func parseCandidate(raw, sourceID string) *model.Candidate {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		zap.L().Warn("structurer: empty completion", zap.String("source", sourceID))
		return nil
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			zap.L().Warn("structurer: unparseable candidate JSON",
				zap.String("source", sourceID),
				zap.NamedError("parse_error", err),
				zap.NamedError("repair_error", repairErr),
			)
			return nil
		}
		if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
			zap.L().Warn("structurer: candidate JSON invalid after repair",
				zap.String("source", sourceID),
				zap.Error(err),
			)
			return nil
		}
	}

	if err := candidateSchema.Validate(doc); err != nil {
		zap.L().Warn("structurer: candidate failed schema validation",
			zap.String("source", sourceID),
			zap.Error(err),
		)
		return nil
	}

	return candidateFromDoc(doc)
}

func candidateFromDoc(doc map[string]any) *model.Candidate {
	return &model.Candidate{
		CompanyName:      docString(doc[model.FieldCompanyName]),
		Overview:         docString(doc[model.FieldOverview]),
		Website:          docString(doc[model.FieldWebsite]),
		Mission:          docString(doc[model.FieldMission]),
		Industry:         docString(doc[model.FieldIndustry]),
		FoundedYear:      docString(doc[model.FieldFoundedYear]),
		EmployeeCount:    docString(doc[model.FieldEmployeeCount]),
		LogoURL:          docString(doc[model.FieldLogoURL]),
		Emails:           docStrings(doc[model.FieldEmails]),
		Phones:           docStrings(doc[model.FieldPhones]),
		Addresses:        docStrings(doc[model.FieldAddresses]),
		SocialLinks:      docStrings(doc[model.FieldSocialLinks]),
		Locations:        docStrings(doc[model.FieldLocations]),
		KeyPeople:        docStrings(doc[model.FieldKeyPeople]),
		ProductsServices: docStrings(doc[model.FieldProductsServices]),
		TechnologyStack:  docStrings(doc[model.FieldTechnologyStack]),
		Values:           docStrings(doc[model.FieldValues]),
		Achievements:     docStrings(doc[model.FieldAchievements]),
	}
}

// docString coerces a decoded JSON value to a trimmed string. Integers are
// accepted for fields like founded_year which models often emit as numbers.
func docString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func docStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// cleanJSON strips markdown code fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
