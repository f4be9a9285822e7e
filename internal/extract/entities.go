package extract

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
)

// maxRecognizerInput bounds the text handed to a recognizer so one huge
// source cannot stall the whole run.
const maxRecognizerInput = 1_000_000

// entitiesPerLabel caps how many distinct entities of one label survive
// aggregation.
const entitiesPerLabel = 15

// EntityRecognizer finds named entities in plain text. Implementations may
// call external services; an error degrades the source to pattern-only
// extraction instead of failing it.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]model.Entity, error)
}

// NoopRecognizer recognizes nothing. It is the default when no NER backend
// is configured.
type NoopRecognizer struct{}

func (NoopRecognizer) Recognize(context.Context, string) ([]model.Entity, error) {
	return nil, nil
}

// Entities runs the recognizer over text and aggregates its output:
// occurrences are summed case-insensitively keeping the first casing seen,
// sorted by frequency descending (ties keep recognition order) and capped
// per label.
func Entities(ctx context.Context, rec EntityRecognizer, text string) []model.Entity {
	if rec == nil || text == "" {
		return nil
	}
	if len(text) > maxRecognizerInput {
		text = text[:maxRecognizerInput]
	}

	found, err := rec.Recognize(ctx, text)
	if err != nil {
		zap.L().Warn("extract: entity recognition failed", zap.Error(err))
		return nil
	}
	return aggregateEntities(found)
}

func aggregateEntities(found []model.Entity) []model.Entity {
	if len(found) == 0 {
		return nil
	}

	index := make(map[string]int, len(found))
	merged := make([]model.Entity, 0, len(found))
	for _, e := range found {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		freq := e.Frequency
		if freq <= 0 {
			freq = 1
		}
		key := string(e.Label) + "|" + strings.ToLower(text)
		if i, ok := index[key]; ok {
			merged[i].Frequency += freq
			continue
		}
		index[key] = len(merged)
		merged = append(merged, model.Entity{Text: text, Label: e.Label, Frequency: freq})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Frequency > merged[j].Frequency
	})

	perLabel := make(map[model.EntityLabel]int)
	out := make([]model.Entity, 0, len(merged))
	for _, e := range merged {
		if perLabel[e.Label] >= entitiesPerLabel {
			continue
		}
		perLabel[e.Label]++
		out = append(out, e)
	}
	return out
}
