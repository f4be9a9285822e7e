// Package score computes the advisory confidence score for a reconciled
// draft. The score is a deterministic weighted sum in [0,1]; it never
// gates anything — callers decide what threshold counts as usable.
package score

import (
	"math"

	"github.com/sells-group/profile-cli/internal/model"
)

const (
	// componentWeight is the value of each of the four scoring components.
	componentWeight = 0.25

	// signalTarget is the distinct pattern+entity signal count that earns
	// the full density component.
	signalTarget = 20
)

// Score rates draft quality from the extraction evidence behind it.
func Score(draft *model.ProfileDraft, results []model.ExtractionResult) float64 {
	var s float64

	// Corroboration: at least two sources made it through extraction.
	if len(results) >= 2 {
		s += componentWeight
	}

	// Completeness: fraction of the schema the draft fills.
	if draft != nil {
		total := len(model.AllFields())
		s += componentWeight * float64(len(draft.PopulatedFields())) / float64(total)
	}

	// Signal density: distinct pattern matches and entities, capped.
	signals := 0
	for i := range results {
		signals += results[i].DistinctSignals()
	}
	s += componentWeight * math.Min(1, float64(signals)/signalTarget)

	// At least one source produced a parseable AI candidate.
	for i := range results {
		if results[i].AICandidate != nil {
			s += componentWeight
			break
		}
	}

	return s
}
