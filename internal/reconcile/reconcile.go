// Package reconcile merges per-source extraction results into a single
// provenance-tagged profile draft. Layer precedence is ai > pattern >
// entity; list fields union across sources instead of picking a winner.
package reconcile

import (
	"sort"
	"strings"

	"github.com/sells-group/profile-cli/internal/model"
)

// Reconcile merges results into one draft. The merge is pure and
// order-independent: results are ordered by SourceOrder before any rule
// runs, so permuting the input slice changes nothing.
func Reconcile(results []model.ExtractionResult) *model.ProfileDraft {
	ordered := make([]model.ExtractionResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SourceOrder < ordered[j].SourceOrder
	})

	draft := &model.ProfileDraft{
		Provenance: make(map[string]model.FieldProvenance),
	}
	for _, f := range model.AllFields() {
		switch f.Kind {
		case model.FieldKindScalar:
			reconcileScalar(draft, f, ordered)
		case model.FieldKindList:
			reconcileList(draft, f, ordered)
		}
	}
	return draft
}

// reconcileScalar resolves one single-winner field through the layer
// cascade. Fields without a pattern key or entity label simply skip those
// rungs; MONEY entities map to no field at all, so they never surface here.
func reconcileScalar(draft *model.ProfileDraft, f model.Field, ordered []model.ExtractionResult) {
	if value, entry, ok := aiScalarWinner(f.Key, ordered); ok {
		setScalar(draft, f.Key, value, entry)
		return
	}
	if f.PatternKey != "" {
		if value, entry, ok := patternScalarWinner(f.PatternKey, ordered); ok {
			setScalar(draft, f.Key, value, entry)
			return
		}
	}
	if f.EntityLabel != "" {
		if value, entry, ok := entityWinner(f.EntityLabel, ordered); ok {
			setScalar(draft, f.Key, value, entry)
			return
		}
	}
}

func setScalar(draft *model.ProfileDraft, fieldKey, value string, entry model.ProvenanceEntry) {
	draft.Set(fieldKey, value, nil)
	draft.Provenance[fieldKey] = model.FieldProvenance{
		FieldKey: fieldKey,
		Entries:  []model.ProvenanceEntry{entry},
	}
}

// aiScalarWinner picks the AI-layer value from the source with the most
// normalized content. Sources are already in input order, so a strict
// comparison breaks length ties toward the earliest one.
func aiScalarWinner(fieldKey string, ordered []model.ExtractionResult) (string, model.ProvenanceEntry, bool) {
	var (
		winner  string
		entry   model.ProvenanceEntry
		bestLen = -1
	)
	for _, res := range ordered {
		scalar, _ := res.AICandidate.FieldValue(fieldKey)
		scalar = strings.TrimSpace(scalar)
		if scalar == "" {
			continue
		}
		if res.ContentLength > bestLen {
			bestLen = res.ContentLength
			winner = scalar
			entry = model.ProvenanceEntry{SourceID: res.SourceID, Layer: model.LayerAI, RawValue: scalar}
		}
	}
	return winner, entry, bestLen >= 0
}

// patternScalarWinner applies the same richest-source rule to the pattern
// layer, taking the winning source's first match.
func patternScalarWinner(patternKey string, ordered []model.ExtractionResult) (string, model.ProvenanceEntry, bool) {
	var (
		winner  string
		entry   model.ProvenanceEntry
		bestLen = -1
	)
	for _, res := range ordered {
		matches := res.Patterns[patternKey]
		if len(matches) == 0 {
			continue
		}
		value := strings.TrimSpace(matches[0])
		if value == "" {
			continue
		}
		if res.ContentLength > bestLen {
			bestLen = res.ContentLength
			winner = value
			entry = model.ProvenanceEntry{SourceID: res.SourceID, Layer: model.LayerPattern, RawValue: value}
		}
	}
	return winner, entry, bestLen >= 0
}

// entityWinner aggregates one label's entities across all sources by
// case-insensitive text and returns the most frequent, tie-broken toward
// the first appearance in source order. The first appearance also decides
// casing and the provenance source.
func entityWinner(label model.EntityLabel, ordered []model.ExtractionResult) (string, model.ProvenanceEntry, bool) {
	type agg struct {
		text     string
		sourceID string
		freq     int
	}
	var (
		byText = make(map[string]*agg)
		firsts []*agg
	)
	for _, res := range ordered {
		for _, ent := range res.Entities {
			if ent.Label != label {
				continue
			}
			text := strings.TrimSpace(ent.Text)
			if text == "" {
				continue
			}
			key := strings.ToLower(text)
			a, ok := byText[key]
			if !ok {
				a = &agg{text: text, sourceID: res.SourceID}
				byText[key] = a
				firsts = append(firsts, a)
			}
			a.freq += ent.Frequency
		}
	}

	var best *agg
	for _, a := range firsts {
		if best == nil || a.freq > best.freq {
			best = a
		}
	}
	if best == nil {
		return "", model.ProvenanceEntry{}, false
	}
	entry := model.ProvenanceEntry{SourceID: best.sourceID, Layer: model.LayerEntity, RawValue: best.text}
	return best.text, entry, true
}

// reconcileList unions one list field across sources and layers. Items
// deduplicate case-insensitively after trimming; the first occurrence
// keeps its casing and position. Provenance records every contributing
// (source, layer, value) triple once, so cross-source corroboration of
// the same value stays visible.
func reconcileList(draft *model.ProfileDraft, f model.Field, ordered []model.ExtractionResult) {
	var (
		items     []string
		itemSeen  = make(map[string]bool)
		entries   []model.ProvenanceEntry
		entrySeen = make(map[string]bool)
	)
	add := func(sourceID string, layer model.Layer, raw string) {
		value := strings.TrimSpace(raw)
		if value == "" {
			return
		}
		lower := strings.ToLower(value)
		if !itemSeen[lower] {
			itemSeen[lower] = true
			items = append(items, value)
		}
		ek := sourceID + "|" + string(layer) + "|" + lower
		if !entrySeen[ek] {
			entrySeen[ek] = true
			entries = append(entries, model.ProvenanceEntry{SourceID: sourceID, Layer: layer, RawValue: value})
		}
	}

	for _, res := range ordered {
		if _, list := res.AICandidate.FieldValue(f.Key); len(list) > 0 {
			for _, v := range list {
				add(res.SourceID, model.LayerAI, v)
			}
		}
		if f.PatternKey != "" {
			for _, v := range res.Patterns[f.PatternKey] {
				add(res.SourceID, model.LayerPattern, v)
			}
		}
		if f.EntityLabel != "" {
			for _, ent := range res.Entities {
				if ent.Label == f.EntityLabel {
					add(res.SourceID, model.LayerEntity, ent.Text)
				}
			}
		}
	}

	if len(items) == 0 {
		return
	}
	draft.Set(f.Key, "", items)
	draft.Provenance[f.Key] = model.FieldProvenance{FieldKey: f.Key, Entries: entries}
}
