package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/cache"
	"github.com/sells-group/profile-cli/internal/extract"
	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/normalize"
	"github.com/sells-group/profile-cli/internal/structurer"
)

// processSource runs one source through fetch, normalize, pattern, entity
// and AI. Only fetching (or caller cancellation) can fail the source; every
// later layer degrades to an emptier result plus a warning. A fetched
// source always contributes an ExtractionResult, even an all-empty one.
func (c *Coordinator) processSource(ctx context.Context, src model.Source, opts Options) (*model.ExtractionResult, model.SourceTiming, []string, *model.PipelineError) {
	log := zap.L().With(zap.String("source", src.ID))
	timing := model.SourceTiming{SourceID: src.ID}
	srcStart := time.Now()

	fetchStart := time.Now()
	raw, err := c.fetcher.Fetch(ctx, src)
	timing.FetchMS = time.Since(fetchStart).Milliseconds()
	if err != nil {
		timing.TotalMS = time.Since(srcStart).Milliseconds()
		stage := model.StageFetch
		if errors.Is(err, context.Canceled) {
			stage = model.StageCancelled
		}
		log.Warn("pipeline: fetch failed", zap.String("stage", string(stage)), zap.Error(err))
		return nil, timing, nil, &model.PipelineError{SourceID: src.ID, Stage: stage, Message: err.Error()}
	}
	if raw == nil {
		timing.TotalMS = time.Since(srcStart).Milliseconds()
		return nil, timing, nil, &model.PipelineError{SourceID: src.ID, Stage: model.StageNormalize, Message: "fetcher returned no content"}
	}

	normStart := time.Now()
	nc := normalize.Normalize(raw)
	timing.NormalizeMS = time.Since(normStart).Milliseconds()

	result := &model.ExtractionResult{
		SourceID:      src.ID,
		SourceOrder:   src.Order,
		ContentLength: len(nc.Text),
		Fetch:         raw.Meta,
	}

	extractStart := time.Now()
	result.Patterns = extract.Patterns(nc)
	result.Entities = extract.Entities(ctx, c.ner, nc.Text)
	timing.ExtractMS = time.Since(extractStart).Milliseconds()

	var warns []string
	if opts.UseAI && c.ai != nil {
		aiStart := time.Now()
		result.AICandidate, result.AIFromCache = c.aiCandidate(ctx, nc, opts.FocusHints)
		timing.AIMS = time.Since(aiStart).Milliseconds()
		if result.AICandidate == nil {
			if len(strings.TrimSpace(nc.Text)) < structurer.MinTextLength {
				warns = append(warns, fmt.Sprintf("source %s: content too short for ai structuring", src.ID))
			} else {
				warns = append(warns, fmt.Sprintf("source %s: ai candidate unavailable", src.ID))
			}
		}
	}

	// A source interrupted by caller cancellation surfaces as cancelled
	// instead of contributing a partial result.
	if errors.Is(ctx.Err(), context.Canceled) {
		timing.TotalMS = time.Since(srcStart).Milliseconds()
		return nil, timing, nil, &model.PipelineError{SourceID: src.ID, Stage: model.StageCancelled, Message: "run cancelled"}
	}

	timing.TotalMS = time.Since(srcStart).Milliseconds()
	log.Debug("pipeline: source processed",
		zap.Int("content_length", result.ContentLength),
		zap.Int("signals", result.DistinctSignals()),
		zap.Bool("ai", result.AICandidate != nil),
		zap.Bool("ai_from_cache", result.AIFromCache),
	)
	return result, timing, warns, nil
}

// aiCandidate asks the structurer for a candidate, short-circuited by the
// cache: identical normalized text never hits the model twice while the
// entry lives. Cache trouble is logged and ignored; it can only cost a
// model call, never a source.
func (c *Coordinator) aiCandidate(ctx context.Context, nc *model.NormalizedContent, focus []string) (*model.Candidate, bool) {
	key := cache.Key(nc.Text)

	if c.cache != nil {
		cand, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("pipeline: cache get failed", zap.String("source", nc.SourceID), zap.Error(err))
		} else if ok {
			return cand, true
		}
	}

	cand := c.ai.Candidate(ctx, nc, focus)
	if cand != nil && c.cache != nil {
		if err := c.cache.Put(ctx, key, cand); err != nil {
			zap.L().Warn("pipeline: cache put failed", zap.String("source", nc.SourceID), zap.Error(err))
		}
	}
	return cand, false
}
