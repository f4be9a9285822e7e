// Package pipeline coordinates the per-source extraction pipelines and
// merges their output into one provenance-tagged profile draft.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/profile-cli/internal/cache"
	"github.com/sells-group/profile-cli/internal/extract"
	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/reconcile"
	"github.com/sells-group/profile-cli/internal/score"
	"github.com/sells-group/profile-cli/internal/store"
	"github.com/sells-group/profile-cli/internal/structurer"
)

const (
	// DefaultMaxConcurrency bounds simultaneous source pipelines, which
	// bounds outbound fetches and AI calls at the same time.
	DefaultMaxConcurrency = 5

	// DefaultTimeoutPerSource is the whole-pipeline budget for one source.
	DefaultTimeoutPerSource = 30 * time.Second
)

// ErrNoSources is returned when Run is called with an empty source list.
var ErrNoSources = eris.New("pipeline: no sources")

// ErrAllSourcesFailed is returned when every source failed before
// extraction, leaving nothing to reconcile.
var ErrAllSourcesFailed = eris.New("pipeline: all sources failed at fetch")

// SourceFetcher retrieves the raw content for one source. *fetch.Chain is
// the production implementation.
type SourceFetcher interface {
	Fetch(ctx context.Context, src model.Source) (*model.RawContent, error)
}

// Options tune one profiling run. Zero values fall back to defaults; the
// org name is recorded on the run record, not used by extraction.
type Options struct {
	UseAI            bool
	MaxConcurrency   int
	TimeoutPerSource time.Duration
	FocusHints       []string
	OrgName          string
}

// Coordinator fans sources out over a bounded worker pool, runs each
// source's fetch, normalize, pattern, entity and AI layers in isolation,
// and reconciles whatever survived. Optional collaborators may be nil:
// no structurer disables the AI layer, no cache makes every lookup a
// miss, no store skips run persistence.
type Coordinator struct {
	fetcher SourceFetcher
	ai      *structurer.Structurer
	ner     extract.EntityRecognizer
	cache   cache.Cache
	store   store.Store
}

// New creates a Coordinator with explicit dependencies.
func New(fetcher SourceFetcher, ai *structurer.Structurer, ner extract.EntityRecognizer, c cache.Cache, st store.Store) *Coordinator {
	return &Coordinator{fetcher: fetcher, ai: ai, ner: ner, cache: c, store: st}
}

// Run profiles one organization from its sources. Per-source failures are
// collected, never fatal; the returned error is non-nil only when the run
// was cancelled or no source got past fetching. The draft and error list
// may both be non-empty (partial success).
func (c *Coordinator) Run(ctx context.Context, sources []model.Source, opts Options) (*model.ProfileDraft, []model.PipelineError, error) {
	if len(sources) == 0 {
		return nil, nil, ErrNoSources
	}

	runID := uuid.New().String()
	log := zap.L().With(zap.String("run", runID), zap.String("org", opts.OrgName))
	start := time.Now()

	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	timeout := opts.TimeoutPerSource
	if timeout <= 0 {
		timeout = DefaultTimeoutPerSource
	}

	log.Info("pipeline: starting run",
		zap.Int("sources", len(sources)),
		zap.String("input_mode", string(model.DetermineInputMode(sources))),
		zap.Bool("use_ai", opts.UseAI),
		zap.Int("max_concurrency", maxConcurrency),
		zap.Duration("timeout_per_source", timeout),
	)

	var (
		mu       sync.Mutex
		results  []model.ExtractionResult
		pipeErrs []model.PipelineError
		warnings []string
		timings  []model.SourceTiming
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i := range sources {
		src := sources[i]
		g.Go(func() error {
			srcCtx, cancel := context.WithTimeout(gCtx, timeout)
			defer cancel()

			res, timing, warns, perr := c.processSource(srcCtx, src, opts)

			// Failures are tracked per source; returning nil keeps
			// siblings running.
			mu.Lock()
			defer mu.Unlock()
			timings = append(timings, timing)
			warnings = append(warnings, warns...)
			if perr != nil {
				pipeErrs = append(pipeErrs, *perr)
				return nil
			}
			results = append(results, *res)
			return nil
		})
	}
	_ = g.Wait()

	// Deterministic output regardless of scheduling order.
	sort.Slice(pipeErrs, func(i, j int) bool { return pipeErrs[i].SourceID < pipeErrs[j].SourceID })
	sort.Slice(timings, func(i, j int) bool { return timings[i].SourceID < timings[j].SourceID })
	sort.Strings(warnings)

	if err := ctx.Err(); err != nil {
		c.persistRun(ctx, buildRun(runID, sources, opts, model.RunStatusFailed, nil, pipeErrs, timings, start), log)
		return nil, pipeErrs, eris.Wrap(err, "pipeline: run cancelled")
	}

	if len(results) == 0 {
		log.Warn("pipeline: nothing to reconcile", zap.Int("errors", len(pipeErrs)))
		c.persistRun(ctx, buildRun(runID, sources, opts, model.RunStatusFailed, nil, pipeErrs, timings, start), log)
		return nil, pipeErrs, ErrAllSourcesFailed
	}

	draft := reconcile.Reconcile(results)
	draft.ConfidenceScore = score.Score(draft, results)
	draft.Warnings = append(draft.Warnings, warnings...)

	status := model.RunStatusComplete
	if len(pipeErrs) > 0 {
		status = model.RunStatusPartial
	}

	run := buildRun(runID, sources, opts, status, draft, pipeErrs, timings, start)
	c.persistRun(ctx, run, log)

	log.Info("pipeline: run finished",
		zap.String("status", string(status)),
		zap.Int("results", len(results)),
		zap.Int("errors", len(pipeErrs)),
		zap.Float64("score", draft.ConfidenceScore),
		zap.Int64("duration_ms", run.DurationMS),
	)
	return draft, pipeErrs, nil
}

func buildRun(runID string, sources []model.Source, opts Options, status model.RunStatus, draft *model.ProfileDraft, pipeErrs []model.PipelineError, timings []model.SourceTiming, start time.Time) *model.Run {
	run := &model.Run{
		ID:          runID,
		OrgName:     opts.OrgName,
		InputMode:   model.DetermineInputMode(sources),
		SourceCount: len(sources),
		Status:      status,
		Draft:       draft,
		Errors:      pipeErrs,
		Timings:     timings,
		DurationMS:  time.Since(start).Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if draft != nil {
		run.Score = draft.ConfidenceScore
	}
	return run
}

// persistRun is best-effort: a run that cannot be recorded still returns
// its draft to the caller.
func (c *Coordinator) persistRun(ctx context.Context, run *model.Run, log *zap.Logger) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		log.Warn("pipeline: save run failed", zap.Error(err))
	}
}
