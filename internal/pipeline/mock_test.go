package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/store"
)

// fakeFetcher serves canned content or errors per source ID. Optional
// per-source delays simulate slow remotes that still honor cancellation.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	outputs map[string]*model.RawContent
	errs    map[string]error
	delays  map[string]time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, src model.Source) (*model.RawContent, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d := f.delays[src.ID]; d > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
	}
	if err, ok := f.errs[src.ID]; ok {
		return nil, err
	}
	if rc, ok := f.outputs[src.ID]; ok {
		out := *rc
		out.SourceID = src.ID
		return &out, nil
	}
	return nil, errors.New("no fixture for " + src.ID)
}

// fakeCompleter returns one canned completion and counts invocations.
type fakeCompleter struct {
	calls    atomic.Int64
	response string
	err      error
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string, _ int64) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeRecognizer returns fixed entities.
type fakeRecognizer struct {
	entities []model.Entity
	err      error
}

func (f fakeRecognizer) Recognize(context.Context, string) ([]model.Entity, error) {
	return f.entities, f.err
}

// fakeStore records saved runs in memory.
type fakeStore struct {
	mu      sync.Mutex
	runs    []*model.Run
	saveErr error
}

var _ store.Store = (*fakeStore)(nil)

func (s *fakeStore) SaveRun(_ context.Context, run *model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }

func (s *fakeStore) ListRuns(context.Context, store.RunFilter) ([]model.Run, error) {
	return nil, nil
}

func (s *fakeStore) Migrate(context.Context) error { return nil }

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) saved() []*model.Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
