package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/model"
)

// Memory is an in-process Cache for single-run use. Expired entries are
// evicted lazily on read.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	candidate model.Candidate
	expiresAt time.Time
}

// NewMemory returns an empty in-memory cache whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (*model.Candidate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	c := e.candidate // copy so callers cannot mutate the cached value
	return &c, true, nil
}

func (m *Memory) Put(_ context.Context, key string, candidate *model.Candidate) error {
	if candidate == nil {
		return eris.New("cache: nil candidate")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{candidate: *candidate, expiresAt: time.Now().Add(m.ttl)}
	return nil
}
