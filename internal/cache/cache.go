// Package cache memoizes structuring candidates keyed by the content they
// were derived from, so repeat runs over unchanged sources skip the model
// call. Pattern and entity extraction always run fresh; only the AI layer
// consults the cache.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/sells-group/profile-cli/internal/model"
)

// Cache stores candidates keyed by content hash.
type Cache interface {
	// Get returns the candidate stored under key. The bool reports whether
	// a live entry was found; expired entries read as misses.
	Get(ctx context.Context, key string) (*model.Candidate, bool, error)
	// Put stores candidate under key, replacing any existing entry and
	// restarting its TTL.
	Put(ctx context.Context, key string, candidate *model.Candidate) error
}

// Key returns the SHA-256 hex of normalized source text. Identical content
// keys identically no matter which source produced it.
func Key(normalizedText string) string {
	h := sha256.Sum256([]byte(normalizedText))
	return fmt.Sprintf("%x", h)
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
