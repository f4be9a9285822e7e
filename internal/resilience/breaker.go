// Package resilience provides retry and circuit breaker primitives for
// calls to external services.
package resilience

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Breaker tracks consecutive failures against a single upstream and opens
// after a threshold is reached, rejecting calls until a cooldown passes.
// Failures older than the window do not count toward the threshold.
type Breaker struct {
	name string

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	openUntil   time.Time

	threshold int           // consecutive failures to trip
	window    time.Duration // failures must occur within this window
	cooldown  time.Duration // how long the breaker stays open
}

// NewBreaker creates a breaker for the named upstream.
func NewBreaker(name string, threshold int, window, cooldown time.Duration) *Breaker {
	return &Breaker{
		name:      name,
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
	}
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Now().Before(b.openUntil)
}

// RecordFailure counts one failure. Reaching the threshold within the
// window opens the breaker for the cooldown period.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	if now.Sub(b.lastFailure) > b.window {
		b.failures = 0
	}
	b.failures++
	b.lastFailure = now
	if b.failures >= b.threshold {
		b.openUntil = now.Add(b.cooldown)
		zap.L().Warn("resilience: circuit breaker opened",
			zap.String("name", b.name),
			zap.Int("failures", b.failures),
			zap.Duration("cooldown", b.cooldown),
		)
	}
}

// RecordSuccess resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}
