package anthropic

import (
	"context"
	"time"

	"github.com/sells-group/profile-cli/internal/resilience"
)

// completerRetryAttempts is the total number of tries for one completion.
const completerRetryAttempts = 3

// Completer adapts Client to the plain system/prompt completion calls the
// structuring layer makes. The system block carries a cache breakpoint so
// repeated calls with the same system text hit the prompt cache. Every
// error is treated as retryable: API failures here are routinely transient
// (rate limits, overload).
type Completer struct {
	client      Client
	model       string
	backoff     time.Duration
	temperature *float64
}

// CompleterOption configures a Completer.
type CompleterOption func(*Completer)

// WithTemperature sets the sampling temperature on every request. Left
// unset, the API default applies.
func WithTemperature(t float64) CompleterOption {
	return func(c *Completer) {
		c.temperature = &t
	}
}

// NewCompleter builds a Completer that sends completions to model.
func NewCompleter(client Client, model string, opts ...CompleterOption) *Completer {
	c := &Completer{
		client:  client,
		model:   model,
		backoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends one user prompt under a cached system block and returns
// the concatenated text of the response.
func (c *Completer) Complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error) {
	req := MessageRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
		System:      BuildCachedSystemBlocks(system),
		Messages:    []Message{{Role: "user", Content: prompt}},
	}

	cfg := resilience.RetryConfig{
		MaxAttempts:    completerRetryAttempts,
		InitialBackoff: c.backoff,
		ShouldRetry:    func(error) bool { return true },
		OnRetry:        resilience.RetryLogger("anthropic", "create message"),
	}

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*MessageResponse, error) {
		return c.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", err
	}

	resp.Usage.LogCost(c.model, "structure")
	return ExtractText(resp), nil
}
