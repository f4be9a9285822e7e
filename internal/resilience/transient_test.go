package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient_Classification(t *testing.T) {
	overloaded := NewTransientError(errors.New("reader overloaded"), 503)

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit transient", overloaded, true},
		{"wrapped transient", fmt.Errorf("render fallback: %w", overloaded), true},
		{"plain error", errors.New("unknown source kind"), false},
		{"connection reset", fmt.Errorf("write tcp: %w", syscall.ECONNRESET), true},
		{"connection refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"dns timeout", &net.DNSError{IsTimeout: true, Err: "timeout"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestIsTransient_MessageHeuristics(t *testing.T) {
	// Errors from deep in the HTTP stack often arrive unwrapped; the
	// classifier falls back to message matching for the usual suspects.
	for _, msg := range []string{
		"connection reset by peer",
		"broken pipe",
		"TLS handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		assert.True(t, IsTransient(errors.New(msg)), msg)
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "HTTP %d", code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 405, 409, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "HTTP %d", code)
	}
}

func TestTransientError_WrapsCause(t *testing.T) {
	cause := errors.New("upstream 502 from company site")
	te := NewTransientError(cause, 502)

	assert.ErrorIs(t, te, cause)
	assert.Equal(t, 502, te.StatusCode)
	assert.Equal(t, cause.Error(), te.Error(), "the wrapper adds no message of its own")
}
