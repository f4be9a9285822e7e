package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Reason classifies why a fetch failed.
type Reason string

const (
	ReasonTimeout         Reason = "timeout"
	ReasonHTTPError       Reason = "http_error" // covers transport errors generally, including FTP
	ReasonInvalidURL      Reason = "invalid_url"
	ReasonUnsupportedType Reason = "unsupported_type"
)

// FetchError is a classified retrieval failure for one source.
type FetchError struct {
	SourceID string
	Reason   Reason
	Err      error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.SourceID, e.Reason)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.SourceID, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// classify maps a transport error to a failure reason. Deadline and
// timeout errors are distinguished so callers can report them as such.
func classify(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	return ReasonHTTPError
}
