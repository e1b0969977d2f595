package backup

import (
	"errors"
	"fmt"
)

// ErrUnauthorized means the server rejected the configured credentials.
// Retrying cannot help, so it is terminal.
var ErrUnauthorized = errors.New("server rejected credentials")

// SourceError means an item's bytes could not be obtained. Terminal:
// an unavailable source will not become available between attempts.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source unavailable: %v", e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// RejectedError is a server-side validation failure (oversized file,
// disallowed content type, malformed body). Terminal.
type RejectedError struct {
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("server rejected upload (status %d): %s", e.Status, e.Reason)
}

// TransportError is a timeout, connection failure, or 5xx response.
// Retryable up to the configured maximum.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	return fmt.Sprintf("transport error: status %d", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// terminalError reports whether err must not be retried.
func terminalError(err error) bool {
	var srcErr *SourceError
	var rejErr *RejectedError
	return errors.As(err, &srcErr) || errors.As(err, &rejErr) || errors.Is(err, ErrUnauthorized)
}
