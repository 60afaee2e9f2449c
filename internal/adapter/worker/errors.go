package worker

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying worker RPC failures. Every call returns one of
// these (possibly wrapped); callers map them to per-item failures rather than
// aborting the run.
var (
	// ErrUnreachable means the connection could not be established at all.
	ErrUnreachable = errors.New("worker unreachable")

	// ErrTimeout means the call exceeded its deadline.
	ErrTimeout = errors.New("worker timeout")

	// ErrRemote means the worker answered with a non-2xx status.
	ErrRemote = errors.New("worker remote error")

	// ErrMalformedResponse means a 2xx answer could not be decoded, or the
	// payload violated the response contract (e.g. batch length mismatch).
	ErrMalformedResponse = errors.New("malformed worker response")
)

// RemoteError carries the status and decoded message of a non-2xx response.
// It unwraps to ErrRemote.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("worker returned status %d", e.Status)
	}
	return fmt.Sprintf("worker returned status %d: %s", e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error { return ErrRemote }
