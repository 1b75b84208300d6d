// ABOUTME: Failure kinds produced by the command router
// ABOUTME: Backend failure (capability error or falsy result) and dependency unavailable

package dispatch

import (
	"errors"

	"github.com/2389/robot-gateway/internal/capability"
)

var (
	// ErrBackend marks a capability call that failed or returned a falsy result.
	ErrBackend = errors.New("backend failure")

	// ErrUnavailable is returned when no capability client is configured.
	ErrUnavailable = errors.New("robot is not initialized")
)

// BackendError carries the message reported to the caller. Err is the
// capability error, or nil when the result was falsy.
type BackendError struct {
	Op      capability.Op
	Message string
	Err     error
}

func (e *BackendError) Error() string { return e.Message }

func (e *BackendError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBackend}
	}
	return []error{ErrBackend, e.Err}
}
