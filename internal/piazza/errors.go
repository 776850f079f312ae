package piazza

import (
	"errors"
	"fmt"
)

// ErrContentNotFound is returned when a write target has to be resolved from
// a content id and piazza has nothing under that id.
var ErrContentNotFound = errors.New("content not found")

// AuthenticationError is returned by NewClient when piazza rejects the login.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// TransportError wraps anything that kept a call from producing a decoded
// response: the request itself failing, a non-2xx status, or a body that is
// not JSON.
type TransportError struct {
	Method     string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Method, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
