package client

import (
	"errors"
	"fmt"

	"github.com/dalemusser/volunteerhub/internal/app/system/apierr"
)

// ErrSessionExpired is returned when a 401 could not be cured by a token
// refresh. The stored session has been cleared; the caller should send
// the user back to login.
var ErrSessionExpired = apierr.Authentication("Your session has expired. Please sign in again.")

// ErrNotSignedIn is returned by calls that need a session when there is none.
var ErrNotSignedIn = apierr.Authentication("You are not signed in.")

// ErrPreviewUnavailable is returned by Preview for types that cannot be
// shown inline.
var ErrPreviewUnavailable = errors.New("this document can only be downloaded")

// APIError is a failed call. Kind is one of the apierr sentinels, so
// errors.Is(err, apierr.ErrNotFound) and friends work on it.
type APIError struct {
	Status  int    // HTTP status; 0 for network failures
	Kind    error  // apierr sentinel
	Message string // server message, or a local description
	Err     error  // transport error, if any
}

func (e *APIError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("%s (HTTP %d)", e.Kind, e.Status)
	}
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func networkError(err error) error {
	return &APIError{Kind: apierr.ErrNetwork, Err: err}
}

// validationError is a local pre-check failure; nothing was sent.
func validationError(msg string) error {
	return &APIError{Kind: apierr.ErrValidation, Message: msg}
}
