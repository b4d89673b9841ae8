// Package apierr defines the error taxonomy shared by the HTTP handlers and
// the API client. Concrete errors wrap one of the kinds below so callers
// can branch with errors.Is and handlers can pick a status code.
package apierr

import (
	"errors"
	"net/http"
)

// Error kinds.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not permitted")
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrServer         = errors.New("server error")
	ErrNetwork        = errors.New("network failure")
)

// Error is a kind plus the message shown to the caller.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Kind }

// New returns an *Error of kind with msg.
func New(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Authentication(msg string) error { return New(ErrAuthentication, msg) }
func Authorization(msg string) error  { return New(ErrAuthorization, msg) }
func Validation(msg string) error     { return New(ErrValidation, msg) }
func NotFound(msg string) error       { return New(ErrNotFound, msg) }
func Conflict(msg string) error       { return New(ErrConflict, msg) }

// Status maps err to an HTTP status code. Unknown errors are 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// KindForStatus is the inverse of Status, used by the API client.
func KindForStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusTooManyRequests:
		return ErrAuthentication
	case code == http.StatusForbidden:
		return ErrAuthorization
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity, code == http.StatusRequestEntityTooLarge:
		return ErrValidation
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusConflict:
		return ErrConflict
	default:
		return ErrServer
	}
}

// PublicMessage returns the message safe to show a caller. Server errors
// never leak their text.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	switch Status(err) {
	case http.StatusInternalServerError:
		return "An internal error occurred."
	default:
		return err.Error()
	}
}
