// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/volunteerhub/internal/app/system/apierr"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"go.uber.org/zap"
)

// ErrorLogger writes error envelopes and logs failures that the caller
// cannot fix.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// LogServerError logs err with msg and answers 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	e.log.Error(msg,
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))
	if userMsg == "" {
		userMsg = "An internal error occurred."
	}
	jsonresp.Fail(w, http.StatusInternalServerError, userMsg)
}

// Respond answers with the status apierr assigns to err. Errors that map
// to 500 are logged under msg and their text is not exposed.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := apierr.Status(err)
	if status == http.StatusInternalServerError {
		var ae *apierr.Error
		userMsg := ""
		if stderrors.As(err, &ae) {
			userMsg = ae.Msg
		}
		e.LogServerError(w, r, msg, err, userMsg)
		return
	}
	jsonresp.Fail(w, status, apierr.PublicMessage(err))
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	jsonresp.Fail(w, http.StatusNotFound, "Route not found.")
}

// MethodNotAllowed answers known routes called with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonresp.Fail(w, http.StatusMethodNotAllowed, "Method not allowed.")
}
