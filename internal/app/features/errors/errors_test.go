package errors_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	errorsfeature "github.com/dalemusser/volunteerhub/internal/app/features/errors"
	"github.com/dalemusser/volunteerhub/internal/app/system/apierr"
	"github.com/dalemusser/volunteerhub/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespond_ClientErrorKeepsMessage(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	el := errorsfeature.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	el.Respond(rec, httptest.NewRequest("DELETE", "/tasks/x", nil), "delete task", apierr.Conflict("Task has completed work."))

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	body := testutil.DecodeJSON(t, rec)
	if body["success"] != false || body["message"] != "Task has completed work." {
		t.Errorf("body = %v", body)
	}
	if logs.Len() != 0 {
		t.Error("client errors must not be logged as errors")
	}
}

func TestRespond_ServerErrorHidesDetail(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	el := errorsfeature.NewErrorLogger(zap.New(core))

	rec := httptest.NewRecorder()
	el.Respond(rec, httptest.NewRequest("GET", "/tasks", nil), "list tasks", errors.New("socket closed"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	body := testutil.DecodeJSON(t, rec)
	if body["message"] != "An internal error occurred." {
		t.Errorf("message = %v", body["message"])
	}
	if logs.Len() != 1 || logs.All()[0].Message != "list tasks" {
		t.Errorf("expected one logged entry, got %v", logs.All())
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	errorsfeature.NotFound(rec, httptest.NewRequest("GET", "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("NotFound status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	errorsfeature.MethodNotAllowed(rec, httptest.NewRequest("PATCH", "/tasks", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("MethodNotAllowed status = %d", rec.Code)
	}
}
