// internal/app/features/tasks/complete.go
package tasks

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	assignmentstore "github.com/dalemusser/volunteerhub/internal/app/store/assignments"
	taskstore "github.com/dalemusser/volunteerhub/internal/app/store/tasks"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type completeInput struct {
	UserID        string `json:"user_id" validate:"required,objectid" label:"User"`
	Notes         string `json:"notes" validate:"max=5000" label:"Notes"`
	AdminFeedback string `json:"admin_feedback" validate:"max=5000" label:"Feedback"`
}

// HandleComplete handles POST /tasks/{id}/complete: an admin marks one
// assignee's work completed.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	taskID, orgID, ok := h.taskInScope(w, r)
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	var in completeInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}
	userID, _ := primitive.ObjectIDFromHex(in.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	task, err := taskstore.New(h.DB).GetInOrg(ctx, taskID, orgID)
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Task not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load task", err, "")
		return
	}

	a, err := assignmentstore.New(h.DB).Complete(ctx, taskID, userID, actorID,
		htmlsanitize.Text(in.Notes), htmlsanitize.Text(in.AdminFeedback))
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "That user is not assigned to this task.")
			return
		}
		h.ErrLog.LogServerError(w, r, "complete assignment", err, "Unable to complete task.")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventTaskCompleted, actorID, &orgID, &taskID, map[string]string{"user_id": userID.Hex()})
	jsonresp.Write(w, http.StatusOK, "Task marked complete.", jsonresp.M{"task": assigneeView(task, a, time.Now())})
}

// MsgAssignmentCompleted is returned when an assignee tries to reopen
// completed work.
const MsgAssignmentCompleted = "This assignment is already completed."

type statusInput struct {
	Status string `json:"status" validate:"required,taskstatus" label:"Status"`
	Notes  string `json:"notes" validate:"max=5000" label:"Notes"`
}

// HandleStatus handles PUT /tasks/{id}/status: the caller moves their own
// assignment. Completed assignments cannot be reopened.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid task ID.")
		return
	}
	_, _, userID, _ := authz.UserCtx(r)

	var in statusInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in.Status = normalize.Enum(in.Status)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := assignmentstore.New(h.DB).SetStatus(ctx, taskID, userID, in.Status, htmlsanitize.Text(in.Notes))
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "You are not assigned to this task.")
			return
		}
		if errors.Is(err, assignmentstore.ErrAssignmentCompleted) {
			jsonresp.Fail(w, http.StatusConflict, MsgAssignmentCompleted)
			return
		}
		h.ErrLog.LogServerError(w, r, "set assignment status", err, "Unable to update task.")
		return
	}
	task, err := taskstore.New(h.DB).GetInOrg(ctx, taskID, a.OrganizationID)
	if err != nil {
		h.ErrLog.Respond(w, r, "reload task", err)
		return
	}
	jsonresp.Write(w, http.StatusOK, "Task status updated.", jsonresp.M{"task": assigneeView(task, a, time.Now())})
}
