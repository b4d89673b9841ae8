// internal/app/features/tasks/edit.go
package tasks

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	assignmentstore "github.com/dalemusser/volunteerhub/internal/app/store/assignments"
	taskstore "github.com/dalemusser/volunteerhub/internal/app/store/tasks"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/app/system/txn"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MsgTaskHasCompletedWork is returned when deleting a task that has a
// completed assignment.
const MsgTaskHasCompletedWork = "This task has completed work and cannot be deleted."

var errCompletedWork = errors.New("task has completed work")

type updateInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200" label:"Title"`
	Description *string `json:"description" validate:"omitempty,max=5000" label:"Description"`
	DueDate     *string `json:"due_date" label:"Due date"`
	Priority    *string `json:"priority" validate:"omitempty,priority" label:"Priority"`
}

// taskInScope reads {id} and the organization scope. It writes the
// failure response itself and returns ok=false.
func (h *Handler) taskInScope(w http.ResponseWriter, r *http.Request) (taskID, orgID primitive.ObjectID, ok bool) {
	orgID, ok = authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid task ID.")
		return taskID, orgID, false
	}
	return taskID, orgID, true
}

// HandleUpdate handles PUT /tasks/{id}. An empty due_date clears it.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	taskID, orgID, ok := h.taskInScope(w, r)
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	var in updateInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if in.Title != nil {
		t := htmlsanitize.Text(*in.Title)
		in.Title = &t
	}
	if in.Description != nil {
		d := htmlsanitize.Sanitize(*in.Description)
		in.Description = &d
	}
	if in.Priority != nil {
		p := normalize.Enum(*in.Priority)
		in.Priority = &p
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}
	if in.Title != nil && *in.Title == "" {
		jsonresp.Fail(w, http.StatusBadRequest, "Title is required.")
		return
	}

	upd := taskstore.Update{Title: in.Title, Description: in.Description, Priority: in.Priority}
	if in.DueDate != nil {
		due, ok := ParseDueDate(*in.DueDate)
		if !ok {
			jsonresp.Fail(w, http.StatusBadRequest, "Due date must be YYYY-MM-DD or an RFC 3339 timestamp.")
			return
		}
		upd.DueDate = due
		upd.ClearDueDate = due == nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := taskstore.New(h.DB)
	if err := store.Update(ctx, taskID, orgID, upd); err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Task not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update task", err, "Unable to update task.")
		return
	}
	task, err := store.GetInOrg(ctx, taskID, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload task", err, "")
		return
	}
	h.AuditLog.Admin(ctx, r, audit.EventTaskUpdated, actorID, &orgID, &taskID, nil)

	views, err := h.loadOrgTasks(ctx, orgID, listFilter{})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload task assignments", err, "")
		return
	}
	for _, v := range views {
		if v.ID == task.ID {
			jsonresp.Write(w, http.StatusOK, "Task updated.", jsonresp.M{"task": v})
			return
		}
	}
	jsonresp.Message(w, "Task updated.")
}

// HandleDelete handles DELETE /tasks/{id}. Tasks with completed work are
// kept and the request fails with 409.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	taskID, orgID, ok := h.taskInScope(w, r)
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	tasks := taskstore.New(h.DB)
	task, err := tasks.GetInOrg(ctx, taskID, orgID)
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Task not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load task", err, "")
		return
	}

	assignments := assignmentstore.New(h.DB)
	hasCompleted := func(ctx context.Context) error {
		done, err := assignments.HasCompleted(ctx, taskID)
		if err != nil {
			return err
		}
		if done {
			return errCompletedWork
		}
		return nil
	}
	// Completed assignments never match the delete, so work completed
	// after the first check survives and the second check keeps the task.
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := hasCompleted(ctx); err != nil {
			return err
		}
		if _, err := assignments.DeleteOpenByTask(ctx, taskID); err != nil {
			return err
		}
		if err := hasCompleted(ctx); err != nil {
			return err
		}
		_, err := tasks.Delete(ctx, taskID, orgID)
		return err
	})
	if errors.Is(err, errCompletedWork) {
		jsonresp.Fail(w, http.StatusConflict, MsgTaskHasCompletedWork)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete task", err, "Unable to delete task.")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventTaskDeleted, actorID, &orgID, &taskID, map[string]string{"title": task.Title})
	jsonresp.Message(w, "Task deleted.")
}
