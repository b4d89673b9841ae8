// internal/app/features/tasks/create.go
package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	assignmentstore "github.com/dalemusser/volunteerhub/internal/app/store/assignments"
	taskstore "github.com/dalemusser/volunteerhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/app/system/txn"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type createInput struct {
	Title          string   `json:"title" validate:"required,max=200" label:"Title"`
	Description    string   `json:"description" validate:"max=5000" label:"Description"`
	DueDate        string   `json:"due_date" label:"Due date"`
	Priority       string   `json:"priority" validate:"omitempty,priority" label:"Priority"`
	AssignToEmails []string `json:"assign_to_emails" validate:"dive,mailaddr" label:"Assignee emails"`
}

// HandleCreate handles POST /tasks. Each email in assign_to_emails gets
// an assignment; every email must belong to a member of the organization.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	var in createInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in.Title = htmlsanitize.Text(in.Title)
	in.Description = htmlsanitize.Sanitize(in.Description)
	in.Priority = normalize.Enum(in.Priority)
	in.AssignToEmails = normalize.Emails(in.AssignToEmails)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}
	due, ok := ParseDueDate(in.DueDate)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "Due date must be YYYY-MM-DD or an RFC 3339 timestamp.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	assignees, missing, err := h.membersByEmail(ctx, orgID, in.AssignToEmails)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create task: resolve assignees", err, "")
		return
	}
	if len(missing) > 0 {
		jsonresp.Fail(w, http.StatusBadRequest, "These emails are not members of your organization: "+strings.Join(missing, ", "))
		return
	}

	task := models.Task{
		OrganizationID: orgID,
		Title:          in.Title,
		Description:    in.Description,
		DueDate:        due,
		Priority:       in.Priority,
		CreatedBy:      actorID,
	}
	var created []models.Assignment
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		task, err = taskstore.New(h.DB).Create(ctx, task)
		if err != nil {
			return err
		}
		created, err = assignmentstore.New(h.DB).CreateMany(ctx, task, assignees)
		return err
	})
	if errors.Is(err, assignmentstore.ErrDuplicateAssignment) {
		jsonresp.Fail(w, http.StatusConflict, "A user is already assigned to this task.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create task", err, "Unable to create task.")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventTaskCreated, actorID, &orgID, &task.ID, map[string]string{
		"title":     task.Title,
		"assignees": strings.Join(in.AssignToEmails, ","),
	})

	users, _ := h.usersByID(ctx, assignees)
	jsonresp.Created(w, "Task created.", jsonresp.M{"task": adminView(task, created, users, time.Now())})
}

// membersByEmail resolves emails to user ids inside orgID. Emails that
// are unknown or belong to another organization are returned in missing.
func (h *Handler) membersByEmail(ctx context.Context, orgID primitive.ObjectID, emails []string) ([]primitive.ObjectID, []string, error) {
	if len(emails) == 0 {
		return nil, nil, nil
	}
	found, err := userstore.New(h.DB).GetByEmails(ctx, emails)
	if err != nil {
		return nil, nil, err
	}
	byEmail := make(map[string]models.User, len(found))
	for _, u := range found {
		byEmail[u.Email] = u
	}
	ids := make([]primitive.ObjectID, 0, len(emails))
	var missing []string
	for _, e := range emails {
		u, ok := byEmail[e]
		if !ok || u.OrganizationID == nil || *u.OrganizationID != orgID {
			missing = append(missing, e)
			continue
		}
		ids = append(ids, u.ID)
	}
	return ids, missing, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
