// internal/app/features/tasks/list.go
package tasks

import (
	"context"
	"net/http"
	"time"

	assignmentstore "github.com/dalemusser/volunteerhub/internal/app/store/assignments"
	taskstore "github.com/dalemusser/volunteerhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type listFilter struct {
	Status     string // effective status, "overdue" included
	Priority   string
	AssignedTo string // email or user id
}

func filterFromRequest(r *http.Request) listFilter {
	return listFilter{
		Status:     normalize.Enum(query.Get(r, "status")),
		Priority:   normalize.Enum(query.Get(r, "priority")),
		AssignedTo: normalize.Email(query.Get(r, "assigned_to")),
	}
}

// ServeList handles GET /tasks. Volunteers see their own assignments;
// admins see their organization's tasks with every assignment.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if authz.IsVolunteer(r) {
		h.serveOwn(w, r, filterFromRequest(r))
		return
	}
	h.serveOrg(w, r, false)
}

// ServeAdminList handles GET /admin/tasks: the organization's tasks with
// assignment roll-ups and status counts.
func (h *Handler) ServeAdminList(w http.ResponseWriter, r *http.Request) {
	h.serveOrg(w, r, true)
}

// ServeMine handles GET /tasks/my.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	h.serveOwn(w, r, filterFromRequest(r))
}

func (h *Handler) serveOrg(w http.ResponseWriter, r *http.Request, withStats bool) {
	orgID, ok := authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	f := filterFromRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	views, err := h.loadOrgTasks(ctx, orgID, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list tasks", err, "")
		return
	}

	payload := jsonresp.M{"tasks": views}
	if withStats {
		var st Stats
		for _, v := range views {
			st.Add(v.Status)
		}
		payload["stats"] = st
	}
	jsonresp.OK(w, payload)
}

func (h *Handler) loadOrgTasks(ctx context.Context, orgID primitive.ObjectID, f listFilter) ([]TaskView, error) {
	tf := taskstore.ListFilter{Priority: f.Priority}
	astore := assignmentstore.New(h.DB)

	if f.AssignedTo != "" {
		uid, found, err := h.resolveUser(ctx, orgID, f.AssignedTo)
		if err != nil {
			return nil, err
		}
		if !found {
			return []TaskView{}, nil
		}
		mine, err := astore.ListByUser(ctx, uid, "")
		if err != nil {
			return nil, err
		}
		tf.IDs = make([]primitive.ObjectID, 0, len(mine))
		for _, a := range mine {
			tf.IDs = append(tf.IDs, a.TaskID)
		}
	}

	tasks, err := taskstore.New(h.DB).ListByOrg(ctx, orgID, tf)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	byTask, err := astore.ListByTasks(ctx, ids)
	if err != nil {
		return nil, err
	}

	userIDs := []primitive.ObjectID{}
	for _, as := range byTask {
		for _, a := range as {
			userIDs = append(userIDs, a.UserID)
		}
	}
	users, err := h.usersByID(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		v := adminView(t, byTask[t.ID], users, now)
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

func (h *Handler) serveOwn(w http.ResponseWriter, r *http.Request, f listFilter) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		jsonresp.Fail(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	views, err := h.loadOwnTasks(ctx, userID, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list own tasks", err, "")
		return
	}
	jsonresp.OK(w, jsonresp.M{"tasks": views})
}

func (h *Handler) loadOwnTasks(ctx context.Context, userID primitive.ObjectID, f listFilter) ([]TaskView, error) {
	mine, err := assignmentstore.New(h.DB).ListByUser(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(mine))
	for i, a := range mine {
		ids[i] = a.TaskID
	}
	tasks, err := taskstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	now := time.Now()
	views := make([]TaskView, 0, len(mine))
	for _, a := range mine {
		t, ok := byID[a.TaskID]
		if !ok {
			continue
		}
		v := assigneeView(t, a, now)
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// resolveUser finds a member of orgID by email or hex id.
func (h *Handler) resolveUser(ctx context.Context, orgID primitive.ObjectID, ref string) (primitive.ObjectID, bool, error) {
	users := userstore.New(h.DB)
	var u *models.User
	var err error
	if oid, perr := primitive.ObjectIDFromHex(ref); perr == nil {
		u, err = users.GetByID(ctx, oid)
	} else {
		u, err = users.GetByEmail(ctx, ref)
	}
	if err != nil {
		if isNotFound(err) {
			return primitive.NilObjectID, false, nil
		}
		return primitive.NilObjectID, false, err
	}
	if u.OrganizationID == nil || *u.OrganizationID != orgID {
		return primitive.NilObjectID, false, nil
	}
	return u.ID, true, nil
}

func (h *Handler) usersByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	list, err := userstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.User, len(list))
	for _, u := range list {
		out[u.ID] = u
	}
	return out, nil
}
