// internal/app/features/dashboard/admin.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/features/tasks"
	assignmentstore "github.com/dalemusser/volunteerhub/internal/app/store/assignments"
	metricsstore "github.com/dalemusser/volunteerhub/internal/app/store/metrics"
	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	taskstore "github.com/dalemusser/volunteerhub/internal/app/store/tasks"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AdminDashboard is the view model of GET /dashboard/admin.
type AdminDashboard struct {
	Organization    models.Organization `json:"organization"`
	Counts          metricsstore.Counts `json:"counts"`
	TaskStats       tasks.Stats         `json:"task_stats"`
	RecentActivity  []ActivityItem      `json:"recent_activity"`
	UpcomingEvents  []EventItem         `json:"upcoming_events"`
	RecentDocuments []models.Document   `json:"recent_documents"`
}

// ServeAdmin handles GET /dashboard/admin. Super admins pick the
// organization with ?organization_id=.
func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	role, uname, _, _ := authz.UserCtx(r)
	orgID, ok := authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	now := time.Now().UTC()

	org, err := organizationstore.New(h.DB).GetByID(ctx, orgID)
	if err != nil {
		h.ErrLog.Respond(w, r, "admin dashboard: load organization", notFound(err))
		return
	}

	out := AdminDashboard{Organization: org}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Counts = metricsstore.FetchDashboardCounts(gctx, h.DB, &orgID)
		return nil
	})
	g.Go(func() error {
		var err error
		out.TaskStats, err = h.orgTaskStats(gctx, orgID, now)
		return err
	})
	g.Go(func() error {
		var err error
		out.RecentActivity, err = recentActivity(gctx, h.DB, &orgID)
		return err
	})
	g.Go(func() error {
		var err error
		out.UpcomingEvents, err = upcomingEvents(gctx, h.DB, &orgID, nil, now)
		return err
	})
	g.Go(func() error {
		var err error
		out.RecentDocuments, err = recentDocuments(gctx, h.DB, orgID, role)
		return err
	})
	if err := g.Wait(); err != nil {
		h.ErrLog.LogServerError(w, r, "admin dashboard", err, "")
		return
	}

	h.Log.Debug("admin dashboard served", zap.String("user", uname), zap.String("org", orgID.Hex()))
	jsonresp.OK(w, jsonresp.M{"dashboard": out})
}

// orgTaskStats counts the organization's tasks by rolled-up status.
func (h *Handler) orgTaskStats(ctx context.Context, orgID primitive.ObjectID, now time.Time) (tasks.Stats, error) {
	var st tasks.Stats
	list, err := taskstore.New(h.DB).ListByOrg(ctx, orgID, taskstore.ListFilter{})
	if err != nil {
		return st, err
	}
	ids := make([]primitive.ObjectID, len(list))
	for i, t := range list {
		ids[i] = t.ID
	}
	byTask, err := assignmentstore.New(h.DB).ListByTasks(ctx, ids)
	if err != nil {
		return st, err
	}
	for _, t := range list {
		st.Add(models.EffectiveStatus(t.DueDate, models.TaskStatus(byTask[t.ID]), now))
	}
	return st, nil
}
