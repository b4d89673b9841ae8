// internal/app/features/dashboard/superadmin.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	metricsstore "github.com/dalemusser/volunteerhub/internal/app/store/metrics"
	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/orgutil"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// OrgSummary is one row of the super admin's organization overview.
type OrgSummary struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	IsActive bool               `json:"is_active"`
	models.OrganizationCounts
}

// SuperAdminDashboard is the view model of GET /super-admin/dashboard.
type SuperAdminDashboard struct {
	Counts         metricsstore.Counts `json:"counts"`
	UsersByRole    map[string]int64    `json:"users_by_role"`
	Organizations  []OrgSummary        `json:"organizations"`
	RecentActivity []ActivityItem      `json:"recent_activity"`
	UpcomingEvents []EventItem         `json:"upcoming_events"`
}

// ServeSuperAdmin handles GET /super-admin/dashboard.
func (h *Handler) ServeSuperAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	now := time.Now().UTC()

	var out SuperAdminDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Counts = metricsstore.FetchDashboardCounts(gctx, h.DB, nil)
		return nil
	})
	g.Go(func() error {
		var err error
		out.UsersByRole, err = userstore.New(h.DB).CountByRole(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.Organizations, err = h.orgSummaries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		out.RecentActivity, err = recentActivity(gctx, h.DB, nil)
		return err
	})
	g.Go(func() error {
		var err error
		out.UpcomingEvents, err = upcomingEvents(gctx, h.DB, nil, nil, now)
		return err
	})
	if err := g.Wait(); err != nil {
		h.ErrLog.LogServerError(w, r, "super admin dashboard", err, "")
		return
	}

	jsonresp.OK(w, jsonresp.M{"dashboard": out})
}

func (h *Handler) orgSummaries(ctx context.Context) ([]OrgSummary, error) {
	orgs, err := organizationstore.New(h.DB).List(ctx, true)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(orgs))
	for i, o := range orgs {
		ids[i] = o.ID
	}
	counts, err := orgutil.OrgCounts(ctx, h.DB, ids)
	if err != nil {
		return nil, err
	}
	out := make([]OrgSummary, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, OrgSummary{ID: o.ID, Name: o.Name, IsActive: o.IsActive, OrganizationCounts: counts[o.ID]})
	}
	return out, nil
}
