// internal/app/features/dashboard/volunteer.go
package dashboard

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/features/tasks"
	assignmentstore "github.com/dalemusser/volunteerhub/internal/app/store/assignments"
	rsvpstore "github.com/dalemusser/volunteerhub/internal/app/store/rsvps"
	taskstore "github.com/dalemusser/volunteerhub/internal/app/store/tasks"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// TaskItem is one of the volunteer's open tasks.
type TaskItem struct {
	models.Task
	Status    string `json:"status"`
	IsOverdue bool   `json:"is_overdue"`
}

// VolunteerDashboard is the view model of GET /dashboard/volunteer.
type VolunteerDashboard struct {
	Stats           tasks.Stats       `json:"stats"`
	EventSignups    int               `json:"event_signups"`
	OpenTasks       []TaskItem        `json:"open_tasks"`
	UpcomingEvents  []EventItem       `json:"upcoming_events"`
	RecentDocuments []models.Document `json:"recent_documents"`
}

// ServeVolunteer handles GET /dashboard/volunteer.
func (h *Handler) ServeVolunteer(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		jsonresp.Fail(w, http.StatusForbidden, "You are not a member of an organization.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	now := time.Now().UTC()

	var out VolunteerDashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Stats, out.OpenTasks, err = h.volunteerTasks(gctx, uid, now)
		return err
	})
	g.Go(func() error {
		var err error
		out.UpcomingEvents, err = upcomingEvents(gctx, h.DB, &orgID, &uid, now)
		return err
	})
	g.Go(func() error {
		var err error
		out.RecentDocuments, err = recentDocuments(gctx, h.DB, orgID, role)
		return err
	})
	g.Go(func() error {
		signups, err := rsvpstore.New(h.DB).ListByUser(gctx, uid, models.RSVPSignedUp)
		out.EventSignups = len(signups)
		return err
	})
	if err := g.Wait(); err != nil {
		h.ErrLog.LogServerError(w, r, "volunteer dashboard", err, "")
		return
	}

	jsonresp.OK(w, jsonresp.M{"dashboard": out})
}

// volunteerTasks counts uid's assignments by effective status and returns
// the open ones, soonest due first.
func (h *Handler) volunteerTasks(ctx context.Context, uid primitive.ObjectID, now time.Time) (tasks.Stats, []TaskItem, error) {
	var st tasks.Stats
	mine, err := assignmentstore.New(h.DB).ListByUser(ctx, uid, "")
	if err != nil {
		return st, nil, err
	}
	ids := make([]primitive.ObjectID, len(mine))
	for i, a := range mine {
		ids[i] = a.TaskID
	}
	list, err := taskstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		return st, nil, err
	}
	byID := make(map[primitive.ObjectID]models.Task, len(list))
	for _, t := range list {
		byID[t.ID] = t
	}

	open := []TaskItem{}
	for _, a := range mine {
		t, ok := byID[a.TaskID]
		if !ok {
			continue
		}
		status := models.EffectiveStatus(t.DueDate, a.Status, now)
		st.Add(status)
		if a.Status != models.StatusCompleted {
			open = append(open, TaskItem{Task: t, Status: status, IsOverdue: status == models.StatusOverdue})
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		di, dj := open[i].DueDate, open[j].DueDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
	if len(open) > listSize {
		open = open[:listSize]
	}
	return st, open, nil
}
