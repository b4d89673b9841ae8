// internal/app/features/dashboard/directory.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	metricsstore "github.com/dalemusser/volunteerhub/internal/app/store/metrics"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/blobstore"
	"github.com/dalemusser/volunteerhub/internal/app/system/csvutil"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// VolunteerEntry is one row of the volunteers directory.
type VolunteerEntry struct {
	ID           primitive.ObjectID `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Phone        string             `json:"phone,omitempty"`
	Skills       string             `json:"skills,omitempty"`
	Availability string             `json:"availability,omitempty"`
	JoinedAt     time.Time          `json:"joined_at"`
	LastLoginAt  *time.Time         `json:"last_login_at,omitempty"`
	metricsstore.Tally
}

// ServeVolunteers handles GET /dashboard/volunteers. ?format=csv
// downloads the directory instead.
func (h *Handler) ServeVolunteers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	format := query.Get(r, "format")
	if format != "" && format != "json" && format != "csv" {
		jsonresp.Fail(w, http.StatusBadRequest, "format must be json or csv.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.directory(ctx, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "volunteers directory", err, "")
		return
	}

	if format != "csv" {
		jsonresp.OK(w, jsonresp.M{"volunteers": entries, "total": len(entries)})
		return
	}

	rows := make([]csvutil.VolunteerRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, csvutil.VolunteerRow{
			Name:         e.Name,
			Email:        e.Email,
			Phone:        e.Phone,
			Skills:       e.Skills,
			Availability: e.Availability,
			Joined:       e.JoinedAt,
		})
	}
	name := csvutil.FileName(csvutil.VolunteersDirectoryPrefix, time.Now().UTC())
	w.Header().Set("Content-Type", csvutil.ContentType)
	w.Header().Set("Content-Disposition", blobstore.AttachmentDisposition(name))
	if err := csvutil.WriteVolunteersDirectory(w, rows); err != nil {
		h.Log.Warn("write volunteers directory", zap.Error(err))
	}
}

func (h *Handler) directory(ctx context.Context, orgID primitive.ObjectID) ([]VolunteerEntry, error) {
	var (
		users   []models.User
		tallies map[primitive.ObjectID]metricsstore.Tally
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = userstore.New(h.DB).ListByOrg(gctx, orgID, models.RoleVolunteer)
		return err
	})
	g.Go(func() error {
		var err error
		tallies, err = metricsstore.VolunteerTallies(gctx, h.DB, orgID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]VolunteerEntry, 0, len(users))
	for _, u := range users {
		out = append(out, VolunteerEntry{
			ID:           u.ID,
			Name:         models.DisplayName(u),
			Email:        u.Email,
			Phone:        u.Profile.Phone,
			Skills:       u.Profile.Skills,
			Availability: u.Profile.Availability,
			JoinedAt:     u.CreatedAt,
			LastLoginAt:  u.LastLoginAt,
			Tally:        tallies[u.ID],
		})
	}
	return out, nil
}
