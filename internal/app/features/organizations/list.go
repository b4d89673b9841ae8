// internal/app/features/organizations/list.go
package organizations

import (
	"context"
	"net/http"

	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/orgutil"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /super-admin/organizations?status=active|inactive.
// Every organization is returned when status is absent.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	status := normalize.Enum(query.Get(r, "status"))
	if status != "" && status != "active" && status != "inactive" {
		jsonresp.Fail(w, http.StatusBadRequest, "status must be active or inactive.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgs, err := organizationstore.New(h.DB).List(ctx, status != "active")
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list organizations", err, "")
		return
	}
	if status == "inactive" {
		kept := orgs[:0]
		for _, o := range orgs {
			if !o.IsActive {
				kept = append(kept, o)
			}
		}
		orgs = kept
	}

	views, err := h.withCounts(ctx, orgs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count organization members", err, "")
		return
	}
	jsonresp.OK(w, jsonresp.M{"organizations": views})
}

// ServeView handles GET /super-admin/organizations/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid organization ID.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := organizationstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Respond(w, r, "load organization", notFound(err))
		return
	}
	views, err := h.withCounts(ctx, []models.Organization{org})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count organization members", err, "")
		return
	}
	jsonresp.OK(w, jsonresp.M{"organization": views[0]})
}

func (h *Handler) withCounts(ctx context.Context, orgs []models.Organization) ([]OrgView, error) {
	ids := make([]primitive.ObjectID, len(orgs))
	for i, o := range orgs {
		ids[i] = o.ID
	}
	counts, err := orgutil.OrgCounts(ctx, h.DB, ids)
	if err != nil {
		return nil, err
	}
	views := make([]OrgView, 0, len(orgs))
	for _, o := range orgs {
		views = append(views, OrgView{Organization: o, OrganizationCounts: counts[o.ID]})
	}
	return views, nil
}
