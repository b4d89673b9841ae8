// internal/app/features/systemusers/list.go
package systemusers

import (
	"context"
	"net/http"

	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/paging"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /super-admin/users. Filters: organization_id,
// role and q (email prefix). Results are keyset paged by email.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var f userstore.ListFilter
	if s := query.Get(r, "organization_id"); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			jsonresp.Fail(w, http.StatusBadRequest, "Invalid organization ID.")
			return
		}
		f.OrganizationID = &oid
	}
	if s := query.Get(r, "role"); s != "" {
		f.Role = normalize.Role(s)
		if res := inputval.Validate(struct {
			Role string `validate:"role" label:"Role"`
		}{f.Role}); res.HasErrors() {
			jsonresp.Fail(w, http.StatusBadRequest, res.First())
			return
		}
	}
	f.Query = query.Get(r, "q")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	users := userstore.New(h.DB)
	rows, page, err := users.List(ctx, f, paging.FromRequest(r))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list users", err, "")
		return
	}
	total, err := users.Count(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count users", err, "")
		return
	}
	names, err := h.orgNames(ctx, rows)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load organizations", err, "")
		return
	}

	views := make([]UserView, 0, len(rows))
	for _, u := range rows {
		views = append(views, newUserView(u, names))
	}
	jsonresp.OK(w, jsonresp.M{"users": views, "total": total, "page": page})
}

func (h *Handler) orgNames(ctx context.Context, users []models.User) (map[primitive.ObjectID]string, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, u := range users {
		if u.OrganizationID != nil && !seen[*u.OrganizationID] {
			seen[*u.OrganizationID] = true
			ids = append(ids, *u.OrganizationID)
		}
	}
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	orgs, err := organizationstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orgs {
		out[o.ID] = o.Name
	}
	return out, nil
}
