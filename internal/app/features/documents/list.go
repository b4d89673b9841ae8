// internal/app/features/documents/list.go
package documents

import (
	"context"
	"net/http"

	documentstore "github.com/dalemusser/volunteerhub/internal/app/store/documents"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeList handles GET /documents. Volunteers never see admin_only
// documents.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	role, _, _, _ := authz.UserCtx(r)

	in := struct {
		Category string `validate:"omitempty,category" label:"Category"`
	}{Category: normalize.Enum(query.Get(r, "category"))}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	docs, err := documentstore.New(h.DB).List(ctx, orgID, documentstore.ListFilter{
		Visibilities: models.VisibilitiesFor(role),
		Category:     in.Category,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list documents", err, "")
		return
	}
	views := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		views = append(views, newDocumentView(d))
	}
	jsonresp.OK(w, jsonresp.M{"documents": views})
}
