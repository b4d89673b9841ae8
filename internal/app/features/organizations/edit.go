// internal/app/features/organizations/edit.go
package organizations

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	"github.com/dalemusser/volunteerhub/internal/app/system/authutil"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleEdit handles PUT /super-admin/organizations/{id}. A password in
// the body resets the shared organization password.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid organization ID.")
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	var in updateInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if in.Name != nil {
		v := htmlsanitize.Text(*in.Name)
		if v == "" {
			jsonresp.Fail(w, http.StatusBadRequest, "Organization name is required.")
			return
		}
		in.Name = &v
	}
	cleanContact(&in.contactInput)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgs := organizationstore.New(h.DB)
	err = orgs.Update(ctx, id, organizationstore.Update{
		Name:         in.Name,
		Description:  in.Description,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		Address:      in.Address,
		Website:      in.Website,
	})
	if errors.Is(err, organizationstore.ErrDuplicateOrganization) {
		jsonresp.Fail(w, http.StatusConflict, "An organization with that name already exists.")
		return
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "update organization", notFound(err))
		return
	}

	if in.Password != nil {
		hash, err := authutil.HashPassword(*in.Password)
		if err != nil {
			jsonresp.Fail(w, http.StatusBadRequest, "Organization password must be at least 8 characters.")
			return
		}
		if err := orgs.SetPasswordHash(ctx, id, hash); err != nil {
			h.ErrLog.Respond(w, r, "reset organization password", notFound(err))
			return
		}
		h.AuditLog.OrgPasswordChanged(ctx, r, actorID, id)
	}

	org, err := orgs.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Respond(w, r, "reload organization", notFound(err))
		return
	}
	views, err := h.withCounts(ctx, []models.Organization{org})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count organization members", err, "")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventOrgUpdated, actorID, &id, nil, nil)
	jsonresp.Write(w, http.StatusOK, "Organization updated.", jsonresp.M{"organization": views[0]})
}

// HandleStatus handles PUT /super-admin/organizations/{id}/status.
// Organizations are deactivated, never deleted; members of an inactive
// organization cannot log in.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid organization ID.")
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	var in statusInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := organizationstore.New(h.DB).SetActive(ctx, id, *in.IsActive); err != nil {
		h.ErrLog.Respond(w, r, "set organization status", notFound(err))
		return
	}

	event, msg := audit.EventOrgDeactivated, "Organization deactivated."
	if *in.IsActive {
		event, msg = audit.EventOrgActivated, "Organization activated."
	}
	h.AuditLog.Admin(ctx, r, event, actorID, &id, nil, nil)
	jsonresp.Write(w, http.StatusOK, msg, jsonresp.M{"is_active": *in.IsActive})
}
