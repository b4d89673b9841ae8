// internal/app/features/authn/password.go
package authn

import (
	"context"
	"errors"
	"net/http"

	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	"github.com/dalemusser/volunteerhub/internal/app/system/authutil"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

type changeOrgPasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangeOrgPassword handles POST /auth/change-org-password. The
// caller must administer the organization and know its current password.
func (h *Handler) HandleChangeOrgPassword(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)
	orgID := authz.UserOrgID(r)
	if orgID.IsZero() {
		jsonresp.Fail(w, http.StatusForbidden, "You do not belong to an organization.")
		return
	}

	var in changeOrgPasswordInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if in.CurrentPassword == "" {
		jsonresp.Fail(w, http.StatusBadRequest, "Current password is required.")
		return
	}
	hash, err := authutil.HashPassword(in.NewPassword)
	if errors.Is(err, authutil.ErrPasswordTooShort) {
		jsonresp.Fail(w, http.StatusBadRequest, "New password must be at least 8 characters.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "change org password: hash", err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgs := organizationstore.New(h.DB)
	org, err := orgs.GetByID(ctx, orgID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.Fail(w, http.StatusNotFound, "Organization not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "change org password: load organization", err, "")
		return
	}
	if !authutil.CheckPassword(org.PasswordHash, in.CurrentPassword) {
		jsonresp.Fail(w, http.StatusBadRequest, "Current password is incorrect.")
		return
	}
	if err := orgs.SetPasswordHash(ctx, orgID, hash); err != nil {
		h.ErrLog.LogServerError(w, r, "change org password: save", err, "")
		return
	}

	h.AuditLog.OrgPasswordChanged(ctx, r, actorID, orgID)
	jsonresp.Message(w, "Organization password updated.")
}
