// internal/app/features/systemusers/edit.go
package systemusers

import (
	"context"
	"net/http"

	"github.com/dalemusser/volunteerhub/internal/app/features/authn"
	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// userByEmail loads the {email} path user, writing 404 when absent.
func (h *Handler) userByEmail(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	email := normalize.Email(chi.URLParam(r, "email"))
	if email == "" {
		jsonresp.Fail(w, http.StatusBadRequest, "Email is required.")
		return nil, false
	}
	u, err := userstore.New(h.DB).GetByEmail(ctx, email)
	if err != nil {
		h.ErrLog.Respond(w, r, "load user", notFound(err))
		return nil, false
	}
	return u, true
}

// HandleEdit handles PUT /super-admin/users/{email}. It edits the typed
// profile and the admin notes.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)

	var in profileInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if in.ProfilePatch.Empty() && in.AdminNotes == nil {
		jsonresp.Fail(w, http.StatusBadRequest, "No profile fields to update.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, ok := h.userByEmail(ctx, w, r)
	if !ok {
		return
	}
	in.ProfilePatch.Apply(&u.Profile)
	authn.SanitizeProfile(&u.Profile)
	if in.AdminNotes != nil {
		v := htmlsanitize.Text(*in.AdminNotes)
		in.AdminNotes = &v
		u.AdminNotes = v
	}

	if err := userstore.New(h.DB).UpdateProfile(ctx, u.ID, u.Profile, in.AdminNotes); err != nil {
		h.ErrLog.Respond(w, r, "update user profile", notFound(err))
		return
	}
	u.Notes = ""

	h.AuditLog.Admin(ctx, r, audit.EventUserUpdated, actorID, u.OrganizationID, &u.ID, map[string]string{"email": u.Email})
	names, _ := h.orgNames(ctx, []models.User{*u})
	jsonresp.Write(w, http.StatusOK, "User updated.", jsonresp.M{"user": newUserView(*u, names)})
}

// HandleRole handles PUT /super-admin/users/{email}/role. Role and
// organization change together.
func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)

	var in roleInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in.Role = normalize.Role(in.Role)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, ok := h.userByEmail(ctx, w, r)
	if !ok {
		return
	}
	if u.ID == actorID {
		jsonresp.Fail(w, http.StatusBadRequest, "You cannot change your own role.")
		return
	}
	orgID, ok := h.resolveOrg(ctx, w, r, in.Role, in.OrganizationID)
	if !ok {
		return
	}

	if err := userstore.New(h.DB).SetRole(ctx, u.ID, in.Role, orgID); err != nil {
		h.ErrLog.Respond(w, r, "set user role", notFound(err))
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventUserRoleChanged, actorID, orgID, &u.ID, map[string]string{
		"email": u.Email,
		"from":  u.Role,
		"to":    in.Role,
	})
	u.Role, u.OrganizationID = in.Role, orgID
	names, _ := h.orgNames(ctx, []models.User{*u})
	jsonresp.Write(w, http.StatusOK, "Role updated.", jsonresp.M{"user": newUserView(*u, names)})
}
