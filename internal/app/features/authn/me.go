// internal/app/features/authn/me.go
package authn

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeMe handles GET /auth/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, org, err := h.loadSelf(ctx, su.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.Fail(w, http.StatusUnauthorized, "Authentication required.")
		return
	}
	if err != nil {
		h.ErrLog.Respond(w, r, "me: load user", err)
		return
	}
	v := newUserView(*u, org)
	jsonresp.OK(w, jsonresp.M{"user": v, "userType": u.Role, "permissions": v.Permissions})
}

// ServeCheckEmail handles GET /auth/check-email/{email}. allowed is true
// when the email is whitelisted and its organization is active.
func (h *Handler) ServeCheckEmail(w http.ResponseWriter, r *http.Request) {
	email := normalize.Email(chi.URLParam(r, "email"))
	if email == "" {
		jsonresp.Fail(w, http.StatusBadRequest, "Email is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := userstore.New(h.DB).GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonresp.OK(w, jsonresp.M{"allowed": false})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check-email: find user", err, "")
		return
	}
	org, err := h.loadOrg(ctx, *u)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogServerError(w, r, "check-email: load organization", err, "")
		return
	}

	allowed := !models.RoleRequiresOrganization(u.Role) || (org != nil && org.IsActive)
	payload := jsonresp.M{"allowed": allowed, "role": u.Role}
	if org != nil {
		payload["organization"] = org.Name
	}
	jsonresp.OK(w, payload)
}

// HandleUpdateProfile handles PUT /auth/profile. Only the fields present
// in the body change.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	var patch models.ProfilePatch
	if err := jsonresp.Decode(w, r, &patch); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if patch.Empty() {
		jsonresp.Fail(w, http.StatusBadRequest, "No profile fields to update.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, org, err := h.loadSelf(ctx, su.ID)
	if err != nil {
		h.ErrLog.Respond(w, r, "profile: load user", err)
		return
	}
	patch.Apply(&u.Profile)
	SanitizeProfile(&u.Profile)

	if err := userstore.New(h.DB).UpdateProfile(ctx, u.ID, u.Profile, nil); err != nil {
		h.ErrLog.LogServerError(w, r, "profile: update", err, "Unable to update profile.")
		return
	}
	jsonresp.Write(w, http.StatusOK, "Profile updated.", jsonresp.M{"user": newUserView(*u, org)})
}

// SanitizeProfile strips markup from every profile field.
func SanitizeProfile(p *models.UserProfile) {
	for _, f := range []*string{&p.FirstName, &p.LastName, &p.Phone, &p.Address, &p.Birthday, &p.EmergencyContact, &p.Skills, &p.Availability} {
		*f = htmlsanitize.Text(*f)
	}
}
