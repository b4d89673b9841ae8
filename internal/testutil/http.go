package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// SuperAdminUser returns a session user with the super_admin role.
func SuperAdminUser() *auth.SessionUser {
	return &auth.SessionUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  "Test Super Admin",
		Email: "super@test.local",
		Role:  models.RoleSuperAdmin,
	}
}

// OrgAdminUser returns a session user administering org.
func OrgAdminUser(org models.Organization) *auth.SessionUser {
	return &auth.SessionUser{
		ID:               primitive.NewObjectID().Hex(),
		Name:             "Test Admin",
		Email:            "admin@test.local",
		Role:             models.RoleNonprofitAdmin,
		OrganizationID:   org.ID.Hex(),
		OrganizationName: org.Name,
	}
}

// VolunteerUser returns a session user volunteering for org.
func VolunteerUser(org models.Organization) *auth.SessionUser {
	return &auth.SessionUser{
		ID:               primitive.NewObjectID().Hex(),
		Name:             "Test Volunteer",
		Email:            "volunteer@test.local",
		Role:             models.RoleVolunteer,
		OrganizationID:   org.ID.Hex(),
		OrganizationName: org.Name,
	}
}

// SessionFor builds the session user for a stored user.
func SessionFor(u models.User, org *models.Organization) *auth.SessionUser {
	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  models.DisplayName(u),
		Email: u.Email,
		Role:  u.Role,
	}
	if org != nil {
		su.OrganizationID = org.ID.Hex()
		su.OrganizationName = org.Name
	}
	return su
}

// AsUser attaches su to the request context.
func AsUser(r *http.Request, su *auth.SessionUser) *http.Request {
	return auth.WithTestUser(r, su)
}

// DecodeJSON decodes the recorder body into a generic map.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
