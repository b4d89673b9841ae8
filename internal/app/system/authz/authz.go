// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present or the user ID is malformed it returns
// "visitor", "", NilObjectID, false, so ok=true always means a valid ID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsSuperAdmin reports whether the caller is a super admin.
func IsSuperAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleSuperAdmin
}

// IsOrgAdmin reports whether the caller administers an organization.
func IsOrgAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleNonprofitAdmin
}

// IsAdmin reports whether the caller is any kind of admin.
func IsAdmin(r *http.Request) bool {
	return IsSuperAdmin(r) || IsOrgAdmin(r)
}

// IsVolunteer reports whether the caller is a volunteer.
func IsVolunteer(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleVolunteer
}

// UserOrgID returns the caller's organization, or NilObjectID.
func UserOrgID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.OrganizationID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.OrganizationID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanAccessOrg reports whether the caller may act inside orgID. Super
// admins reach every organization; everyone else only their own.
func CanAccessOrg(r *http.Request, orgID primitive.ObjectID) bool {
	if IsSuperAdmin(r) {
		return true
	}
	own := UserOrgID(r)
	return !own.IsZero() && own == orgID
}

// Can reports whether the caller's role grants the capability picked by f.
func Can(r *http.Request, f func(Permissions) bool) bool {
	role, _, _, ok := UserCtx(r)
	return ok && f(PermissionsFor(role))
}

// ScopeOrg picks the organization a tenant-scoped request acts on. Org
// members always act on their own organization. Super admins name one
// with ?organization_id=. ok is false when no valid organization applies.
func ScopeOrg(r *http.Request) (orgID primitive.ObjectID, ok bool) {
	if IsSuperAdmin(r) {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.URL.Query().Get("organization_id")))
		if err != nil {
			return primitive.NilObjectID, false
		}
		return oid, true
	}
	own := UserOrgID(r)
	return own, !own.IsZero()
}
