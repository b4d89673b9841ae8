// internal/domain/models/roles.go
package models

import "strings"

// Roles recognized by the system. A user's role decides which dashboard
// root they land on and which capabilities they hold.
const (
	RoleSuperAdmin     = "super_admin"
	RoleNonprofitAdmin = "nonprofit_admin"
	RoleVolunteer      = "volunteer"
)

// AllRoles lists every role in display order.
var AllRoles = []string{RoleSuperAdmin, RoleNonprofitAdmin, RoleVolunteer}

// IsValidRole reports whether s names a known role (case-insensitive).
func IsValidRole(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllRoles {
		if r == s {
			return true
		}
	}
	return false
}

// RoleRequiresOrganization reports whether users with role must belong to
// an organization. Only super admins float above tenants.
func RoleRequiresOrganization(role string) bool {
	return role != RoleSuperAdmin
}
