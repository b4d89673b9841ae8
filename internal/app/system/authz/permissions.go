package authz

import "github.com/dalemusser/volunteerhub/internal/domain/models"

// Permissions is the fixed capability table for a role. There are no
// per-resource grants; organization scoping is applied separately.
type Permissions struct {
	CanManageOrganization   bool `json:"canManageOrganization"`
	CanManageUsers          bool `json:"canManageUsers"`
	CanAssignTasks          bool `json:"canAssignTasks"`
	CanCompleteTasks        bool `json:"canCompleteTasks"`
	CanUploadDocuments      bool `json:"canUploadDocuments"`
	CanCreateEvents         bool `json:"canCreateEvents"`
	CanRSVP                 bool `json:"canRSVP"`
	CanViewAllOrganizations bool `json:"canViewAllOrganizations"`
	CanUpdateProfile        bool `json:"canUpdateProfile"`
	CanExportReports        bool `json:"canExportReports"`
}

var permissionTable = map[string]Permissions{
	models.RoleSuperAdmin: {
		CanManageOrganization:   true,
		CanManageUsers:          true,
		CanAssignTasks:          true,
		CanUploadDocuments:      true,
		CanCreateEvents:         true,
		CanViewAllOrganizations: true,
		CanUpdateProfile:        true,
		CanExportReports:        true,
	},
	models.RoleNonprofitAdmin: {
		CanManageOrganization: true,
		CanManageUsers:        true,
		CanAssignTasks:        true,
		CanUploadDocuments:    true,
		CanCreateEvents:       true,
		CanRSVP:               true,
		CanUpdateProfile:      true,
		CanExportReports:      true,
	},
	models.RoleVolunteer: {
		CanCompleteTasks: true,
		CanRSVP:          true,
		CanUpdateProfile: true,
	},
}

// PermissionsFor returns the capabilities of role. Unknown roles get none.
func PermissionsFor(role string) Permissions {
	return permissionTable[role]
}
