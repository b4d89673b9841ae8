// internal/app/features/systemusers/types.go
package systemusers

import (
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserView is a user as the super admin sees it.
type UserView struct {
	models.User
	Name             string `json:"name"`
	OrganizationName string `json:"organization_name,omitempty"`
}

func newUserView(u models.User, orgNames map[primitive.ObjectID]string) UserView {
	v := UserView{User: u, Name: models.DisplayName(u)}
	if u.OrganizationID != nil {
		v.OrganizationName = orgNames[*u.OrganizationID]
	}
	return v
}

type createInput struct {
	Email          string `json:"email" validate:"required,mailaddr" label:"Email"`
	OrganizationID string `json:"organizationId" validate:"omitempty,objectid" label:"Organization"`
	Role           string `json:"role" validate:"required,role" label:"Role"`
	Notes          string `json:"notes" validate:"max=5000" label:"Notes"`
}

// profileInput is the profile patch plus the admin-only notes. Nil
// fields are left unchanged.
type profileInput struct {
	models.ProfilePatch
	AdminNotes *string `json:"admin_notes" validate:"omitempty,max=5000" label:"Admin notes"`
}

type roleInput struct {
	Role           string `json:"role" validate:"required,role" label:"Role"`
	OrganizationID string `json:"organizationId" validate:"omitempty,objectid" label:"Organization"`
}
