// internal/app/features/organizations/types.go
package organizations

import (
	"github.com/dalemusser/volunteerhub/internal/domain/models"
)

// OrgView is an organization with its roll-up counts.
type OrgView struct {
	models.Organization
	models.OrganizationCounts
}

// contactInput is shared by create and update.
type contactInput struct {
	Description  *string `json:"description" validate:"omitempty,max=2000" label:"Description"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,mailaddr" label:"Contact email"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,max=50" label:"Contact phone"`
	Address      *string `json:"address" validate:"omitempty,max=500" label:"Address"`
	Website      *string `json:"website" validate:"omitempty,httpurl" label:"Website"`
}

type createInput struct {
	Name                string `json:"name" validate:"required,max=200" label:"Organization name"`
	Password            string `json:"password" validate:"required,min=8,max=128" label:"Organization password"`
	NonprofitAdminEmail string `json:"nonprofitAdminEmail" validate:"omitempty,mailaddr" label:"Admin email"`
	contactInput
}

type updateInput struct {
	Name     *string `json:"name" validate:"omitempty,max=200" label:"Organization name"`
	Password *string `json:"password" validate:"omitempty,min=8,max=128" label:"Organization password"`
	contactInput
}

type statusInput struct {
	IsActive *bool `json:"is_active" validate:"required" label:"Active"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
