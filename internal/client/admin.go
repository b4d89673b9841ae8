package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/volunteerhub/internal/app/features/organizations"
	"github.com/dalemusser/volunteerhub/internal/app/features/systemusers"
	"github.com/dalemusser/volunteerhub/internal/app/system/authutil"
	"github.com/dalemusser/volunteerhub/internal/app/system/paging"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
)

// NewOrganization is the body of CreateOrganization. When
// NonprofitAdminEmail is set the organization's first admin is created
// with it.
type NewOrganization struct {
	Name                string `json:"name"`
	Password            string `json:"password"`
	NonprofitAdminEmail string `json:"nonprofitAdminEmail,omitempty"`
	Description         string `json:"description,omitempty"`
	ContactEmail        string `json:"contact_email,omitempty"`
	ContactPhone        string `json:"contact_phone,omitempty"`
	Address             string `json:"address,omitempty"`
	Website             string `json:"website,omitempty"`
}

// OrganizationUpdate changes the non-nil fields of an organization.
// A non-nil Password replaces the shared password.
type OrganizationUpdate struct {
	Name         *string `json:"name,omitempty"`
	Password     *string `json:"password,omitempty"`
	Description  *string `json:"description,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	Website      *string `json:"website,omitempty"`
}

// CreatedOrganization is the new organization and, if provisioned, its admin.
type CreatedOrganization struct {
	Organization organizations.OrgView `json:"organization"`
	Admin        *models.User          `json:"admin,omitempty"`
}

type orgBody struct {
	Organization organizations.OrgView `json:"organization"`
}

// ListOrganizations returns every organization with its counts. status
// is "", "active" or "inactive".
func (c *Client) ListOrganizations(ctx context.Context, status string) ([]organizations.OrgView, error) {
	var out struct {
		Organizations []organizations.OrgView `json:"organizations"`
	}
	if err := c.get(ctx, "/super-admin/organizations", url.Values{"status": {status}}, &out); err != nil {
		return nil, err
	}
	return out.Organizations, nil
}

// GetOrganization returns one organization.
func (c *Client) GetOrganization(ctx context.Context, id string) (*organizations.OrgView, error) {
	var out orgBody
	if err := c.get(ctx, "/super-admin/organizations/"+escape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Organization, nil
}

// CreateOrganization creates an organization. A short password is
// rejected before any request is sent.
func (c *Client) CreateOrganization(ctx context.Context, in NewOrganization) (*CreatedOrganization, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationError("Organization name is required.")
	}
	if len(in.Password) < authutil.MinPasswordLength {
		return nil, validationError("Organization password must be at least 8 characters.")
	}
	var out CreatedOrganization
	if err := c.sendJSON(ctx, http.MethodPost, "/super-admin/organizations", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrganization edits an organization.
func (c *Client) UpdateOrganization(ctx context.Context, id string, upd OrganizationUpdate) (*organizations.OrgView, error) {
	if upd.Password != nil && len(*upd.Password) < authutil.MinPasswordLength {
		return nil, validationError("Organization password must be at least 8 characters.")
	}
	var out orgBody
	if err := c.sendJSON(ctx, http.MethodPut, "/super-admin/organizations/"+escape(id), upd, &out); err != nil {
		return nil, err
	}
	return &out.Organization, nil
}

// SetOrganizationActive activates or deactivates an organization.
// Organizations are never deleted.
func (c *Client) SetOrganizationActive(ctx context.Context, id string, active bool) error {
	return c.sendJSON(ctx, http.MethodPut, "/super-admin/organizations/"+escape(id)+"/status", map[string]bool{"is_active": active}, nil)
}

// UserFilter narrows ListUsers. Query matches an email prefix.
type UserFilter struct {
	OrganizationID string
	Role           string
	Query          string

	After  string
	Before string
	Limit  int
}

// UserPage is one page of users.
type UserPage struct {
	Users []systemusers.UserView `json:"users"`
	Total int64                  `json:"total"`
	Page  paging.Page            `json:"page"`
}

// NewUser is the body of AddUser. Notes are stored as admin notes.
type NewUser struct {
	Email          string `json:"email"`
	OrganizationID string `json:"organizationId,omitempty"`
	Role           string `json:"role"`
	Notes          string `json:"notes,omitempty"`
}

// UserProfileUpdate is the comprehensive admin edit of a user.
type UserProfileUpdate struct {
	models.ProfilePatch
	AdminNotes *string `json:"admin_notes,omitempty"`
}

type userBody struct {
	User systemusers.UserView `json:"user"`
}

// ListUsers returns one page of users across all organizations.
func (c *Client) ListUsers(ctx context.Context, f UserFilter) (*UserPage, error) {
	q := url.Values{
		"organization_id": {f.OrganizationID},
		"role":            {f.Role},
		"q":               {f.Query},
		"after":           {f.After},
		"before":          {f.Before},
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var out UserPage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/super-admin/users", query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddUser whitelists an email in an organization with a role.
func (c *Client) AddUser(ctx context.Context, in NewUser) (*systemusers.UserView, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, validationError("Email is required.")
	}
	if !models.IsValidRole(in.Role) {
		return nil, validationError("Unknown role.")
	}
	if models.RoleRequiresOrganization(in.Role) && in.OrganizationID == "" {
		return nil, validationError("Organization is required for this role.")
	}
	var out userBody
	if err := c.sendJSON(ctx, http.MethodPost, "/super-admin/users", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateUserProfile edits another user's profile and admin notes.
func (c *Client) UpdateUserProfile(ctx context.Context, email string, upd UserProfileUpdate) (*systemusers.UserView, error) {
	if upd.ProfilePatch.Empty() && upd.AdminNotes == nil {
		return nil, validationError("Nothing to update.")
	}
	var out userBody
	if err := c.sendJSON(ctx, http.MethodPut, "/super-admin/users/"+escape(email), upd, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateUserRole changes a user's role and organization together.
func (c *Client) UpdateUserRole(ctx context.Context, email, role, organizationID string) (*systemusers.UserView, error) {
	if !models.IsValidRole(role) {
		return nil, validationError("Unknown role.")
	}
	var out userBody
	err := c.sendJSON(ctx, http.MethodPut, "/super-admin/users/"+escape(email)+"/role", map[string]string{
		"role":           role,
		"organizationId": organizationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// RemovedUser counts what went with a deleted user.
type RemovedUser struct {
	DeletedAssignments int64 `json:"deleted_assignments"`
	DeletedRSVPs       int64 `json:"deleted_rsvps"`
}

// RemoveUser permanently deletes a user with their assignments and RSVPs.
func (c *Client) RemoveUser(ctx context.Context, email string) (*RemovedUser, error) {
	var out RemovedUser
	if err := c.sendJSON(ctx, http.MethodDelete, "/super-admin/users/"+escape(email), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
