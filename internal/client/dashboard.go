package client

import (
	"context"
	"net/url"

	"github.com/dalemusser/volunteerhub/internal/app/features/dashboard"
)

// VolunteerDashboard loads the caller's volunteer dashboard.
func (c *Client) VolunteerDashboard(ctx context.Context) (*dashboard.VolunteerDashboard, error) {
	var out struct {
		Dashboard dashboard.VolunteerDashboard `json:"dashboard"`
	}
	if err := c.get(ctx, "/dashboard/volunteer", nil, &out); err != nil {
		return nil, err
	}
	return &out.Dashboard, nil
}

// AdminDashboard loads the organization dashboard.
func (c *Client) AdminDashboard(ctx context.Context) (*dashboard.AdminDashboard, error) {
	var out struct {
		Dashboard dashboard.AdminDashboard `json:"dashboard"`
	}
	if err := c.get(ctx, "/dashboard/admin", nil, &out); err != nil {
		return nil, err
	}
	return &out.Dashboard, nil
}

// SuperAdminDashboard loads the cross-organization dashboard.
func (c *Client) SuperAdminDashboard(ctx context.Context) (*dashboard.SuperAdminDashboard, error) {
	var out struct {
		Dashboard dashboard.SuperAdminDashboard `json:"dashboard"`
	}
	if err := c.get(ctx, "/super-admin/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out.Dashboard, nil
}

// VolunteersDirectory lists the organization's volunteers with their tallies.
func (c *Client) VolunteersDirectory(ctx context.Context) ([]dashboard.VolunteerEntry, error) {
	var out struct {
		Volunteers []dashboard.VolunteerEntry `json:"volunteers"`
	}
	if err := c.get(ctx, "/dashboard/volunteers", nil, &out); err != nil {
		return nil, err
	}
	return out.Volunteers, nil
}

// VolunteersDirectoryCSV downloads the directory as CSV. Close the result.
func (c *Client) VolunteersDirectoryCSV(ctx context.Context) (*Download, error) {
	return c.download(ctx, "/dashboard/volunteers", url.Values{"format": {"csv"}})
}
