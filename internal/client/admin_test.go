package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/dalemusser/volunteerhub/internal/app/system/apierr"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrganization_ShortPasswordNotSent(t *testing.T) {
	f := newFakeAPI(t)
	c, _ := signedIn(t, f)

	_, err := c.CreateOrganization(context.Background(), NewOrganization{Name: "Food Bank", Password: "short"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierr.ErrValidation))

	_, err = c.CreateOrganization(context.Background(), NewOrganization{Name: " ", Password: "longenough"})
	assert.True(t, errors.Is(err, apierr.ErrValidation))
	assert.Zero(t, f.hits.Load())
}

func TestChangeOrgPassword_PreChecks(t *testing.T) {
	f := newFakeAPI(t)
	c, _ := signedIn(t, f)
	ctx := context.Background()

	assert.True(t, errors.Is(c.ChangeOrgPassword(ctx, "", "newpassword"), apierr.ErrValidation))
	assert.True(t, errors.Is(c.ChangeOrgPassword(ctx, "redcross123", "short"), apierr.ErrValidation))
	assert.Zero(t, f.hits.Load())
}

func TestRSVP_RejectsUnknownStatus(t *testing.T) {
	f := newFakeAPI(t)
	c, _ := signedIn(t, f)

	_, err := c.RSVP(context.Background(), "abc", "maybe", "")
	assert.True(t, errors.Is(err, apierr.ErrValidation))
	assert.Zero(t, f.hits.Load())
}

func TestEventUpdate_MarshalJSON(t *testing.T) {
	title := "Blood drive"
	limit := 20

	b, err := json.Marshal(EventUpdate{Title: &title, MaxVolunteers: &limit})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Blood drive","max_volunteers":20}`, string(b))

	b, err = json.Marshal(EventUpdate{MaxVolunteers: &limit, ClearMaxVolunteers: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"max_volunteers":null}`, string(b))

	b, err = json.Marshal(EventUpdate{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))
}

func TestSetOrganizationActive(t *testing.T) {
	f := newFakeAPI(t)
	f.allow("access-1")
	var got map[string]any
	f.r.Put("/super-admin/organizations/{id}/status", f.authed(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, jsonDecode(r, &got))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "is_active": false})
	}))
	c, _ := signedIn(t, f)

	require.NoError(t, c.SetOrganizationActive(context.Background(), "abc", false))
	assert.Equal(t, map[string]any{"is_active": false}, got)
}

func TestAddUser_ValidatesRole(t *testing.T) {
	f := newFakeAPI(t)
	c, _ := signedIn(t, f)

	_, err := c.AddUser(context.Background(), NewUser{Email: "x@y.org", Role: "owner"})
	assert.True(t, errors.Is(err, apierr.ErrValidation))
	_, err = c.AddUser(context.Background(), NewUser{Email: "x@y.org", Role: models.RoleVolunteer})
	assert.True(t, errors.Is(err, apierr.ErrValidation), "non super admin users need an organization")
	assert.Zero(t, f.hits.Load())
}
