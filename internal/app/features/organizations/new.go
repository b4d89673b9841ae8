// internal/app/features/organizations/new.go
package organizations

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/apierr"
	"github.com/dalemusser/volunteerhub/internal/app/system/authutil"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/app/system/txn"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apierr.NotFound("Organization not found.")
	}
	return err
}

// cleanContact sanitizes the optional contact fields in place.
func cleanContact(c *contactInput) {
	set := func(p **string, f func(string) string) {
		if *p != nil {
			v := f(**p)
			*p = &v
		}
	}
	set(&c.Description, htmlsanitize.Text)
	set(&c.ContactEmail, normalize.Email)
	set(&c.ContactPhone, htmlsanitize.Text)
	set(&c.Address, htmlsanitize.Text)
	set(&c.Website, strings.TrimSpace)
}

// HandleCreate handles POST /super-admin/organizations. When
// nonprofitAdminEmail is set the organization's first admin is
// whitelisted in the same transaction.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)

	var in createInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in.Name = htmlsanitize.Text(in.Name)
	in.NonprofitAdminEmail = normalize.Email(in.NonprofitAdminEmail)
	cleanContact(&in.contactInput)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, authutil.ErrPasswordTooShort) {
			jsonresp.Fail(w, http.StatusBadRequest, "Organization password must be at least 8 characters.")
			return
		}
		h.ErrLog.LogServerError(w, r, "hash organization password", err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	orgs := organizationstore.New(h.DB)
	users := userstore.New(h.DB)

	if exists, err := orgs.ExistsByNameCI(ctx, in.Name); err != nil {
		h.ErrLog.LogServerError(w, r, "check organization name", err, "")
		return
	} else if exists {
		jsonresp.Fail(w, http.StatusConflict, "An organization with that name already exists.")
		return
	}
	if in.NonprofitAdminEmail != "" {
		if _, err := users.GetByEmail(ctx, in.NonprofitAdminEmail); err == nil {
			jsonresp.Fail(w, http.StatusConflict, "A user with that email already exists.")
			return
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogServerError(w, r, "check admin email", err, "")
			return
		}
	}

	org := models.Organization{
		Name:         in.Name,
		Description:  str(in.Description),
		ContactEmail: str(in.ContactEmail),
		ContactPhone: str(in.ContactPhone),
		Address:      str(in.Address),
		Website:      str(in.Website),
		IsActive:     true,
		PasswordHash: hash,
	}
	var admin *models.User
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		if org, err = orgs.Create(ctx, org); err != nil {
			return err
		}
		if in.NonprofitAdminEmail == "" {
			return nil
		}
		u, err := users.Create(ctx, models.User{
			Email:          in.NonprofitAdminEmail,
			Role:           models.RoleNonprofitAdmin,
			OrganizationID: &org.ID,
		})
		if err != nil {
			return err
		}
		admin = &u
		return nil
	})
	switch {
	case errors.Is(err, organizationstore.ErrDuplicateOrganization):
		jsonresp.Fail(w, http.StatusConflict, "An organization with that name already exists.")
		return
	case errors.Is(err, userstore.ErrDuplicateEmail):
		jsonresp.Fail(w, http.StatusConflict, "A user with that email already exists.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create organization", err, "Unable to create organization.")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventOrgCreated, actorID, &org.ID, nil, map[string]string{"name": org.Name})
	view := OrgView{Organization: org}
	payload := jsonresp.M{}
	if admin != nil {
		view.UserCount = 1
		payload["admin"] = admin
		h.AuditLog.Admin(ctx, r, audit.EventUserCreated, actorID, &org.ID, &admin.ID, map[string]string{
			"email": admin.Email,
			"role":  admin.Role,
		})
	}
	payload["organization"] = view
	jsonresp.Created(w, "Organization created.", payload)
}
