// internal/app/features/systemusers/new.go
package systemusers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleCreate handles POST /super-admin/users. It whitelists an email
// for the given role and organization.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, _ := authz.UserCtx(r)

	var in createInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in.Email = normalize.Email(in.Email)
	in.Role = normalize.Role(in.Role)
	in.Notes = htmlsanitize.Text(in.Notes)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgID, ok := h.resolveOrg(ctx, w, r, in.Role, in.OrganizationID)
	if !ok {
		return
	}

	u, err := userstore.New(h.DB).Create(ctx, models.User{
		Email:          in.Email,
		Role:           in.Role,
		OrganizationID: orgID,
		AdminNotes:     in.Notes,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		jsonresp.Fail(w, http.StatusConflict, "A user with that email already exists.")
		return
	case errors.Is(err, userstore.ErrBadRole), errors.Is(err, userstore.ErrOrgNeeded):
		jsonresp.Fail(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create user", err, "Unable to create user.")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventUserCreated, actorID, u.OrganizationID, &u.ID, map[string]string{
		"email": u.Email,
		"role":  u.Role,
	})
	names, _ := h.orgNames(ctx, []models.User{u})
	jsonresp.Created(w, "User created.", jsonresp.M{"user": newUserView(u, names)})
}

// resolveOrg checks that an organization-scoped role names an existing
// organization. Super admins never carry one.
func (h *Handler) resolveOrg(ctx context.Context, w http.ResponseWriter, r *http.Request, role, hex string) (*primitive.ObjectID, bool) {
	if !models.RoleRequiresOrganization(role) {
		return nil, true
	}
	if hex == "" {
		jsonresp.Fail(w, http.StatusBadRequest, "Organization is required for this role.")
		return nil, false
	}
	oid, _ := primitive.ObjectIDFromHex(hex)
	if _, err := organizationstore.New(h.DB).GetByID(ctx, oid); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonresp.Fail(w, http.StatusBadRequest, "Organization does not exist.")
			return nil, false
		}
		h.ErrLog.LogServerError(w, r, "load organization", err, "")
		return nil, false
	}
	return &oid, true
}
