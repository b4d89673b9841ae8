// internal/app/features/authn/handler.go
package authn

import (
	"context"
	"errors"

	errorsfeature "github.com/dalemusser/volunteerhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/volunteerhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/auditlog"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/ratelimit"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the /auth endpoints: credential login, token refresh
// and logout, and the caller's own profile.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *errorsfeature.ErrorLogger
	AuditLog *auditlog.Logger
	Tokens   *auth.Manager
	Limiter  *ratelimit.LoginLimiter
}

// NewHandler wires the auth feature.
func NewHandler(db *mongo.Database, tokens *auth.Manager, limiter *ratelimit.LoginLimiter, errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if limiter == nil {
		limiter = ratelimit.NewLoginLimiter()
	}
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
		Tokens:   tokens,
		Limiter:  limiter,
	}
}

// UserView is the user shape returned by login and /auth/me.
type UserView struct {
	ID               string             `json:"id"`
	Email            string             `json:"email"`
	Name             string             `json:"name"`
	Role             string             `json:"role"`
	OrganizationID   string             `json:"organization_id,omitempty"`
	OrganizationName string             `json:"organization_name,omitempty"`
	Profile          models.UserProfile `json:"profile"`
	Permissions      authz.Permissions  `json:"permissions"`
}

func newUserView(u models.User, org *models.Organization) UserView {
	v := UserView{
		ID:          u.ID.Hex(),
		Email:       u.Email,
		Name:        models.DisplayName(u),
		Role:        u.Role,
		Profile:     u.Profile,
		Permissions: authz.PermissionsFor(u.Role),
	}
	if org != nil {
		v.OrganizationID = org.ID.Hex()
		v.OrganizationName = org.Name
	}
	return v
}

func sessionUser(u models.User, org *models.Organization) auth.SessionUser {
	su := auth.SessionUser{
		ID:    u.ID.Hex(),
		Email: u.Email,
		Name:  models.DisplayName(u),
		Role:  u.Role,
	}
	if org != nil {
		su.OrganizationID = org.ID.Hex()
		su.OrganizationName = org.Name
	}
	return su
}

// loadOrg returns the user's organization, or nil for super admins.
// A dangling reference reads as mongo.ErrNoDocuments.
func (h *Handler) loadOrg(ctx context.Context, u models.User) (*models.Organization, error) {
	if u.OrganizationID == nil {
		if models.RoleRequiresOrganization(u.Role) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, nil
	}
	org, err := organizationstore.New(h.DB).GetByID(ctx, *u.OrganizationID)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (h *Handler) loadSelf(ctx context.Context, id string) (*models.User, *models.Organization, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, nil, err
	}
	u, err := userstore.New(h.DB).GetByID(ctx, oid)
	if err != nil {
		return nil, nil, err
	}
	org, err := h.loadOrg(ctx, *u)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, err
	}
	return u, org, nil
}
