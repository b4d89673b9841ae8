// internal/app/features/dashboard/handler.go
package dashboard

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/volunteerhub/internal/app/features/errors"
	"github.com/dalemusser/volunteerhub/internal/app/system/apierr"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Number of items in each "recent" and "upcoming" list.
const listSize = 5

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *errorsfeature.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errLog,
	}
}

// ServeDashboard handles GET /dashboard and answers with the caller's
// role dashboard.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		jsonresp.Fail(w, http.StatusUnauthorized, "Authentication required.")
		return
	}

	switch role {
	case models.RoleSuperAdmin:
		h.ServeSuperAdmin(w, r)
	case models.RoleNonprofitAdmin:
		h.ServeAdmin(w, r)
	case models.RoleVolunteer:
		h.ServeVolunteer(w, r)
	default:
		jsonresp.Fail(w, http.StatusForbidden, "You do not have access to this page.")
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apierr.NotFound("Organization not found.")
	}
	return err
}
