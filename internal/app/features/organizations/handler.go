// internal/app/features/organizations/handler.go
package organizations

import (
	errorsfeature "github.com/dalemusser/volunteerhub/internal/app/features/errors"
	"github.com/dalemusser/volunteerhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for super-admin organization
// management.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	ErrLog   *errorsfeature.ErrorLogger
	AuditLog *auditlog.Logger
}

// NewHandler constructs a new Organizations handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}
