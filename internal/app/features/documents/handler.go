// internal/app/features/documents/handler.go
package documents

import (
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/volunteerhub/internal/app/features/errors"
	"github.com/dalemusser/volunteerhub/internal/app/system/auditlog"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/blobstore"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves document metadata and hands out download links for the
// bytes kept in Blobs.
type Handler struct {
	DB       *mongo.Database
	Blobs    blobstore.Store
	Log      *zap.Logger
	ErrLog   *errorsfeature.ErrorLogger
	AuditLog *auditlog.Logger

	// MaxUpload caps uploads in bytes. Zero means models.MaxDocumentSize.
	MaxUpload int64
}

func NewHandler(db *mongo.Database, blobs blobstore.Store, errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Blobs:    blobs,
		Log:      logger,
		ErrLog:   errLog,
		AuditLog: audit,
	}
}

func (h *Handler) maxUpload() int64 {
	if h.MaxUpload > 0 && h.MaxUpload < models.MaxDocumentSize {
		return h.MaxUpload
	}
	return models.MaxDocumentSize
}

// DocumentView adds the preview classification to a document.
type DocumentView struct {
	models.Document
	PreviewKind string `json:"preview_kind"`
}

func newDocumentView(d models.Document) DocumentView {
	return DocumentView{Document: d, PreviewKind: models.PreviewKind(d.MimeType)}
}

func documentInScope(w http.ResponseWriter, r *http.Request) (docID, orgID primitive.ObjectID, ok bool) {
	orgID, ok = authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	docID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid document ID.")
		return docID, orgID, false
	}
	return docID, orgID, true
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
