// internal/app/features/documents/download.go
package documents

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	documentstore "github.com/dalemusser/volunteerhub/internal/app/store/documents"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/blobstore"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeDownload handles GET /documents/{id}/download by redirecting to a
// short-lived link for the blob. Documents the caller's role may not see
// read as not found.
func (h *Handler) ServeDownload(w http.ResponseWriter, r *http.Request) {
	docID, orgID, ok := documentInScope(w, r)
	if !ok {
		return
	}
	role, _, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	doc, err := documentstore.New(h.DB).GetInOrg(ctx, docID, orgID)
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Document not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "load document", err, "")
		return
	}
	if !models.VisibleTo(doc.Visibility, role) {
		jsonresp.Fail(w, http.StatusNotFound, "Document not found.")
		return
	}

	link, err := h.Blobs.PresignedURL(ctx, doc.StoragePath, &blobstore.PresignOptions{
		Expires:            blobstore.DefaultLinkTTL,
		ContentDisposition: blobstore.AttachmentDisposition(doc.FileName),
		ContentType:        doc.MimeType,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "presign document", err, "Unable to prepare the download.")
		return
	}
	http.Redirect(w, r, link, http.StatusFound)
}

// FilesHandler serves the signed /files/{token} links of the local blob
// backend. No session is needed; the token is the credential.
type FilesHandler struct {
	Local *blobstore.Local
	Log   *zap.Logger
}

func NewFilesHandler(local *blobstore.Local, logger *zap.Logger) *FilesHandler {
	return &FilesHandler{Local: local, Log: logger}
}

// ServeFile handles GET /files/{token}.
func (fh *FilesHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	const invalid = "This download link is invalid or has expired."

	token, err := url.PathUnescape(chi.URLParam(r, "token"))
	if err != nil {
		jsonresp.Fail(w, http.StatusForbidden, invalid)
		return
	}
	ticket, err := fh.Local.ResolveTicket(token)
	if err != nil {
		jsonresp.Fail(w, http.StatusForbidden, invalid)
		return
	}
	full, err := fh.Local.GetFullPath(ticket.Path)
	if err != nil {
		if errors.Is(err, blobstore.ErrBadPath) {
			jsonresp.Fail(w, http.StatusForbidden, invalid)
			return
		}
		fh.Log.Error("resolve blob path", zap.Error(err))
		jsonresp.Fail(w, http.StatusInternalServerError, "An internal error occurred.")
		return
	}

	if ticket.ContentType != "" {
		w.Header().Set("Content-Type", ticket.ContentType)
	}
	if ticket.ContentDisposition != "" {
		w.Header().Set("Content-Disposition", ticket.ContentDisposition)
	}
	w.Header().Set("Cache-Control", "private, no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeFile(w, r, full)
}

// FilesRoutes mounts the signed download route, typically under "/files".
func FilesRoutes(fh *FilesHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{token}", fh.ServeFile)
	return r
}
