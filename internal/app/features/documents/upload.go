// internal/app/features/documents/upload.go
package documents

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	documentstore "github.com/dalemusser/volunteerhub/internal/app/store/documents"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/blobstore"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/gabriel-vasile/mimetype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// formOverhead is the slack allowed above the file size for the other
// multipart fields.
const formOverhead = 1 << 20

type uploadInput struct {
	Title       string `validate:"required,max=200" label:"Title"`
	Description string `validate:"max=5000" label:"Description"`
	Category    string `validate:"omitempty,category" label:"Category"`
	Visibility  string `validate:"omitempty,visibility" label:"Visibility"`
}

// UploadErrorMessage turns a models.CheckUpload error into a user
// message.
func UploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrFileEmpty):
		return "The file is empty."
	case errors.Is(err, models.ErrFileTooLarge):
		return "File size must be less than 10MB."
	case errors.Is(err, models.ErrFileTypeNotAllowed):
		return "File type not allowed. Upload a PDF, Word, Excel, text or image file."
	case errors.Is(err, models.ErrFileTypeMismatch):
		return "The file's contents do not match its type."
	default:
		return "Invalid file."
	}
}

// detectType sniffs the file's leading bytes and rewinds it.
func detectType(f multipart.File) (string, error) {
	m, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return m.String(), nil
}

// HandleUpload handles POST /documents (multipart: file, title,
// description, category, visibility, is_pinned).
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	orgID, ok := authz.ScopeOrg(r)
	if !ok {
		jsonresp.Fail(w, http.StatusBadRequest, "organization_id is required.")
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	limit := h.maxUpload()
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)
	if err := r.ParseMultipartForm(limit + formOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonresp.Fail(w, http.StatusRequestEntityTooLarge, UploadErrorMessage(models.ErrFileTooLarge))
			return
		}
		jsonresp.Fail(w, http.StatusBadRequest, "Expected a multipart form upload.")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "A file is required.")
		return
	}
	defer file.Close()

	in := uploadInput{
		Title:       htmlsanitize.Text(r.FormValue("title")),
		Description: htmlsanitize.Sanitize(r.FormValue("description")),
		Category:    normalize.Enum(r.FormValue("category")),
		Visibility:  normalize.Enum(r.FormValue("visibility")),
	}
	if in.Title == "" {
		in.Title = htmlsanitize.Text(header.Filename)
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}
	pinned, _ := strconv.ParseBool(strings.TrimSpace(r.FormValue("is_pinned")))

	detected, err := detectType(file)
	if err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Unable to read the uploaded file.")
		return
	}
	contentType, err := models.CheckUpload(header.Size, header.Header.Get("Content-Type"), detected)
	if err != nil {
		h.Log.Info("upload refused",
			zap.String("declared", header.Header.Get("Content-Type")),
			zap.String("detected", detected),
			zap.Error(err))
		jsonresp.Fail(w, http.StatusBadRequest, UploadErrorMessage(err))
		return
	}
	if header.Size > limit {
		jsonresp.Fail(w, http.StatusBadRequest, UploadErrorMessage(models.ErrFileTooLarge))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	doc := models.Document{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		Visibility:     in.Visibility,
		IsPinned:       pinned,
		FileName:       header.Filename,
		MimeType:       contentType,
		FileSize:       header.Size,
		UploadedBy:     actorID,
	}
	doc.StoragePath = blobstore.DocumentPath(orgID.Hex(), doc.ID.Hex(), header.Filename)

	if err := h.Blobs.Put(ctx, doc.StoragePath, file, &blobstore.PutOptions{ContentType: contentType}); err != nil {
		h.ErrLog.LogServerError(w, r, "store document blob", err, "Unable to store the file.")
		return
	}
	saved, err := documentstore.New(h.DB).Create(ctx, doc)
	if err != nil {
		if derr := h.Blobs.Delete(context.WithoutCancel(ctx), doc.StoragePath); derr != nil {
			h.Log.Warn("orphaned document blob", zap.String("path", doc.StoragePath), zap.Error(derr))
		}
		h.ErrLog.LogServerError(w, r, "create document", err, "Unable to save the document.")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventDocumentUploaded, actorID, &orgID, &saved.ID, map[string]string{
		"title":     saved.Title,
		"file_name": saved.FileName,
	})
	jsonresp.Created(w, "Document uploaded.", jsonresp.M{"document": newDocumentView(saved)})
}
