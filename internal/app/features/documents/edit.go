// internal/app/features/documents/edit.go
package documents

import (
	"context"
	"net/http"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	documentstore "github.com/dalemusser/volunteerhub/internal/app/store/documents"
	"github.com/dalemusser/volunteerhub/internal/app/system/authz"
	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type updateInput struct {
	Title       *string `json:"title" validate:"omitempty,max=200" label:"Title"`
	Description *string `json:"description" validate:"omitempty,max=5000" label:"Description"`
	Category    *string `json:"category" validate:"omitempty,category" label:"Category"`
	Visibility  *string `json:"visibility" validate:"omitempty,visibility" label:"Visibility"`
	IsPinned    *bool   `json:"is_pinned"`
}

// HandleUpdate handles PUT /documents/{id}: metadata and the pin toggle.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	docID, orgID, ok := documentInScope(w, r)
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	var in updateInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if in.Title != nil {
		v := htmlsanitize.Text(*in.Title)
		if v == "" {
			jsonresp.Fail(w, http.StatusBadRequest, "Title is required.")
			return
		}
		in.Title = &v
	}
	if in.Description != nil {
		v := htmlsanitize.Sanitize(*in.Description)
		in.Description = &v
	}
	if in.Category != nil {
		v := normalize.Enum(*in.Category)
		in.Category = &v
	}
	if in.Visibility != nil {
		v := normalize.Enum(*in.Visibility)
		in.Visibility = &v
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	docs := documentstore.New(h.DB)
	err := docs.Update(ctx, docID, orgID, documentstore.Update{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Visibility:  in.Visibility,
		IsPinned:    in.IsPinned,
	})
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Document not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update document", err, "Unable to update document.")
		return
	}
	doc, err := docs.GetInOrg(ctx, docID, orgID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload document", err, "")
		return
	}

	h.AuditLog.Admin(ctx, r, audit.EventDocumentUpdated, actorID, &orgID, &docID, nil)
	jsonresp.Write(w, http.StatusOK, "Document updated.", jsonresp.M{"document": newDocumentView(doc)})
}

// HandleDelete handles DELETE /documents/{id}. The metadata goes first; a
// blob that cannot be removed is logged and left behind.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	docID, orgID, ok := documentInScope(w, r)
	if !ok {
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	doc, err := documentstore.New(h.DB).Delete(ctx, docID, orgID)
	if err != nil {
		if isNotFound(err) {
			jsonresp.Fail(w, http.StatusNotFound, "Document not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "delete document", err, "Unable to delete document.")
		return
	}
	if doc.StoragePath != "" {
		if err := h.Blobs.Delete(ctx, doc.StoragePath); err != nil {
			h.Log.Warn("document blob not removed",
				zap.String("document_id", docID.Hex()),
				zap.String("path", doc.StoragePath),
				zap.Error(err))
		}
	}

	h.AuditLog.Admin(ctx, r, audit.EventDocumentDeleted, actorID, &orgID, &docID, map[string]string{"title": doc.Title})
	jsonresp.Message(w, "Document deleted.")
}
