package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/dalemusser/volunteerhub/internal/app/features/documents"
	"github.com/dalemusser/volunteerhub/internal/app/system/apierr"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func TestUploadDocument_RejectedLocally(t *testing.T) {
	f := newFakeAPI(t)
	c, _ := signedIn(t, f)
	ctx := context.Background()

	tests := []struct {
		name string
		up   Upload
	}{
		{"missing title", Upload{FileName: "a.pdf", Body: bytes.NewReader(pdfBytes)}},
		{"unknown category", Upload{Title: "A", Category: "memes", Body: bytes.NewReader(pdfBytes)}},
		{"unknown visibility", Upload{Title: "A", Visibility: "public", Body: bytes.NewReader(pdfBytes)}},
		{"no body", Upload{Title: "A"}},
		{"empty file", Upload{Title: "A", ContentType: "application/pdf", Body: bytes.NewReader(nil)}},
		{"too large", Upload{Title: "A", ContentType: "application/pdf", Body: bytes.NewReader(make([]byte, models.MaxDocumentSize+1))}},
		{"zip not allowed", Upload{Title: "A", ContentType: "application/zip", Body: strings.NewReader("PK")}},
		{"sniffed html not allowed", Upload{Title: "A", Body: strings.NewReader("<!DOCTYPE html><html><body>x</body></html>")}},
		{"html declared as pdf", Upload{Title: "A", ContentType: "application/pdf", Body: strings.NewReader("<html><script>alert(1)</script></html>")}},
		{"text declared as png", Upload{Title: "A", ContentType: "image/png", Body: strings.NewReader("just some notes")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.UploadDocument(ctx, tt.up)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apierr.ErrValidation))
		})
	}
	assert.Zero(t, f.hits.Load(), "no request reaches the server")
}

func TestUploadDocument_SendsMultipart(t *testing.T) {
	f := newFakeAPI(t)
	f.allow("access-1")
	var (
		gotTitle, gotCategory, gotPinned, gotName, gotType string
		gotBody                                            []byte
	)
	f.r.Post("/documents", f.authed(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(models.MaxDocumentSize)) {
			return
		}
		gotTitle = r.FormValue("title")
		gotCategory = r.FormValue("category")
		gotPinned = r.FormValue("is_pinned")
		file, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		gotName = hdr.Filename
		gotType = hdr.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(file)

		doc := documents.DocumentView{Document: models.Document{ID: primitive.NewObjectID(), Title: gotTitle, MimeType: gotType}, PreviewKind: models.PreviewPDF}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "document": doc})
	}))
	c, _ := signedIn(t, f)

	doc, err := c.UploadDocument(context.Background(), Upload{
		FileName: `C:\Users\ada\Handbook.pdf`,
		Body:     bytes.NewReader(pdfBytes),
		Title:    "Handbook",
		Category: models.CategoryPolicy,
		IsPinned: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Handbook", doc.Title)
	assert.Equal(t, models.PreviewPDF, doc.PreviewKind)

	assert.Equal(t, "Handbook", gotTitle)
	assert.Equal(t, models.CategoryPolicy, gotCategory)
	assert.Equal(t, "true", gotPinned)
	assert.Equal(t, "Handbook.pdf", gotName)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, pdfBytes, gotBody)
}

func TestDownloadDocument_FollowsRedirect(t *testing.T) {
	f := newFakeAPI(t)
	f.allow("access-1")
	f.r.Get("/documents/{id}/download", f.authed(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/files/signed-token", http.StatusFound)
	}))
	f.r.Get("/files/{token}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="Volunteer Handbook.pdf"`)
		_, _ = w.Write(pdfBytes)
	})
	c, _ := signedIn(t, f)

	d, err := c.DownloadDocument(context.Background(), "abc")
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, "Volunteer Handbook.pdf", d.FileName)
	assert.Equal(t, "application/pdf", d.ContentType)
	body, err := io.ReadAll(d)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, body)
	assert.NoError(t, d.Close())
}

func TestDownloadDocument_ErrorStatus(t *testing.T) {
	f := newFakeAPI(t)
	f.allow("access-1")
	f.r.Get("/documents/{id}/download", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Document not found."})
	}))
	c, _ := signedIn(t, f)

	_, err := c.DownloadDocument(context.Background(), "abc")
	assert.True(t, errors.Is(err, apierr.ErrNotFound))
}

func TestPreview(t *testing.T) {
	f := newFakeAPI(t)
	c, _ := signedIn(t, f)

	docx := documents.DocumentView{Document: models.Document{
		ID:       primitive.NewObjectID(),
		MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}}
	assert.False(t, CanPreview(docx))
	_, err := c.Preview(context.Background(), docx)
	assert.ErrorIs(t, err, ErrPreviewUnavailable)
	assert.Zero(t, f.hits.Load())

	assert.True(t, CanPreview(documents.DocumentView{Document: models.Document{MimeType: "application/pdf"}}))
	assert.True(t, CanPreview(documents.DocumentView{Document: models.Document{MimeType: "image/png"}}))
}

func TestTogglePin_SendsInverse(t *testing.T) {
	f := newFakeAPI(t)
	f.allow("access-1")
	var got map[string]any
	f.r.Put("/documents/{id}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, jsonDecode(r, &got))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "document": documents.DocumentView{}})
	}))
	c, _ := signedIn(t, f)

	_, err := c.TogglePin(context.Background(), documents.DocumentView{Document: models.Document{ID: primitive.NewObjectID(), IsPinned: true}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"is_pinned": false}, got)
}
