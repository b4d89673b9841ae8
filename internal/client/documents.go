package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/dalemusser/volunteerhub/internal/app/features/documents"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/gabriel-vasile/mimetype"
)

// Upload is a file plus the metadata it is filed under. The type sent is
// sniffed from the bytes; ContentType only narrows a detected container.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader

	Title       string
	Description string
	Category    string
	Visibility  string
	IsPinned    bool
}

// DocumentUpdate changes the non-nil fields of a document.
type DocumentUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Visibility  *string `json:"visibility,omitempty"`
	IsPinned    *bool   `json:"is_pinned,omitempty"`
}

type documentBody struct {
	Document documents.DocumentView `json:"document"`
}

// ListDocuments returns the documents the caller's role may see, pinned
// first.
func (c *Client) ListDocuments(ctx context.Context) ([]documents.DocumentView, error) {
	var out struct {
		Documents []documents.DocumentView `json:"documents"`
	}
	if err := c.get(ctx, "/documents", nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// UploadDocument checks the file locally and, if it passes, uploads it.
// Files over the size limit or outside the type allow-list never reach
// the network.
func (c *Client) UploadDocument(ctx context.Context, up Upload) (*documents.DocumentView, error) {
	if strings.TrimSpace(up.Title) == "" {
		return nil, validationError("Title is required.")
	}
	if up.Category != "" && !slices.Contains(models.AllCategories, up.Category) {
		return nil, validationError("Unknown category.")
	}
	if up.Visibility != "" && !slices.Contains(models.AllVisibilities, up.Visibility) {
		return nil, validationError("Unknown visibility.")
	}
	if up.Body == nil {
		return nil, validationError(models.ErrFileEmpty.Error())
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, models.MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	ctype, err := models.CheckUpload(int64(len(data)), up.ContentType, mimetype.Detect(data).String())
	if err != nil {
		return nil, validationError(err.Error())
	}

	body, formType, err := multipartBody(up, data, ctype)
	if err != nil {
		return nil, err
	}
	req := request{
		method:      http.MethodPost,
		path:        "/documents",
		body:        body,
		contentType: formType,
		orgScoped:   true,
	}
	var out documentBody
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.Document, nil
}

func multipartBody(up Upload, data []byte, ctype string) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"title", up.Title},
		{"description", up.Description},
		{"category", up.Category},
		{"visibility", up.Visibility},
		{"is_pinned", strconv.FormatBool(up.IsPinned)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	name := path.Base(strings.ReplaceAll(up.FileName, "\\", "/"))
	if name == "." || name == "/" {
		name = "upload"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": name}))
	h.Set("Content-Type", ctype)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

// UpdateDocument edits a document's metadata.
func (c *Client) UpdateDocument(ctx context.Context, id string, upd DocumentUpdate) (*documents.DocumentView, error) {
	var out documentBody
	if err := c.sendJSON(ctx, http.MethodPut, "/documents/"+escape(id), upd, &out); err != nil {
		return nil, err
	}
	return &out.Document, nil
}

// TogglePin flips a document's pinned flag.
func (c *Client) TogglePin(ctx context.Context, doc documents.DocumentView) (*documents.DocumentView, error) {
	pinned := !doc.IsPinned
	return c.UpdateDocument(ctx, doc.ID.Hex(), DocumentUpdate{IsPinned: &pinned})
}

// DeleteDocument removes a document and its file.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/documents/"+escape(id), nil, nil)
}

// DownloadDocument fetches a document's bytes. Close the result.
func (c *Client) DownloadDocument(ctx context.Context, id string) (*Download, error) {
	return c.download(ctx, "/documents/"+escape(id)+"/download", nil)
}

// CanPreview reports whether doc can be shown inline (PDFs and images).
func CanPreview(doc documents.DocumentView) bool {
	return models.PreviewKind(doc.MimeType) != models.PreviewDownload
}

// Preview fetches doc for inline display. Other types return
// ErrPreviewUnavailable without a request. Close the result when the
// preview is dismissed.
func (c *Client) Preview(ctx context.Context, doc documents.DocumentView) (*Download, error) {
	if !CanPreview(doc) {
		return nil, ErrPreviewUnavailable
	}
	return c.DownloadDocument(ctx, doc.ID.Hex())
}

// Download is a streamed file. The caller must Close it.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	FileName    string
	Size        int64 // -1 when unknown
}

func (d *Download) Read(p []byte) (int, error) { return d.Body.Read(p) }

// Close releases the response body. It is safe to call twice.
func (d *Download) Close() error {
	if d == nil || d.Body == nil {
		return nil
	}
	err := d.Body.Close()
	if errors.Is(err, http.ErrBodyReadAfterClose) {
		return nil
	}
	return err
}

func (c *Client) download(ctx context.Context, p string, q url.Values) (*Download, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: p, query: q, orgScoped: true})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeResponse(resp, nil)
	}
	d := &Download{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.FileName = params["filename"]
	}
	return d, nil
}
