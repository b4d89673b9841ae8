package documents_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/dalemusser/volunteerhub/internal/app/features/documents"
	errorsfeature "github.com/dalemusser/volunteerhub/internal/app/features/errors"
	documentstore "github.com/dalemusser/volunteerhub/internal/app/store/documents"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/app/system/blobstore"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/volunteerhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const signingKey = "0123456789abcdef0123456789abcdef"

type harness struct {
	h     *documents.Handler
	local *blobstore.Local
	fx    *testutil.Fixtures
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	local, err := blobstore.NewLocal(t.TempDir(), []byte(signingKey), 0)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	h := documents.NewHandler(db, local, errorsfeature.NewErrorLogger(logger), nil, logger)
	return harness{h: h, local: local, fx: testutil.NewFixtures(t, db)}
}

type part struct {
	name, contentType string
	data              []byte
}

func uploadReq(t *testing.T, fields map[string]string, file *part, su *auth.SessionUser) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+file.name+`"`)
		if file.contentType != "" {
			hdr.Set("Content-Type", file.contentType)
		}
		pw, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := pw.Write(file.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.AsUser(req, su)
}

func decodeDoc(t *testing.T, rec *httptest.ResponseRecorder) documents.DocumentView {
	t.Helper()
	var out struct {
		Document documents.DocumentView `json:"document"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out.Document
}

func TestUploadDownloadDelete(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := hs.fx.CreateOrganization(ctx, "Food Bank")
	admin := hs.fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	su := testutil.SessionFor(admin, &org)

	content := []byte("%PDF-1.4 handbook")
	rec := httptest.NewRecorder()
	hs.h.HandleUpload(rec, uploadReq(t, map[string]string{
		"title":      "Handbook",
		"category":   "policy",
		"visibility": "volunteers_only",
		"is_pinned":  "true",
	}, &part{name: "handbook.pdf", contentType: "application/pdf", data: content}, su))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	doc := decodeDoc(t, rec)
	if !doc.IsPinned || doc.Category != models.CategoryPolicy || doc.FileSize != int64(len(content)) {
		t.Errorf("doc = %+v", doc)
	}
	if doc.PreviewKind != models.PreviewPDF {
		t.Errorf("preview kind = %q", doc.PreviewKind)
	}

	// download redirects to a signed /files link
	req := testutil.WithChiURLParam(testutil.AsUser(httptest.NewRequest("GET", "/", nil), su), "id", doc.ID.Hex())
	rec = httptest.NewRecorder()
	hs.h.ServeDownload(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("download status = %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, blobstore.FilesPrefix) {
		t.Fatalf("location = %q", loc)
	}

	files := chi.NewRouter()
	files.Mount("/files", documents.FilesRoutes(documents.NewFilesHandler(hs.local, zap.NewNop())))
	rec = httptest.NewRecorder()
	files.ServeHTTP(rec, httptest.NewRequest("GET", loc, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("files status = %d, body %s", rec.Code, rec.Body.String())
	}
	body, _ := io.ReadAll(rec.Body)
	if !bytes.Equal(body, content) {
		t.Errorf("served %q", body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "handbook.pdf") {
		t.Errorf("disposition = %q", cd)
	}

	// delete removes metadata and blob
	req = testutil.WithChiURLParam(testutil.AsUser(httptest.NewRequest("DELETE", "/", nil), su), "id", doc.ID.Hex())
	rec = httptest.NewRecorder()
	hs.h.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	path := blobstore.DocumentPath(org.ID.Hex(), doc.ID.Hex(), "handbook.pdf")
	if _, err := hs.local.Get(ctx, path); err != blobstore.ErrNotFound {
		t.Errorf("blob get after delete: %v", err)
	}
}

func TestUpload_Rejections(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := hs.fx.CreateOrganization(ctx, "Food Bank")
	su := testutil.OrgAdminUser(org)
	hs.h.MaxUpload = 16

	cases := []struct {
		name   string
		fields map[string]string
		file   *part
	}{
		{"no file", map[string]string{"title": "x"}, nil},
		{"empty", map[string]string{"title": "x"}, &part{"a.txt", "text/plain", nil}},
		{"too large", map[string]string{"title": "x"}, &part{"a.txt", "text/plain", bytes.Repeat([]byte("a"), 32)}},
		{"bad type", map[string]string{"title": "x"}, &part{"a.exe", "application/x-msdownload", []byte("MZ")}},
		{"bad category", map[string]string{"title": "x", "category": "misc"}, &part{"a.txt", "text/plain", []byte("hi")}},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		hs.h.HandleUpload(rec, uploadReq(t, tc.fields, tc.file, su))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400 (%s)", tc.name, rec.Code, rec.Body.String())
		}
	}
}

func TestUpload_SniffsGenericType(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := hs.fx.CreateOrganization(ctx, "Food Bank")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	rec := httptest.NewRecorder()
	hs.h.HandleUpload(rec, uploadReq(t, nil, &part{"logo.png", "application/octet-stream", png}, testutil.OrgAdminUser(org)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	doc := decodeDoc(t, rec)
	if doc.MimeType != "image/png" || doc.PreviewKind != models.PreviewImage {
		t.Errorf("mime = %q preview = %q", doc.MimeType, doc.PreviewKind)
	}
	if doc.Title != "logo.png" {
		t.Errorf("title defaulted to %q", doc.Title)
	}
}

func TestUpload_DeclaredTypeMustMatchContent(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := hs.fx.CreateOrganization(ctx, "Food Bank")
	su := testutil.OrgAdminUser(org)

	rejected := []*part{
		{"flyer.pdf", "application/pdf", []byte("<html><body><script>alert(1)</script></body></html>")},
		{"logo.png", "image/png", []byte("<svg xmlns=\"http://www.w3.org/2000/svg\"><script>x()</script></svg>")},
		{"notes.pdf", "application/pdf", []byte("plain notes, not a pdf")},
	}
	for _, p := range rejected {
		rec := httptest.NewRecorder()
		hs.h.HandleUpload(rec, uploadReq(t, map[string]string{"title": p.name}, p, su))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400 (%s)", p.name, rec.Code, rec.Body.String())
		}
	}

	// a family match keeps the sniffed type
	csv := []byte("name,hours\nAnn,4\nBob,2\n")
	rec := httptest.NewRecorder()
	hs.h.HandleUpload(rec, uploadReq(t, map[string]string{"title": "Hours"}, &part{"hours.csv", "text/csv", csv}, su))
	if rec.Code != http.StatusCreated {
		t.Fatalf("csv: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if doc := decodeDoc(t, rec); doc.MimeType != "text/csv" {
		t.Errorf("csv stored as %q", doc.MimeType)
	}
}

func TestList_VisibilityByRole(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := hs.fx.CreateOrganization(ctx, "Food Bank")
	admin := hs.fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	vol := hs.fx.CreateVolunteer(ctx, "ann@food.org", "Ann", "Lee", org.ID)
	hs.fx.CreateDocument(ctx, "Public", models.VisibilityAll, org.ID, admin.ID)
	hs.fx.CreateDocument(ctx, "Volunteers", models.VisibilityVolunteersOnly, org.ID, admin.ID)
	secret := hs.fx.CreateDocument(ctx, "Board", models.VisibilityAdminOnly, org.ID, admin.ID)

	count := func(su *auth.SessionUser) int {
		rec := httptest.NewRecorder()
		hs.h.ServeList(rec, testutil.AsUser(httptest.NewRequest("GET", "/documents", nil), su))
		var out struct {
			Documents []documents.DocumentView `json:"documents"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatal(err)
		}
		return len(out.Documents)
	}
	if n := count(testutil.SessionFor(admin, &org)); n != 3 {
		t.Errorf("admin sees %d, want 3", n)
	}
	if n := count(testutil.SessionFor(vol, &org)); n != 2 {
		t.Errorf("volunteer sees %d, want 2", n)
	}

	req := testutil.WithChiURLParam(testutil.AsUser(httptest.NewRequest("GET", "/", nil), testutil.SessionFor(vol, &org)), "id", secret.ID.Hex())
	rec := httptest.NewRecorder()
	hs.h.ServeDownload(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("volunteer download of admin_only: %d, want 404", rec.Code)
	}
}

func TestUpdate_PinToggle(t *testing.T) {
	hs := newHarness(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := hs.fx.CreateOrganization(ctx, "Food Bank")
	admin := hs.fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	doc := hs.fx.CreateDocument(ctx, "Handbook", models.VisibilityAll, org.ID, admin.ID)

	body := strings.NewReader(`{"is_pinned": true, "visibility": "admin_only"}`)
	req := testutil.AsUser(httptest.NewRequest("PUT", "/", body), testutil.SessionFor(admin, &org))
	rec := httptest.NewRecorder()
	hs.h.HandleUpdate(rec, testutil.WithChiURLParam(req, "id", doc.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got, err := documentstore.New(hs.fx.DB()).GetInOrg(ctx, doc.ID, org.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsPinned || got.Visibility != models.VisibilityAdminOnly || got.Title != "Handbook" {
		t.Errorf("got %+v", got)
	}
}

func TestFiles_RejectsForgedToken(t *testing.T) {
	hs := newHarness(t)
	files := chi.NewRouter()
	files.Mount("/files", documents.FilesRoutes(documents.NewFilesHandler(hs.local, zap.NewNop())))
	rec := httptest.NewRecorder()
	files.ServeHTTP(rec, httptest.NewRequest("GET", "/files/not-a-token", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
