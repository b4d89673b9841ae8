// internal/domain/models/document.go
package models

import (
	"errors"
	"mime"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document categories.
const (
	CategoryGeneral    = "general"
	CategoryPolicy     = "policy"
	CategoryTraining   = "training"
	CategoryForms      = "forms"
	CategoryResources  = "resources"
	CategoryGuidelines = "guidelines"
)

// AllCategories lists every document category.
var AllCategories = []string{CategoryGeneral, CategoryPolicy, CategoryTraining, CategoryForms, CategoryResources, CategoryGuidelines}

// Document visibilities.
const (
	VisibilityAll            = "all"
	VisibilityVolunteersOnly = "volunteers_only"
	VisibilityAdminOnly      = "admin_only"
)

// AllVisibilities lists every document visibility.
var AllVisibilities = []string{VisibilityAll, VisibilityVolunteersOnly, VisibilityAdminOnly}

// Document is the metadata for an uploaded file. The bytes live in blob
// storage under StoragePath.
type Document struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Title          string             `bson:"title" json:"title"`
	TitleCI        string             `bson:"title_ci" json:"-"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Category       string             `bson:"category" json:"category"`
	Visibility     string             `bson:"visibility" json:"visibility"`
	IsPinned       bool               `bson:"is_pinned" json:"is_pinned"`

	FileName    string `bson:"file_name" json:"file_name"`
	MimeType    string `bson:"mime_type" json:"mime_type"`
	FileSize    int64  `bson:"file_size" json:"file_size"`
	StoragePath string `bson:"storage_path" json:"-"`

	UploadedBy primitive.ObjectID `bson:"uploaded_by" json:"uploaded_by"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// MaxDocumentSize is the largest upload accepted, in bytes.
const MaxDocumentSize int64 = 10 << 20

// AllowedDocumentTypes is the MIME allow-list for uploads.
var AllowedDocumentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain": true,
	"text/csv":   true,
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var (
	ErrFileEmpty          = errors.New("file is empty")
	ErrFileTooLarge       = errors.New("file exceeds the 10 MB limit")
	ErrFileTypeNotAllowed = errors.New("file type is not allowed")
	ErrFileTypeMismatch   = errors.New("file contents do not match the declared type")
)

// containerTypes maps a detected container format to the declared types it
// can legitimately carry. Office files sniff as zip or OLE; CSV often
// sniffs as plain text.
var containerTypes = map[string][]string{
	"application/zip": {
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	},
	"application/x-ole-storage": {"application/msword", "application/vnd.ms-excel"},
	"text/plain":                {"text/csv"},
}

// BaseMimeType strips parameters and lower-cases a content type.
func BaseMimeType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// ResolveUploadType decides an upload's type from its sniffed content.
// The declared type is only a hint: it may refine a detected container,
// but content that is not allow-listed, or that belongs to a different
// family than declared, is refused.
func ResolveUploadType(declared, detected string) (string, error) {
	declared, detected = BaseMimeType(declared), BaseMimeType(detected)
	if declared == "application/octet-stream" {
		declared = ""
	}
	if declared != "" && declared != detected && slices.Contains(containerTypes[detected], declared) {
		return declared, nil
	}
	if !AllowedDocumentTypes[detected] {
		return "", ErrFileTypeNotAllowed
	}
	if declared != "" && mimeFamily(declared) != mimeFamily(detected) {
		return "", ErrFileTypeMismatch
	}
	return detected, nil
}

// CheckUpload validates size, then resolves the stored type from the
// declared and sniffed ones.
func CheckUpload(size int64, declared, detected string) (string, error) {
	switch {
	case size <= 0:
		return "", ErrFileEmpty
	case size > MaxDocumentSize:
		return "", ErrFileTooLarge
	}
	return ResolveUploadType(declared, detected)
}

// mimeFamily groups text and image subtypes; other types only match
// themselves.
func mimeFamily(mt string) string {
	if major, _, ok := strings.Cut(mt, "/"); ok && (major == "text" || major == "image") {
		return major
	}
	return mt
}

// Preview kinds.
const (
	PreviewPDF      = "pdf"
	PreviewImage    = "image"
	PreviewDownload = "download"
)

// PreviewKind classifies how a document can be shown inline.
func PreviewKind(contentType string) string {
	mt := BaseMimeType(contentType)
	switch {
	case mt == "application/pdf":
		return PreviewPDF
	case strings.HasPrefix(mt, "image/"):
		return PreviewImage
	default:
		return PreviewDownload
	}
}

// VisibleTo reports whether a document with visibility v may be seen by role.
func VisibleTo(v, role string) bool {
	switch role {
	case RoleSuperAdmin, RoleNonprofitAdmin:
		return true
	default:
		return v == VisibilityAll || v == VisibilityVolunteersOnly || v == ""
	}
}

// VisibilitiesFor lists the visibilities role may list.
func VisibilitiesFor(role string) []string {
	if role == RoleSuperAdmin || role == RoleNonprofitAdmin {
		return AllVisibilities
	}
	return []string{VisibilityAll, VisibilityVolunteersOnly}
}
