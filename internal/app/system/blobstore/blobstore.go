// Package blobstore keeps uploaded document bytes outside MongoDB. The
// local backend writes under a directory and hands out signed /files
// tokens; the S3 backend stores objects in a bucket and presigns GETs.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when no object exists at a path.
var ErrNotFound = errors.New("blob not found")

// ErrBadPath is returned for paths that are empty or escape the store root.
var ErrBadPath = errors.New("invalid blob path")

// PutOptions carry object metadata.
type PutOptions struct {
	ContentType string
}

// PresignOptions shape a download link.
type PresignOptions struct {
	Expires            time.Duration
	ContentDisposition string
	ContentType        string
}

// Store is the blob backend used by the documents feature.
type Store interface {
	Put(ctx context.Context, p string, r io.Reader, opts *PutOptions) error
	Get(ctx context.Context, p string) (io.ReadCloser, error)
	Delete(ctx context.Context, p string) error
	PresignedURL(ctx context.Context, p string, opts *PresignOptions) (string, error)
}

// DefaultLinkTTL bounds how long a download link stays valid.
const DefaultLinkTTL = 15 * time.Minute

// Config selects and configures a backend.
type Config struct {
	Type       string // local | s3
	LocalPath  string
	SigningKey string
	LinkTTL    time.Duration

	S3Region string
	S3Bucket string
	S3Prefix string
}

// New builds the backend named by cfg.Type.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "local":
		return NewLocal(cfg.LocalPath, []byte(cfg.SigningKey), cfg.LinkTTL)
	case "s3":
		return NewS3(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// DocumentPath returns the key a document's bytes are stored under:
// <org hex>/<document hex><ext>.
func DocumentPath(orgHex, docHex, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(fileName, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return orgHex + "/" + docHex + ext
}

// AttachmentDisposition returns a Content-Disposition header value that
// downloads fileName.
func AttachmentDisposition(fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "download"
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", ErrBadPath
	}
	clean := path.Clean("/" + p)[1:]
	if clean == "" || clean != strings.TrimPrefix(p, "/") {
		return "", ErrBadPath
	}
	return clean, nil
}
