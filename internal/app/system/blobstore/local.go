package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const ticketName = "file"

// FilesPrefix is where the local backend's signed links point.
const FilesPrefix = "/files/"

// Ticket is the payload of a signed local download link.
type Ticket struct {
	Path               string `json:"p"`
	ContentDisposition string `json:"d,omitempty"`
	ContentType        string `json:"t,omitempty"`
	ExpiresAt          int64  `json:"e"`
}

// Local stores blobs on disk.
type Local struct {
	root  string
	codec *securecookie.SecureCookie
	ttl   time.Duration
	now   func() time.Time
}

// NewLocal stores blobs under root and signs links with key.
func NewLocal(root string, key []byte, ttl time.Duration) (*Local, error) {
	if root == "" {
		return nil, errors.New("local storage path is empty")
	}
	if len(key) < 32 {
		return nil, errors.New("download signing key must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}
	codec := securecookie.New(key, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(ttl / time.Second))
	codec.MaxLength(0)
	return &Local{root: abs, codec: codec, ttl: ttl, now: time.Now}, nil
}

// GetFullPath maps a blob path to its file on disk.
func (l *Local) GetFullPath(p string) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

// Put writes r to p, replacing any existing blob atomically.
func (l *Local) Put(_ context.Context, p string, r io.Reader, _ *PutOptions) error {
	full, err := l.GetFullPath(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	tmp := filepath.Join(filepath.Dir(full), ".tmp-"+uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit blob: %w", err)
	}
	return nil
}

// Get opens the blob at p.
func (l *Local) Get(_ context.Context, p string) (io.ReadCloser, error) {
	full, err := l.GetFullPath(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes the blob at p. Missing blobs are not an error.
func (l *Local) Delete(_ context.Context, p string) error {
	full, err := l.GetFullPath(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PresignedURL returns a relative /files/{token} link carrying a signed
// ticket for p.
func (l *Local) PresignedURL(_ context.Context, p string, opts *PresignOptions) (string, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	ttl := l.ttl
	t := Ticket{Path: clean}
	if opts != nil {
		if opts.Expires > 0 && opts.Expires < ttl {
			ttl = opts.Expires
		}
		t.ContentDisposition = opts.ContentDisposition
		t.ContentType = opts.ContentType
	}
	t.ExpiresAt = l.now().Add(ttl).Unix()
	tok, err := l.codec.Encode(ticketName, t)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return FilesPrefix + url.PathEscape(tok), nil
}

// ErrTicketInvalid is returned for forged, tampered or expired tokens.
var ErrTicketInvalid = errors.New("download link is invalid or expired")

// ResolveTicket verifies a token from a /files link.
func (l *Local) ResolveTicket(token string) (Ticket, error) {
	var t Ticket
	if err := l.codec.Decode(ticketName, token, &t); err != nil {
		return Ticket{}, ErrTicketInvalid
	}
	if l.now().Unix() > t.ExpiresAt {
		return Ticket{}, ErrTicketInvalid
	}
	return t, nil
}
