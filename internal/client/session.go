package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/features/authn"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
)

// Session is the signed-in state: the token pair and the cached profile.
type Session struct {
	AccessToken     string         `json:"access_token"`
	RefreshToken    string         `json:"refresh_token"`
	AccessExpiresAt time.Time      `json:"access_expires_at"`
	UserType        string         `json:"user_type"`
	User            authn.UserView `json:"user"`
}

// Valid reports whether s holds a token pair.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}

func (s *Session) setTokens(p auth.TokenPair, now time.Time) {
	s.AccessToken = p.AccessToken
	s.RefreshToken = p.RefreshToken
	s.AccessExpiresAt = now.Add(time.Duration(p.ExpiresIn) * time.Second)
}

// SessionStore persists a Session between runs. Load returns (nil, nil)
// when nothing is stored.
type SessionStore interface {
	Load() (*Session, error)
	Save(*Session) error
	Clear() error
}

// MemoryStore keeps the session in memory only.
type MemoryStore struct {
	mu   sync.Mutex
	sess *Session
}

func (m *MemoryStore) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil, nil
	}
	cp := *m.sess
	return &cp, nil
}

func (m *MemoryStore) Save(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sess = &cp
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

// FileStore keeps the session as a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

func (f FileStore) Load() (*Session, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Save writes to a temp file and renames it over Path.
func (f FileStore) Save(s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".session-*")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
