package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/features/authn"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	fs := FileStore{Path: filepath.Join(t.TempDir(), "nested", "session.json")}

	got, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	want := &Session{
		AccessToken:     "a",
		RefreshToken:    "r",
		AccessExpiresAt: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		UserType:        "volunteer",
		User:            authn.UserView{ID: "u1", Email: "vic@redcross.local"},
	}
	require.NoError(t, fs.Save(want))

	info, err := os.Stat(fs.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err = fs.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear(), "clearing twice is fine")
	got, err = fs.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNew_DropsCorruptSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	c, err := New("http://localhost:8080", FileStore{Path: path})
	require.NoError(t, err)
	assert.False(t, c.SignedIn())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNew_RestoresSession(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.Save(&Session{AccessToken: "a", RefreshToken: "r", UserType: "volunteer"}))

	c, err := New("http://localhost:8080", store)
	require.NoError(t, err)
	require.True(t, c.SignedIn())
	assert.Equal(t, "volunteer", c.Session().UserType)
}

func TestSession_SetTokens(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	var s Session
	assert.False(t, s.Valid())
	s.setTokens(auth.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}, now)
	assert.True(t, s.Valid())
	assert.Equal(t, now.Add(15*time.Minute), s.AccessExpiresAt)
}
