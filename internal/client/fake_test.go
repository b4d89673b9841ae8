package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dalemusser/volunteerhub/internal/app/features/authn"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a stand-in server. Access tokens in valid are accepted;
// /auth/refresh swaps the refresh token for next.
type fakeAPI struct {
	*httptest.Server
	r *chi.Mux

	mu        sync.Mutex
	valid     map[string]bool
	refreshes atomic.Int32
	hits      atomic.Int32
	refreshOK bool
	next      auth.TokenPair
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		r:         chi.NewRouter(),
		valid:     map[string]bool{},
		refreshOK: true,
		next:      auth.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 900},
	}
	f.r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f.hits.Add(1)
			next.ServeHTTP(w, r)
		})
	})
	f.r.Post("/auth/login", f.login)
	f.r.Post("/auth/refresh", f.refresh)
	f.r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out."})
	})
	f.Server = httptest.NewServer(f.r)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) allow(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid[token] = true
}

func (f *fakeAPI) revoke(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.valid, token)
}

// authed wraps h so it answers 401 unless the bearer token is valid.
func (f *fakeAPI) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		ok := f.valid[tok]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Authentication required."})
			return
		}
		h(w, r)
	}
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.Password != "redcross123" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid email or password."})
		return
	}
	f.allow("access-1")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"user":     authn.UserView{ID: "u1", Email: in.Email, Role: models.RoleNonprofitAdmin},
		"userType": models.RoleNonprofitAdmin,
		"tokens":   auth.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 900},
	})
}

func (f *fakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	f.refreshes.Add(1)
	if !f.refreshOK {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Session expired."})
		return
	}
	f.allow(f.next.AccessToken)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tokens": f.next})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// signedIn returns a client holding the access-1/refresh-1 session.
func signedIn(t *testing.T, f *fakeAPI, opts ...Option) (*Client, *MemoryStore) {
	t.Helper()
	store := &MemoryStore{}
	require.NoError(t, store.Save(&Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		UserType:     models.RoleNonprofitAdmin,
		User:         authn.UserView{ID: "u1", Email: "admin@redcross.local"},
	}))
	c, err := New(f.URL, store, opts...)
	require.NoError(t, err)
	return c, store
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
