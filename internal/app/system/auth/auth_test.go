package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret-must-be-32-chars-long!!"

func newTestManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager(testSecret, time.Minute, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	return m
}

type stubFetcher struct {
	users map[string]*auth.SessionUser
}

func (s stubFetcher) FetchUser(_ context.Context, id string) *auth.SessionUser {
	return s.users[id]
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewManager_EmptySecret(t *testing.T) {
	if _, err := auth.NewManager("", time.Minute, time.Hour, zap.NewNop()); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestIssueAndParse(t *testing.T) {
	m := newTestManager(t)
	pair, err := m.Issue(auth.SessionUser{ID: "u1", Email: "a@x.org", Role: "volunteer", OrganizationID: "o1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.ExpiresIn != 60 {
		t.Errorf("ExpiresIn = %d, want 60", pair.ExpiresIn)
	}
	if pair.RefreshID == "" {
		t.Error("RefreshID should be set")
	}

	ac, err := m.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if ac.Subject != "u1" || ac.Role != "volunteer" || ac.OrgID != "o1" {
		t.Errorf("claims = %+v", ac)
	}

	rc, err := m.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if rc.ID != pair.RefreshID {
		t.Errorf("refresh jti = %q, want %q", rc.ID, pair.RefreshID)
	}
}

func TestParse_WrongType(t *testing.T) {
	m := newTestManager(t)
	pair, _ := m.Issue(auth.SessionUser{ID: "u1"})

	if _, err := m.ParseAccess(pair.RefreshToken); !errors.Is(err, auth.ErrWrongTokenType) {
		t.Errorf("ParseAccess(refresh) = %v, want ErrWrongTokenType", err)
	}
	if _, err := m.ParseRefresh(pair.AccessToken); !errors.Is(err, auth.ErrWrongTokenType) {
		t.Errorf("ParseRefresh(access) = %v, want ErrWrongTokenType", err)
	}
}

func TestParse_OtherSecret(t *testing.T) {
	m := newTestManager(t)
	other, _ := auth.NewManager("a-completely-different-secret-value!!", time.Minute, time.Hour, zap.NewNop())
	pair, _ := other.Issue(auth.SessionUser{ID: "u1"})

	if _, err := m.ParseAccess(pair.AccessToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("ParseAccess() = %v, want ErrInvalidToken", err)
	}
}

func TestParse_Expired(t *testing.T) {
	m, _ := auth.NewManager(testSecret, time.Millisecond, time.Millisecond, zap.NewNop())
	pair, _ := m.Issue(auth.SessionUser{ID: "u1"})
	time.Sleep(1100 * time.Millisecond)

	if _, err := m.ParseAccess(pair.AccessToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("ParseAccess(expired) = %v, want ErrInvalidToken", err)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if auth.BearerToken(r) != "" {
		t.Error("no header should yield empty token")
	}
	r.Header.Set("Authorization", "bearer abc.def")
	if got := auth.BearerToken(r); got != "abc.def" {
		t.Errorf("BearerToken() = %q", got)
	}
	r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	if auth.BearerToken(r) != "" {
		t.Error("basic auth should yield empty token")
	}
}

func TestLoadUser_UsesFetcher(t *testing.T) {
	m := newTestManager(t)
	m.SetUserFetcher(stubFetcher{users: map[string]*auth.SessionUser{
		"u1": {ID: "u1", Role: "nonprofit_admin", Name: "Fresh Name"},
	}})
	pair, _ := m.Issue(auth.SessionUser{ID: "u1", Role: "volunteer"})

	var got *auth.SessionUser
	h := m.LoadUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.Role != "nonprofit_admin" {
		t.Errorf("Role = %q, fetched role should win over token claims", got.Role)
	}
}

func TestLoadUser_RemovedUser(t *testing.T) {
	m := newTestManager(t)
	m.SetUserFetcher(stubFetcher{users: map[string]*auth.SessionUser{}})
	pair, _ := m.Issue(auth.SessionUser{ID: "gone"})

	h := m.LoadUser(m.RequireSignedIn(okHandler()))
	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	m := newTestManager(t)
	rec := httptest.NewRecorder()
	m.RequireSignedIn(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/tasks", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	m := newTestManager(t)
	h := m.RequireRole("Super_Admin", "nonprofit_admin")(okHandler())

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"wrong role", &auth.SessionUser{ID: "1", Role: "volunteer"}, http.StatusForbidden},
		{"admin", &auth.SessionUser{ID: "2", Role: "nonprofit_admin"}, http.StatusOK},
		{"case insensitive", &auth.SessionUser{ID: "3", Role: "SUPER_ADMIN"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/tasks", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
