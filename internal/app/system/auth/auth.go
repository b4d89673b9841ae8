// Package auth issues and verifies the bearer tokens the API runs on and
// carries the signed-in user through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the caller as seen by handlers.
type SessionUser struct {
	ID               string
	Email            string
	Name             string
	Role             string
	OrganizationID   string
	OrganizationName string
}

// UserFetcher reloads a user on every request so role changes, removals
// and deactivated organizations take effect immediately. It returns nil
// when the user may no longer act.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser returns r carrying u. Tests use it to skip token handling.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Tokens                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	issuer           = "volunteerhub"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	Type  string `json:"typ"`
	Email string `json:"email"`
	Role  string `json:"role"`
	OrgID string `json:"org,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. Its ID (jti) is what
// the refresh token store tracks.
type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds

	RefreshID        string    `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// Manager signs and verifies tokens and provides the auth middleware.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	fetcher    UserFetcher
	log        *zap.Logger
	now        func() time.Time
}

// NewManager builds a Manager. The secret must not be empty; secrets
// shorter than 32 bytes are accepted with a warning.
func NewManager(secret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty; provide ≥32 random chars")
	}
	if len(secret) < 32 {
		logger.Warn("jwt secret is short; 32+ chars recommended", zap.Int("length", len(secret)))
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        logger,
		now:        time.Now,
	}, nil
}

// SetUserFetcher installs the per-request user loader.
func (m *Manager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

// RefreshTTL reports how long refresh tokens live.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

// Issue signs a fresh access/refresh pair for u.
func (m *Manager) Issue(u SessionUser) (TokenPair, error) {
	now := m.now()
	access := AccessClaims{
		Type:  tokenTypeAccess,
		Email: u.Email,
		Role:  u.Role,
		OrgID: u.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	at, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(m.secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshExp := now.Add(m.refreshTTL)
	refresh := RefreshClaims{
		Type: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	}
	rt, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(m.secret)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:      at,
		RefreshToken:     rt,
		ExpiresIn:        int64(m.accessTTL / time.Second),
		RefreshID:        refresh.ID,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *Manager) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return m.secret, nil
}

func (m *Manager) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithIssuer(issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
}

// ParseAccess verifies an access token.
func (m *Manager) ParseAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, m.keyFunc, m.parserOptions()...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != tokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token. Callers must still check the jti
// against the refresh token store.
func (m *Manager) ParseRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, m.keyFunc, m.parserOptions()...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Type != tokenTypeRefresh {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// BearerToken returns the token from the Authorization header, or "".
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// LoadUser injects the caller into the context when a valid access token
// is presented. Requests without one pass through anonymously.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := BearerToken(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.ParseAccess(tok)
		if err != nil {
			m.log.Debug("rejected access token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		var u *SessionUser
		if m.fetcher != nil {
			u = m.fetcher.FetchUser(r.Context(), claims.Subject)
		} else {
			u = &SessionUser{
				ID:             claims.Subject,
				Email:          claims.Email,
				Role:           claims.Role,
				OrganizationID: claims.OrgID,
			}
		}
		if u != nil {
			r = WithTestUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 when no user is in context.
func (m *Manager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			jsonresp.Fail(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a user and 403 when the user's role is
// not in allowed. Role names compare case-insensitively.
func (m *Manager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				jsonresp.Fail(w, http.StatusUnauthorized, "Authentication required.")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				m.log.Info("role not permitted",
					zap.String("user_id", u.ID),
					zap.String("role", u.Role),
					zap.String("path", r.URL.Path))
				jsonresp.Fail(w, http.StatusForbidden, "You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
