// Package client is the Go SDK for the VolunteerHub API. It keeps the
// signed-in session, attaches the bearer token to every call, and on a
// 401 refreshes the token pair once and replays the request once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/system/apierr"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"go.uber.org/zap"
)

// maxResponseBytes bounds JSON responses read into memory.
const maxResponseBytes = 8 << 20

// Client calls the API on behalf of one signed-in user. It is safe for
// concurrent use.
type Client struct {
	base  *url.URL
	hc    *http.Client
	log   *zap.Logger
	orgID string
	now   func() time.Time
	state *sessionState
}

// sessionState is shared by a Client and the copies ForOrganization makes.
type sessionState struct {
	store     SessionStore
	onExpired func()

	mu   sync.RWMutex
	sess *Session

	// refreshMu makes concurrent 401s share a single refresh.
	refreshMu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// OnSessionExpired registers fn to run after a failed refresh clears the
// session. A route guard hooks in here.
func OnSessionExpired(fn func()) Option {
	return func(c *Client) { c.state.onExpired = fn }
}

// New returns a client for the API at baseURL. A session found in store
// is restored; a nil store keeps the session in memory.
func New(baseURL string, store SessionStore, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base URL %q", baseURL)
	}
	if store == nil {
		store = &MemoryStore{}
	}
	c := &Client{
		base:  u,
		hc:    &http.Client{Timeout: 60 * time.Second},
		log:   zap.NewNop(),
		now:   time.Now,
		state: &sessionState{store: store},
	}
	for _, opt := range opts {
		opt(c)
	}

	sess, err := store.Load()
	switch {
	case err != nil:
		c.log.Warn("discarding unreadable session", zap.Error(err))
		_ = store.Clear()
	case sess.Valid():
		c.state.sess = sess
	}
	return c, nil
}

// ForOrganization returns a client that scopes organization-level calls
// to orgID. Super admins need it; other roles are always scoped to their
// own organization. The session is shared with c.
func (c *Client) ForOrganization(orgID string) *Client {
	cp := *c
	cp.orgID = orgID
	return &cp
}

// Session returns a copy of the current session, or nil when signed out.
func (c *Client) Session() *Session {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	if c.state.sess == nil {
		return nil
	}
	cp := *c.state.sess
	return &cp
}

// SignedIn reports whether a session is held.
func (c *Client) SignedIn() bool {
	return c.Session() != nil
}

func (c *Client) accessToken() string {
	c.state.mu.RLock()
	defer c.state.mu.RUnlock()
	if c.state.sess == nil {
		return ""
	}
	return c.state.sess.AccessToken
}

// setSession replaces the session and persists it.
func (c *Client) setSession(s *Session) {
	c.state.mu.Lock()
	c.state.sess = s
	c.state.mu.Unlock()
	if err := c.state.store.Save(s); err != nil {
		c.log.Warn("save session", zap.Error(err))
	}
}

// updateSession applies fn to a copy of the session and stores the result.
func (c *Client) updateSession(fn func(*Session)) {
	c.state.mu.Lock()
	if c.state.sess == nil {
		c.state.mu.Unlock()
		return
	}
	cp := *c.state.sess
	fn(&cp)
	c.state.sess = &cp
	c.state.mu.Unlock()
	if err := c.state.store.Save(&cp); err != nil {
		c.log.Warn("save session", zap.Error(err))
	}
}

// clearSession drops the session locally and in the store.
func (c *Client) clearSession() {
	c.state.mu.Lock()
	c.state.sess = nil
	c.state.mu.Unlock()
	if err := c.state.store.Clear(); err != nil {
		c.log.Warn("clear session", zap.Error(err))
	}
}

func (c *Client) expire() {
	c.clearSession()
	if fn := c.state.onExpired; fn != nil {
		fn()
	}
}

// request is one API call. body is kept as bytes so it can be replayed.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	public      bool // no bearer token and no refresh
	orgScoped   bool // add organization_id when the client has one
}

func jsonRequest(method, path string, in any) (request, error) {
	req := request{method: method, path: path}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return req, fmt.Errorf("encode request: %w", err)
		}
		req.body = b
		req.contentType = "application/json"
	}
	return req, nil
}

func (c *Client) url(req request) string {
	u := *c.base
	u.RawPath = c.base.EscapedPath() + req.path
	if p, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = p
	} else {
		u.Path = u.RawPath
	}
	q := url.Values{}
	for k, vs := range req.query {
		for _, v := range vs {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	if req.orgScoped && c.orgID != "" {
		q.Set("organization_id", c.orgID)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) roundTrip(ctx context.Context, req request, token string) (*http.Response, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.method, c.url(req), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	hr.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		hr.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		hr.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.hc.Do(hr)
	if err != nil {
		return nil, networkError(err)
	}
	return resp, nil
}

// send performs req. A 401 on an authenticated call triggers one refresh
// and one replay; the replay's response is returned whatever it is.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	if req.public {
		return c.roundTrip(ctx, req, "")
	}
	token := c.accessToken()
	if token == "" {
		return nil, ErrNotSignedIn
	}
	resp, err := c.roundTrip(ctx, req, token)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	drain(resp)

	fresh, err := c.refresh(ctx, token)
	if err != nil {
		return nil, err
	}
	c.log.Debug("replaying request after token refresh", zap.String("method", req.method), zap.String("path", req.path))
	return c.roundTrip(ctx, req, fresh)
}

// refresh exchanges the refresh token for a new pair. stale is the access
// token that drew the 401; if another call already replaced it, that
// newer token is returned without a second refresh.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	c.state.refreshMu.Lock()
	defer c.state.refreshMu.Unlock()

	sess := c.Session()
	if sess == nil {
		return "", ErrSessionExpired
	}
	if sess.AccessToken != stale {
		return sess.AccessToken, nil
	}

	req, err := jsonRequest(http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": sess.RefreshToken})
	if err != nil {
		return "", err
	}
	req.public = true
	resp, err := c.roundTrip(ctx, req, "")
	if err != nil {
		// The server was never reached; keep the session for a later try.
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Tokens auth.TokenPair `json:"tokens"`
	}
	if err := decodeResponse(resp, &out); err != nil || out.Tokens.AccessToken == "" {
		c.log.Info("token refresh rejected; signing out", zap.Int("status", resp.StatusCode))
		c.expire()
		return "", ErrSessionExpired
	}

	now := c.now()
	c.updateSession(func(s *Session) { s.setTokens(out.Tokens, now) })
	return out.Tokens.AccessToken, nil
}

// do sends req and decodes the JSON envelope into out (which may be nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: q, orgScoped: true}, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	req, err := jsonRequest(method, path, in)
	if err != nil {
		return err
	}
	req.orgScoped = true
	return c.do(ctx, req, out)
}

func decodeResponse(resp *http.Response, out any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return networkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Status: resp.StatusCode, Kind: apierr.ErrServer, Message: "unreadable response", Err: err}
	}
	return nil
}

func statusError(code int, body []byte) error {
	var env struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &env)
	return &APIError{Status: code, Kind: apierr.KindForStatus(code), Message: env.Message}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()
}

func escape(s string) string {
	return url.PathEscape(s)
}
