package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/volunteerhub/internal/app/features/authn"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/app/system/authutil"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.uber.org/zap"
)

// LoginResult is the body of a successful login.
type LoginResult struct {
	User     authn.UserView `json:"user"`
	UserType string         `json:"userType"`
	Tokens   auth.TokenPair `json:"tokens"`
}

// EmailCheck reports whether an email may sign in.
type EmailCheck struct {
	Allowed      bool   `json:"allowed"`
	Organization string `json:"organization,omitempty"`
	Role         string `json:"role,omitempty"`
}

// Login signs in and stores the new session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validationError("Email and password are required.")
	}
	req, err := jsonRequest(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	req.public = true

	var out LoginResult
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}

	sess := &Session{UserType: out.UserType, User: out.User}
	sess.setTokens(out.Tokens, c.now())
	c.setSession(sess)
	c.log.Info("signed in", zap.String("email", out.User.Email), zap.String("user_type", out.UserType))
	return &out, nil
}

// Logout revokes the refresh token on the server and clears the local
// session. The session is cleared even when the server call fails; that
// error is still returned.
func (c *Client) Logout(ctx context.Context) error {
	sess := c.Session()
	defer c.clearSession()
	if sess == nil {
		return nil
	}
	req, err := jsonRequest(http.MethodPost, "/auth/logout", map[string]string{"refresh_token": sess.RefreshToken})
	if err != nil {
		return err
	}
	req.public = true
	if err := c.do(ctx, req, nil); err != nil {
		c.log.Warn("remote logout failed", zap.Error(err))
		return err
	}
	return nil
}

// Me reloads the caller's profile and refreshes the cached copy.
func (c *Client) Me(ctx context.Context) (*authn.UserView, error) {
	var out struct {
		User     authn.UserView `json:"user"`
		UserType string         `json:"userType"`
	}
	if err := c.get(ctx, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	c.updateSession(func(s *Session) {
		s.User = out.User
		s.UserType = out.UserType
	})
	return &out.User, nil
}

// CheckEmail looks an email up in the whitelist before login.
func (c *Client) CheckEmail(ctx context.Context, email string) (*EmailCheck, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, validationError("Email is required.")
	}
	var out EmailCheck
	req := request{method: http.MethodGet, path: "/auth/check-email/" + escape(email), public: true}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangeOrgPassword changes the caller's organization password.
func (c *Client) ChangeOrgPassword(ctx context.Context, current, next string) error {
	if current == "" {
		return validationError("Current password is required.")
	}
	if len(next) < authutil.MinPasswordLength {
		return validationError("New password must be at least 8 characters.")
	}
	return c.sendJSON(ctx, http.MethodPost, "/auth/change-org-password", map[string]string{
		"current_password": current,
		"new_password":     next,
	}, nil)
}

// UpdateProfile merges patch into the caller's profile.
func (c *Client) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*authn.UserView, error) {
	if patch.Empty() {
		return nil, validationError("Nothing to update.")
	}
	var out struct {
		User authn.UserView `json:"user"`
	}
	if err := c.sendJSON(ctx, http.MethodPut, "/auth/profile", patch, &out); err != nil {
		return nil, err
	}
	c.updateSession(func(s *Session) { s.User = out.User })
	return &out.User, nil
}
