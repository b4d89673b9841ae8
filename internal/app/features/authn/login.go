// internal/app/features/authn/login.go
package authn

import (
	"context"
	"errors"
	"net/http"
	"time"

	refreshtokenstore "github.com/dalemusser/volunteerhub/internal/app/store/refreshtokens"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	"github.com/dalemusser/volunteerhub/internal/app/system/apierr"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/app/system/authutil"
	"github.com/dalemusser/volunteerhub/internal/app/system/inputval"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/ratelimit"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Messages callers can branch on.
const (
	MsgInvalidCredentials  = "Invalid email or password."
	MsgEmailNotWhitelisted = "This email is not authorized. Please contact your organization administrator."
	MsgOrgInactive         = "Your organization's account is inactive. Please contact support."
)

type loginInput struct {
	Email    string `json:"email" validate:"required,mailaddr" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonresp.Decode(w, r, &in); err != nil {
		jsonresp.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	in.Email = normalize.Email(in.Email)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonresp.Fail(w, http.StatusBadRequest, res.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if ok, msg := h.Limiter.Check(r, in.Email); !ok {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, nil, in.Email, "rate limited")
		jsonresp.Fail(w, http.StatusTooManyRequests, msg)
		return
	}

	u, err := userstore.New(h.DB).GetByEmail(ctx, in.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedNotWhitelisted, nil, in.Email, "email not whitelisted")
		jsonresp.Fail(w, http.StatusForbidden, MsgEmailNotWhitelisted)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: find user", err, "")
		return
	}

	org, err := h.loadOrg(ctx, *u)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogServerError(w, r, "login: load organization", err, "")
		return
	}
	if models.RoleRequiresOrganization(u.Role) && (org == nil || !org.IsActive) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedOrgInactive, &u.ID, in.Email, "organization inactive")
		jsonresp.Fail(w, http.StatusForbidden, MsgOrgInactive)
		return
	}

	if !authutil.VerifyLogin(*u, org, in.Password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedWrongPassword, &u.ID, in.Email, "wrong password")
		jsonresp.Fail(w, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}

	h.Limiter.ResetEmail(in.Email)

	pair, err := h.issue(ctx, r, *u, org)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: issue tokens", err, "")
		return
	}
	if err := userstore.New(h.DB).TouchLastLogin(ctx, u.ID); err != nil {
		h.Log.Warn("login: touch last login", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}
	var orgID *primitive.ObjectID
	if org != nil {
		orgID = &org.ID
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, orgID, u.Email)

	jsonresp.OK(w, jsonresp.M{
		"user":     newUserView(*u, org),
		"userType": u.Role,
		"tokens":   pair,
	})
}

// issue signs a token pair for u and records the refresh token.
func (h *Handler) issue(ctx context.Context, r *http.Request, u models.User, org *models.Organization) (auth.TokenPair, error) {
	pair, err := h.Tokens.Issue(sessionUser(u, org))
	if err != nil {
		return auth.TokenPair{}, err
	}
	err = refreshtokenstore.New(h.DB).Record(ctx, models.RefreshToken{
		ID:        pair.RefreshID,
		UserID:    u.ID,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: time.Now().UTC(),
		UserAgent: r.UserAgent(),
		IP:        ratelimit.ClientIP(r),
	})
	if err != nil {
		return auth.TokenPair{}, err
	}
	return pair, nil
}

func parseID(hex string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apierr.Validation("Invalid ID.")
	}
	return oid, nil
}
