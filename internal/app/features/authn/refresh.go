// internal/app/features/authn/refresh.go
package authn

import (
	"context"
	"errors"
	"net/http"

	refreshtokenstore "github.com/dalemusser/volunteerhub/internal/app/store/refreshtokens"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type refreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

const msgSessionExpired = "Session expired. Please sign in again."

// HandleRefresh handles POST /auth/refresh. The presented refresh token
// is consumed; presenting it again revokes every token of that user.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var in refreshInput
	if err := jsonresp.Decode(w, r, &in); err != nil || in.RefreshToken == "" {
		jsonresp.Fail(w, http.StatusBadRequest, "refresh_token is required.")
		return
	}

	claims, err := h.Tokens.ParseRefresh(in.RefreshToken)
	if err != nil {
		jsonresp.Fail(w, http.StatusUnauthorized, msgSessionExpired)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		jsonresp.Fail(w, http.StatusUnauthorized, msgSessionExpired)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rts := refreshtokenstore.New(h.DB)
	if err := rts.Consume(ctx, claims.ID, userID); err != nil {
		if !errors.Is(err, refreshtokenstore.ErrNotActive) {
			h.ErrLog.LogServerError(w, r, "refresh: consume token", err, "")
			return
		}
		n, rerr := rts.RevokeAllForUser(ctx, userID)
		if rerr != nil {
			h.Log.Error("refresh: revoke after reuse", zap.Error(rerr))
		}
		h.Log.Warn("refresh token reused", zap.String("user_id", userID.Hex()), zap.Int64("revoked", n))
		h.AuditLog.RefreshReused(ctx, r, userID, claims.ID)
		jsonresp.Fail(w, http.StatusUnauthorized, msgSessionExpired)
		return
	}

	// The user may have been removed or their organization deactivated
	// since the token was issued.
	if userstore.NewFetcher(h.DB).FetchUser(ctx, claims.Subject) == nil {
		jsonresp.Fail(w, http.StatusUnauthorized, msgSessionExpired)
		return
	}
	u, org, err := h.loadSelf(ctx, claims.Subject)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "refresh: load user", err, "")
		return
	}

	pair, err := h.issue(ctx, r, *u, org)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "refresh: issue tokens", err, "")
		return
	}
	jsonresp.OK(w, jsonresp.M{"tokens": pair})
}

// HandleLogout handles POST /auth/logout. It always succeeds; a refresh
// token in the body is revoked when valid.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var in refreshInput
	_ = jsonresp.Decode(w, r, &in)

	if in.RefreshToken != "" {
		if claims, err := h.Tokens.ParseRefresh(in.RefreshToken); err == nil {
			if userID, err := primitive.ObjectIDFromHex(claims.Subject); err == nil {
				ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
				defer cancel()
				if err := refreshtokenstore.New(h.DB).Consume(ctx, claims.ID, userID); err != nil && !errors.Is(err, refreshtokenstore.ErrNotActive) {
					h.Log.Warn("logout: revoke refresh token", zap.Error(err))
				}
				h.AuditLog.Logout(ctx, r, userID)
			}
		}
	}
	jsonresp.Message(w, "Logged out.")
}
