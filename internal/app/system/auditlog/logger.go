// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	"github.com/dalemusser/volunteerhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds audit logging configuration. Each category takes
// "all" (MongoDB + zap), "db", "log", or "off".
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to MongoDB and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(e audit.Event) {
	fields := make([]zap.Field, 0, 8+len(e.Details))
	fields = append(fields,
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("event_type", e.EventType),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP),
	)
	id := func(key string, v *primitive.ObjectID) {
		if v != nil {
			fields = append(fields, zap.String(key, v.Hex()))
		}
	}
	id("user_id", e.UserID)
	id("actor_id", e.ActorID)
	id("organization_id", e.OrganizationID)
	if e.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", e.FailureReason))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	lvl := zapcore.InfoLevel
	if !e.Success {
		lvl = zapcore.WarnLevel
	}
	l.zapLog.Log(lvl, "audit event", fields...)
}

// Log records event according to the category's setting. A nil Logger
// is a no-op so tests can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := "all"
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, orgID *primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAuth,
		EventType:      audit.EventLoginSuccess,
		UserID:         &userID,
		OrganizationID: orgID,
		IP:             ratelimit.ClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details:        map[string]string{"email": email},
	})
}

// LoginFailed logs a rejected login. userID is nil when the email is not
// on the whitelist.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": email},
	})
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    &userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// RefreshReused logs a presented refresh token that was already rotated
// or revoked.
func (l *Logger) RefreshReused(ctx context.Context, r *http.Request, userID primitive.ObjectID, jti string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventRefreshReused,
		UserID:        &userID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: "refresh token no longer valid",
		Details:       map[string]string{"jti": jti},
	})
}

// OrgPasswordChanged logs a change of an organization's shared password.
func (l *Logger) OrgPasswordChanged(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAuth,
		EventType:      audit.EventOrgPasswordChanged,
		ActorID:        &actorID,
		OrganizationID: &orgID,
		IP:             ratelimit.ClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
	})
}

// --- Admin Events ---

// Admin logs an administrative change. target is the affected record, if any.
func (l *Logger) Admin(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, orgID, target *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:       audit.CategoryAdmin,
		EventType:      eventType,
		ActorID:        &actorID,
		UserID:         target,
		OrganizationID: orgID,
		IP:             ratelimit.ClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
		Details:        details,
	})
}
