package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	"github.com/dalemusser/volunteerhub/internal/app/system/auditlog"
	"github.com/dalemusser/volunteerhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), nil, "a@b.org")
	logger.Logout(ctx, req, primitive.NewObjectID())
	logger.Admin(ctx, req, audit.EventTaskDeleted, primitive.NewObjectID(), nil, nil, nil)
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})
	userID := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/auth/login", nil)
	logger.LoginSuccess(ctx, req, userID, nil, "a@b.org")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})
	userID := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	logger.LoginFailed(ctx, req, audit.EventLoginFailedWrongPassword, &userID, "a@b.org", "bad password")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Success {
		t.Error("expected failed event")
	}
	if ev.IP != "203.0.113.9" {
		t.Errorf("IP = %q, want 203.0.113.9", ev.IP)
	}
	if ev.Details["attempted_email"] != "a@b.org" {
		t.Errorf("details = %v", ev.Details)
	}
}

func TestLogger_Log_ConfigLogSkipsDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "all", Admin: "log"})
	actor := primitive.NewObjectID()
	org := primitive.NewObjectID()
	req := httptest.NewRequest("DELETE", "/tasks/x", nil)
	logger.Admin(ctx, req, audit.EventTaskDeleted, actor, &org, nil, map[string]string{"task_id": "x"})

	events, err := store.Recent(ctx, &org, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected admin events to stay out of the DB, got %d", len(events))
	}
}
