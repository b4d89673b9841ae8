package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/volunteerhub/internal/app/system/jsonresp"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "success":true, "status":"ok", "database":"connected" }
//
// On DB failure: 503 and
//
//	{ "success":false, "status":"error", "database":"disconnected", "message":"Database unavailable" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		jsonresp.Write(w, http.StatusServiceUnavailable, "Database unavailable", jsonresp.M{
			"status":   "error",
			"database": "disconnected",
		})
		return
	}

	jsonresp.OK(w, jsonresp.M{"status": "ok", "database": "connected"})
}
