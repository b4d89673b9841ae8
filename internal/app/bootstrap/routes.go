// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	authnfeature "github.com/dalemusser/volunteerhub/internal/app/features/authn"
	calendarfeature "github.com/dalemusser/volunteerhub/internal/app/features/calendar"
	dashboardfeature "github.com/dalemusser/volunteerhub/internal/app/features/dashboard"
	documentsfeature "github.com/dalemusser/volunteerhub/internal/app/features/documents"
	errorsfeature "github.com/dalemusser/volunteerhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/volunteerhub/internal/app/features/health"
	organizationsfeature "github.com/dalemusser/volunteerhub/internal/app/features/organizations"
	systemusersfeature "github.com/dalemusser/volunteerhub/internal/app/features/systemusers"
	tasksfeature "github.com/dalemusser/volunteerhub/internal/app/features/tasks"
	"github.com/dalemusser/volunteerhub/internal/app/store/audit"
	refreshtokenstore "github.com/dalemusser/volunteerhub/internal/app/store/refreshtokens"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/auditlog"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/app/system/blobstore"
	"github.com/dalemusser/volunteerhub/internal/app/system/jobs"
	"github.com/dalemusser/volunteerhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	// downloadLinkTTL bounds signed /files links from the local backend.
	downloadLinkTTL = 15 * time.Minute
	// refreshCleanupGrace keeps revoked refresh tokens long enough to
	// recognise reuse of a rotated token.
	refreshCleanupGrace = 24 * time.Hour
)

var (
	schedMu   sync.Mutex
	scheduler *jobs.Scheduler
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It builds the token manager, audit
// logger and blob backend, starts the background jobs, and mounts every
// feature router under its API prefix.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	tm, err := auth.NewManager(appCfg.JWTSecret, appCfg.AccessTokenTTL, appCfg.RefreshTokenTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	// Reload the user on each request so role changes apply immediately.
	tm.SetUserFetcher(userstore.NewFetcher(db))

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	blobs, err := blobstore.New(ctx, blobstore.Config{
		Type:       appCfg.StorageType,
		LocalPath:  appCfg.StorageLocalPath,
		SigningKey: appCfg.DownloadSigningKey,
		LinkTTL:    downloadLinkTTL,
		S3Region:   appCfg.StorageS3Region,
		S3Bucket:   appCfg.StorageS3Bucket,
		S3Prefix:   appCfg.StorageS3Prefix,
	})
	if err != nil {
		logger.Error("blob storage init failed", zap.Error(err), zap.String("type", appCfg.StorageType))
		return nil, err
	}

	limiter := ratelimit.NewLoginLimiter()
	startScheduler(appCfg, db, limiter, logger)

	r := chi.NewRouter()
	r.Use(cors.Handler(corsOptions(appCfg.CORSAllowedOrigins)))
	// Global auth middleware: loads the bearer token's user into context.
	r.Use(tm.LoadUser)

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check (no auth)
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Auth: login, refresh, logout, profile
	authnHandler := authnfeature.NewHandler(db, tm, limiter, errLog, auditLogger, logger)
	r.Mount("/auth", authnfeature.Routes(authnHandler, tm))

	// Tasks: role-scoped list for everyone, roll-up view for admins
	tasksHandler := tasksfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, tm))
	r.Mount("/admin/tasks", tasksfeature.AdminRoutes(tasksHandler, tm))

	// Calendar events, RSVPs, iCalendar export
	calendarHandler := calendarfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/calendar/events", calendarfeature.Routes(calendarHandler, tm))

	// Documents and their download links
	docsHandler := documentsfeature.NewHandler(db, blobs, errLog, auditLogger, logger)
	docsHandler.MaxUpload = int64(appCfg.MaxUploadMB) << 20
	r.Mount("/documents", documentsfeature.Routes(docsHandler, tm))
	if local, ok := blobs.(*blobstore.Local); ok {
		mount := strings.TrimSuffix(blobstore.FilesPrefix, "/")
		r.Mount(mount, documentsfeature.FilesRoutes(documentsfeature.NewFilesHandler(local, logger)))
	}

	// Super admin: organizations, users, global dashboard
	orgHandler := organizationsfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/super-admin/organizations", organizationsfeature.Routes(orgHandler, tm))

	usersHandler := systemusersfeature.NewHandler(db, errLog, auditLogger, logger)
	r.Mount("/super-admin/users", systemusersfeature.Routes(usersHandler, tm))

	dashHandler := dashboardfeature.NewHandler(db, errLog, logger)
	r.Mount("/super-admin/dashboard", dashboardfeature.SuperAdminRoutes(dashHandler, tm))
	r.Mount("/dashboard", dashboardfeature.Routes(dashHandler, tm))

	logger.Info("routes mounted",
		zap.String("storage", appCfg.StorageType),
		zap.Strings("cors_origins", appCfg.CORSAllowedOrigins),
	)
	return r, nil
}

func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return opts
}

// startScheduler replaces any running scheduler with a fresh one.
func startScheduler(appCfg AppConfig, db *mongo.Database, limiter *ratelimit.LoginLimiter, logger *zap.Logger) {
	list := []jobs.Job{jobs.LoginLimiterSweepJob(limiter, logger)}
	if appCfg.RefreshCleanupInterval > 0 {
		list = append(list, jobs.RefreshTokenCleanupJob(refreshtokenstore.New(db), logger, appCfg.RefreshCleanupInterval, refreshCleanupGrace))
	}

	schedMu.Lock()
	defer schedMu.Unlock()
	if scheduler != nil {
		scheduler.Stop()
	}
	scheduler = jobs.NewScheduler(logger, list...)
	scheduler.Start()
}

func stopScheduler() {
	schedMu.Lock()
	defer schedMu.Unlock()
	if scheduler != nil {
		scheduler.Stop()
		scheduler = nil
	}
}
