// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSigningKeyLen is the shortest accepted download signing key.
const minSigningKeyLen = 32

// appConfigKeys defines the configuration keys for VolunteerHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: VOLUNTEERHUB_MONGO_URI, VOLUNTEERHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "volunteer_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},

	// Tokens
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HMAC secret for access and refresh tokens (32+ chars)"},
	{Name: "access_token_ttl", Default: "15m", Desc: "Access token lifetime"},
	{Name: "refresh_token_ttl", Default: "168h", Desc: "Refresh token lifetime"},

	{Name: "cors_allowed_origins", Default: "http://localhost:3000", Desc: "Comma-separated origins allowed to call the API"},

	// Document storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads/documents", Desc: "Local storage path for uploaded documents"},
	{Name: "download_signing_key", Default: "dev-only-download-key-0123456789ABCDEF", Desc: "Key that signs local download links (32+ chars)"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "documents/", Desc: "S3 key prefix"},
	{Name: "max_upload_mb", Default: 10, Desc: "Largest accepted document upload, in MB"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of the super admin (promotes/creates on startup)"},
	{Name: "superadmin_password", Default: "", Desc: "Personal password for a newly created super admin"},

	{Name: "seed_demo", Default: false, Desc: "Create the demo organization when it is missing"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for lists and single writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-collection writes"},

	{Name: "refresh_cleanup_interval", Default: "1h", Desc: "How often spent refresh tokens are purged (0 disables)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges with precedence
// flags > env (VOLUNTEERHUB_*) > config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "VOLUNTEERHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:       appValues.String("jwt_secret"),
		AccessTokenTTL:  appValues.Duration("access_token_ttl", 15*time.Minute),
		RefreshTokenTTL: appValues.Duration("refresh_token_ttl", 7*24*time.Hour),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		StorageType:        strings.ToLower(strings.TrimSpace(appValues.String("storage_type"))),
		StorageLocalPath:   appValues.String("storage_local_path"),
		DownloadSigningKey: appValues.String("download_signing_key"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		MaxUploadMB:        appValues.Int("max_upload_mb"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		SuperAdminEmail:    appValues.String("superadmin_email"),
		SuperAdminPassword: appValues.String("superadmin_password"),

		SeedDemo: appValues.Bool("seed_demo"),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),

		RefreshCleanupInterval: appValues.Duration("refresh_cleanup_interval", time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Every problem is reported at once.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var problems []string

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		problems = append(problems, fmt.Sprintf("invalid MongoDB URI: %v", err))
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		problems = append(problems, "mongo_database is required")
	}
	if strings.TrimSpace(appCfg.JWTSecret) == "" {
		problems = append(problems, "jwt_secret is required")
	} else if len(appCfg.JWTSecret) < 32 && coreCfg != nil && coreCfg.Env == "prod" {
		problems = append(problems, "jwt_secret must be at least 32 characters in prod")
	}
	if appCfg.AccessTokenTTL <= 0 || appCfg.RefreshTokenTTL <= appCfg.AccessTokenTTL {
		problems = append(problems, "refresh_token_ttl must be longer than a positive access_token_ttl")
	}

	switch appCfg.StorageType {
	case "", "local":
		if strings.TrimSpace(appCfg.StorageLocalPath) == "" {
			problems = append(problems, "storage_local_path is required for local storage")
		}
		if len(appCfg.DownloadSigningKey) < minSigningKeyLen {
			problems = append(problems, fmt.Sprintf("download_signing_key must be at least %d characters", minSigningKeyLen))
		}
	case "s3":
		if appCfg.StorageS3Region == "" || appCfg.StorageS3Bucket == "" {
			problems = append(problems, "storage_s3_region and storage_s3_bucket are required for s3 storage")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage_type must be local or s3, got %q", appCfg.StorageType))
	}

	if appCfg.MaxUploadMB <= 0 || int64(appCfg.MaxUploadMB)<<20 > models.MaxDocumentSize {
		problems = append(problems, fmt.Sprintf("max_upload_mb must be between 1 and %d", models.MaxDocumentSize>>20))
	}
	for _, mode := range []string{appCfg.AuditLogAuth, appCfg.AuditLogAdmin} {
		switch mode {
		case "all", "db", "log", "off":
		default:
			problems = append(problems, fmt.Sprintf("audit log mode must be all, db, log or off, got %q", mode))
		}
	}
	if appCfg.SuperAdminPassword != "" && appCfg.SuperAdminEmail == "" {
		problems = append(problems, "superadmin_password is set without superadmin_email")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
