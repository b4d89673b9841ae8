// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS and log level; everything specific to VolunteerHub lives
// here and is passed to every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// JWT access/refresh tokens
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Browser origins allowed to call the API
	CORSAllowedOrigins []string

	// Document storage
	StorageType        string // local | s3
	StorageLocalPath   string
	DownloadSigningKey string // signs /files tokens for the local backend
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	MaxUploadMB        int

	// Audit logging: all | db | log | off
	AuditLogAuth  string
	AuditLogAdmin string

	// First super admin, created or promoted on startup
	SuperAdminEmail    string
	SuperAdminPassword string

	// Seed the demo organization on an empty database
	SeedDemo bool

	// Handler timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// Background cleanup of spent refresh tokens
	RefreshCleanupInterval time.Duration
}
