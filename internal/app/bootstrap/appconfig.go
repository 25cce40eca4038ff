// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging, shutdown timeouts). AppConfig is everything specific to this
// application: database connection strings, external service credentials,
// and domain defaults. Values are loaded in LoadConfig from config files,
// EDUVAULT_* environment variables, and command-line flags.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Bearer token authentication
	JWTSecret string        // HMAC signing secret (must be strong in production)
	JWTExpiry time.Duration // Token lifetime (default: 24h)

	// Media object storage (MinIO / S3-compatible)
	MediaEndpoint  string // host:port of the object store
	MediaAccessKey string
	MediaSecretKey string
	MediaBucket    string
	MediaSecure    bool // use TLS when talking to the object store

	// Transactional email (Brevo REST API)
	BrevoAPIKey  string // empty disables outgoing email
	MailFrom     string // From email address (e.g., noreply@example.com)
	MailFromName string // From display name shown in email clients

	// Base URL of the web frontend, used in email links
	FrontendURL string

	// Password reset token lifetime (default: 1h)
	PasswordResetTTL time.Duration

	// How long read notifications are kept before pruning (default: 720h)
	NotificationRetention time.Duration
}
