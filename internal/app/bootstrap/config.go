// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "EDUVAULT"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: EDUVAULT_MONGO_URI, EDUVAULT_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "eduvault", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer token authentication
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "JWT signing secret (must be strong in production)"},
	{Name: "jwt_expiry", Default: "24h", Desc: "JWT token lifetime (e.g., 24h, 72h)"},

	// Media object storage
	{Name: "media_endpoint", Default: "localhost:9000", Desc: "Object store endpoint (host:port)"},
	{Name: "media_access_key", Default: "minioadmin", Desc: "Object store access key"},
	{Name: "media_secret_key", Default: "minioadmin", Desc: "Object store secret key"},
	{Name: "media_bucket", Default: "eduvault", Desc: "Object store bucket name"},
	{Name: "media_secure", Default: false, Desc: "Use TLS when talking to the object store"},

	// Transactional email
	{Name: "brevo_api_key", Default: "", Desc: "Brevo API key (empty disables outgoing email)"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "EduVault", Desc: "From display name"},

	// Frontend base URL for email links
	{Name: "frontend_url", Default: "http://localhost:3000", Desc: "Base URL of the web frontend, used in email links"},

	// Token and retention lifetimes
	{Name: "password_reset_ttl", Default: "1h", Desc: "Password reset token lifetime (e.g., 1h, 30m)"},
	{Name: "notification_retention", Default: "720h", Desc: "How long read notifications are kept (e.g., 720h for 30 days)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTExpiry: appValues.Duration("jwt_expiry", 24*time.Hour),

		MediaEndpoint:  appValues.String("media_endpoint"),
		MediaAccessKey: appValues.String("media_access_key"),
		MediaSecretKey: appValues.String("media_secret_key"),
		MediaBucket:    appValues.String("media_bucket"),
		MediaSecure:    appValues.Bool("media_secure"),

		BrevoAPIKey:  appValues.String("brevo_api_key"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		FrontendURL: appValues.String("frontend_url"),

		PasswordResetTTL:      appValues.Duration("password_reset_ttl", time.Hour),
		NotificationRetention: appValues.Duration("notification_retention", 720*time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if len(appCfg.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters")
	}

	if coreCfg.Env == "prod" && appCfg.JWTSecret == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("jwt_secret must be changed from the development default in production")
	}

	return nil
}
