// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/eduvault/internal/app/system/indexes"
	"github.com/dalemusser/eduvault/internal/app/system/mailer"
	"github.com/dalemusser/eduvault/internal/app/system/media"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB, the media object store, and the mailer.
//
// WAFFLE calls this after configuration is loaded but before EnsureSchema
// and Startup. Clients are bundled into DBDeps for use in later hooks.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	mediaStore, err := media.New(ctx, media.Config{
		Endpoint:  appCfg.MediaEndpoint,
		AccessKey: appCfg.MediaAccessKey,
		SecretKey: appCfg.MediaSecretKey,
		Bucket:    appCfg.MediaBucket,
		Secure:    appCfg.MediaSecure,
	}, logger)
	if err != nil {
		return DBDeps{}, fmt.Errorf("failed to initialize media storage: %w", err)
	}
	logger.Info("initialized media storage",
		zap.String("endpoint", appCfg.MediaEndpoint),
		zap.String("bucket", appCfg.MediaBucket),
	)

	mail := mailer.New(mailer.Config{
		APIKey:   appCfg.BrevoAPIKey,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	logger.Info("initialized email mailer",
		zap.String("from", appCfg.MailFrom),
		zap.Bool("enabled", appCfg.BrevoAPIKey != ""),
	)

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Media:         mediaStore,
		Mailer:        mail,
	}, nil
}

// EnsureSchema sets up database indexes.
//
// This runs after ConnectDB succeeds but before Startup and before the
// HTTP handler is built. The context has a timeout based on
// coreCfg.IndexBootTimeout, so long-running work should respect
// cancellation.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
