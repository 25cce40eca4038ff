// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/eduvault/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are
// complete, but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error aborts startup and prevents the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	db := deps.MongoDatabase

	// Mark pending invitations expired once past their deadline, then
	// eventually drop old decided ones.
	taskRunner.Register(tasks.InvitationExpiryJob(db, logger))
	taskRunner.Register(tasks.InvitationCleanupJob(db, logger))

	// Drop used or expired password reset tokens.
	taskRunner.Register(tasks.PasswordResetCleanupJob(db, logger))

	// Prune read notifications past the retention window.
	taskRunner.Register(tasks.NotificationPruneJob(db, logger, appCfg.NotificationRetention))

	taskRunner.Start()
}
