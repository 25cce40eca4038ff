// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	applicationsfeature "github.com/dalemusser/eduvault/internal/app/features/applications"
	authapifeature "github.com/dalemusser/eduvault/internal/app/features/authapi"
	filesfeature "github.com/dalemusser/eduvault/internal/app/features/files"
	foldersfeature "github.com/dalemusser/eduvault/internal/app/features/folders"
	healthfeature "github.com/dalemusser/eduvault/internal/app/features/health"
	invitationsfeature "github.com/dalemusser/eduvault/internal/app/features/invitations"
	notificationsfeature "github.com/dalemusser/eduvault/internal/app/features/notifications"
	repositoriesfeature "github.com/dalemusser/eduvault/internal/app/features/repositories"
	usersapifeature "github.com/dalemusser/eduvault/internal/app/features/usersapi"
	applicationstore "github.com/dalemusser/eduvault/internal/app/store/application"
	filestore "github.com/dalemusser/eduvault/internal/app/store/file"
	folderstore "github.com/dalemusser/eduvault/internal/app/store/folder"
	invitationstore "github.com/dalemusser/eduvault/internal/app/store/invitation"
	notificationstore "github.com/dalemusser/eduvault/internal/app/store/notification"
	passwordresetstore "github.com/dalemusser/eduvault/internal/app/store/passwordreset"
	repositorystore "github.com/dalemusser/eduvault/internal/app/store/repository"
	userstore "github.com/dalemusser/eduvault/internal/app/store/users"
	"github.com/dalemusser/eduvault/internal/app/system/apicors"
	"github.com/dalemusser/eduvault/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The API is JSON over bearer tokens:
// /api/auth holds the unauthenticated endpoints (register, login, password
// reset), everything else under /api requires a valid token.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTExpiry, logger)
	if err != nil {
		return nil, err
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	repos := repositorystore.New(db)
	folders := folderstore.New(db)
	files := filestore.New(db)
	apps := applicationstore.New(db)
	invitations := invitationstore.New(db)
	notifications := notificationstore.New(db)
	resets := passwordresetstore.New(db)

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Health check endpoints for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Media, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	authHandler := authapifeature.NewHandler(users, resets, tokens, deps.Mailer, appCfg.FrontendURL, appCfg.PasswordResetTTL, logger)
	foldersHandler := foldersfeature.NewHandler(folders, files, repos, deps.Media, logger)
	filesHandler := filesfeature.NewHandler(files, folders, repos, deps.Media, logger)
	reposHandler := repositoriesfeature.NewHandler(repos, folders, files, apps, invitations, users, deps.Media, logger)
	appsHandler := applicationsfeature.NewHandler(apps, repos, notifications, logger)
	invitationsHandler := invitationsfeature.NewHandler(invitations, repos, users, notifications, deps.Mailer, appCfg.FrontendURL, logger)
	usersHandler := usersapifeature.NewHandler(users, deps.Media, logger)
	notificationsHandler := notificationsfeature.NewHandler(notifications, logger)

	r.Route("/api", func(api chi.Router) {
		// Bearer token clients, no cookies; CORS can stay permissive.
		api.Use(apicors.Middleware())

		// Unauthenticated: register, login, password reset.
		api.Mount("/auth", authapifeature.Routes(authHandler))

		// Everything else requires a valid token.
		api.Group(func(priv chi.Router) {
			priv.Use(tokens.RequireUser)

			foldersfeature.Routes(priv, foldersHandler)
			filesfeature.Routes(priv, filesHandler)
			repositoriesfeature.Routes(priv, reposHandler)
			applicationsfeature.Routes(priv, appsHandler)
			invitationsfeature.Routes(priv, invitationsHandler)

			priv.Mount("/users", usersapifeature.Routes(usersHandler))
			priv.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))
		})
	})

	return r, nil
}
