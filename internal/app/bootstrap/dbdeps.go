// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/eduvault/internal/app/system/mailer"
	"github.com/dalemusser/eduvault/internal/app/system/media"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. The Shutdown
// hook closes these connections when the application terminates.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Media is the object store for uploaded files and profile images.
	Media *media.Store

	// Mailer sends transactional email (welcome, reset, invitations).
	Mailer *mailer.Mailer
}
