// Package testutil provides test helpers: per-test Mongo databases with
// the production indexes, and HTTP request/recorder helpers with a
// context-injected actor.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/eduvault/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestDBURI is the MongoDB connection string used by the integration tests.
const TestDBURI = "mongodb://localhost:27017"

// dbPrefix prefixes every per-test database name.
const dbPrefix = "eduvault_test_"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// getClient connects once and shares the client across all tests in the
// binary. The pool is sized for parallel test packages.
func getClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		opts := options.Client().
			ApplyURI(TestDBURI).
			SetMaxPoolSize(200).
			SetMinPoolSize(10).
			SetMaxConnIdleTime(30 * time.Second).
			SetConnectTimeout(10 * time.Second).
			SetServerSelectionTimeout(10 * time.Second)

		client, clientErr = mongo.Connect(ctx, opts)
		if clientErr != nil {
			return
		}
		clientErr = client.Ping(ctx, nil)
	})
	return client, clientErr
}

// SetupTestDB returns a fresh database named after the test, with all
// production indexes in place. The database is dropped again via t.Cleanup,
// so parallel tests never see each other's documents.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	c, err := getClient()
	if err != nil {
		t.Fatalf("connect to test MongoDB at %s: %v", TestDBURI, err)
	}

	db := c.Database(dbPrefix + dbNameSuffix(t.Name()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Drop(ctx); err != nil {
		t.Fatalf("drop stale test database: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("create indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Drop(ctx); err != nil {
			t.Logf("drop test database: %v", err)
		}
	})

	return db
}

// dbNameSuffix maps a test name onto characters Mongo accepts in a
// database name, truncated to stay under the 63-byte limit with the
// prefix included.
func dbNameSuffix(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if max := 63 - len(dbPrefix); len(out) > max {
		out = out[:max]
	}
	return string(out)
}

// TestContext returns a context with a timeout generous enough for any
// single store operation in tests.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
