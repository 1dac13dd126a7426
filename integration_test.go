package mongos

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestIntegration_MongoDB runs the lifecycle against a real server.
//
// Run with: go test -run TestIntegration_MongoDB -v
//
// Two modes:
// 1. Manual: uses an existing server when TEST_MONGO_HOST is set
// 2. Testcontainers: starts mongo:7 via Docker, skipped when Docker is unavailable
func TestIntegration_MongoDB(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	host := os.Getenv("TEST_MONGO_HOST")
	if host == "" {
		host = startMongoContainer(t, ctx)
	}

	testLifecycleAgainstServer(t, ctx, host)
}

func startMongoContainer(t *testing.T, ctx context.Context) string {
	t.Helper()

	// Catch panic if Docker daemon is not running
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Docker daemon not available, skipping testcontainers test: %v", r)
		}
	}()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Skipf("Failed to start MongoDB container (Docker not available?): %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate MongoDB container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get MongoDB connection string: %v", err)
	}
	t.Logf("MongoDB container started at %s", uri)
	return uri
}

func testLifecycleAgainstServer(t *testing.T, ctx context.Context, host string) {
	metrics := NewInMemoryMetrics()
	db := New(Config{
		Host:           host,
		Database:       "mongos_integration",
		ConnectTimeout: 20 * time.Second,
	}, WithLazyConnect(), WithMetrics(metrics))

	if got := db.ReadyState(); got != Disconnected {
		t.Fatalf("ready state = %s, want disconnected", got)
	}

	users, err := db.Connection().Model("User", Schema{
		Validator: bson.M{"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"username"},
			"properties": bson.M{
				"username": bson.M{"bsonType": "string"},
				"avatar":   bson.M{"bsonType": "string"},
			},
		}},
		Indexes: []mongo.IndexModel{{Keys: bson.D{{Key: "username", Value: 1}}}},
	})
	if err != nil {
		t.Fatalf("Model() failed: %v", err)
	}

	connect := db.Connect()
	if got := db.ReadyState(); got != Connecting {
		t.Errorf("ready state = %s, want connecting", got)
	}
	if err := connect.Wait(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if got := db.ReadyState(); got != Connected {
		t.Fatalf("ready state = %s, want connected", got)
	}
	if _, ok := db.Connection().Driver(); !ok {
		t.Error("Driver() should expose the mongo client")
	}

	if err := users.Sync(ctx); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	// Syncing an existing collection replaces its validator.
	if err := users.Sync(ctx); err != nil {
		t.Fatalf("second Sync() failed: %v", err)
	}

	coll, err := users.Collection()
	if err != nil {
		t.Fatalf("Collection() failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"username": "alice", "avatar": "a.png"}); err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	// The server enforces the validator.
	_, err = coll.InsertOne(ctx, bson.M{"avatar": "b.png"})
	var writeErr mongo.WriteException
	if !errors.As(err, &writeErr) {
		t.Errorf("expected a validation write error, got %v", err)
	}

	if err := db.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if got := db.ReadyState(); got != Disconnected {
		t.Errorf("ready state = %s, want disconnected", got)
	}
	if metrics.Counter(MetricConnectAttempts) != 1 {
		t.Errorf("connect attempts = %d, want 1", metrics.Counter(MetricConnectAttempts))
	}
}
