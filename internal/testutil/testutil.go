package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTestDB is a throwaway database on a local MongoDB.
type MongoTestDB struct {
	Client *mongo.Client
	DBName string
}

// NewMongoTestDB connects to MONGO_URI (or localhost) and skips the test
// when MongoDB is not reachable. The database is dropped on cleanup.
func NewMongoTestDB(t *testing.T) *MongoTestDB {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("MongoDB not available for testing: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("MongoDB not responding: %v", err)
	}

	db := &MongoTestDB{
		Client: client,
		DBName: "escrow_test_" + time.Now().UTC().Format("20060102_150405_000000000"),
	}
	t.Cleanup(func() { db.cleanup(t) })
	return db
}

func (m *MongoTestDB) cleanup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Database(m.DBName).Drop(ctx); err != nil {
		t.Logf("Warning: failed to drop test database %s: %v", m.DBName, err)
	}
	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("Warning: failed to disconnect from MongoDB: %v", err)
	}
}
