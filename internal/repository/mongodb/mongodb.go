// Package mongodb implements the repository interfaces on MongoDB.
//
// It is the alternative to the sqlite backend for deployments that already run
// a MongoDB cluster. STORE_DRIVER=mongo selects it.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/readme-generator/internal/repository"
)

const usersCollection = "users"

var _ repository.Store = (*DB)(nil)

// DB holds the users collection of one database.
type DB struct {
	client *mongo.Client
	users  *mongo.Collection
}

// New connects to uri, verifies the connection with a ping, and makes sure the
// unique provider_id index exists.
func New(ctx context.Context, uri, dbName string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		// Disconnect so a failed ping does not leak sockets.
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb: pinging: %w", err)
	}

	db := NewFromDatabase(client.Database(dbName))
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return db, nil
}

// NewFromDatabase wires the collections of an existing database handle.
func NewFromDatabase(database *mongo.Database) *DB {
	return &DB{
		client: database.Client(),
		users:  database.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique index the upsert relies on.
//
// Expected schema:
//
//	users
//	  { _id: string (xid), provider_id, username, avatar_url, access_token, created_at, updated_at }
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "provider_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("provider_id_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating provider_id index: %w", err)
	}
	return nil
}

// Ping checks the deployment is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}
