package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names inside the planner database.
const (
	TechniciansCollection = "technicians"
	PartsCollection       = "parts"
	WorkOrdersCollection  = "workorders"
	UsersCollection       = "users"
)

// ErrNotFound is returned when a lookup by id matches no document.
var ErrNotFound = errors.New("document not found")

// ErrNilCollection is returned when a wrapper was built without a collection.
var ErrNilCollection = errors.New("mongo collection is nil")

// ConnectMongo connects to MongoDB at uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store bundles the collections the planner service reads and writes.
type Store struct {
	Technicians *MongoTechnicianCollection
	Parts       *MongoPartCollection
	WorkOrders  *MongoWorkOrderCollection
	Users       *MongoUserCollection
}

// NewStore wires every collection of database dbName.
func NewStore(client *mongo.Client, dbName string) *Store {
	database := client.Database(dbName)
	return &Store{
		Technicians: &MongoTechnicianCollection{Collection: database.Collection(TechniciansCollection)},
		Parts:       &MongoPartCollection{Collection: database.Collection(PartsCollection)},
		WorkOrders:  &MongoWorkOrderCollection{Collection: database.Collection(WorkOrdersCollection)},
		Users:       &MongoUserCollection{Collection: database.Collection(UsersCollection)},
	}
}

// EnsureIndexes creates the indexes backing the pool reads and work order
// listings. Creating an index that already exists is a no-op.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection *mongo.Collection
		models     []mongo.IndexModel
	}{
		{s.Technicians.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "available", Value: 1}, {Key: "skills", Value: 1}}},
		}},
		{s.Parts.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "partNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{s.WorkOrders.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "machineId", Value: 1}, {Key: "createdAt", Value: -1}}},
		}},
		{s.Users.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
	}
	for _, idx := range indexes {
		if idx.collection == nil {
			return ErrNilCollection
		}
		if _, err := idx.collection.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", idx.collection.Name(), err)
		}
	}
	return nil
}
