package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMongoCollection is the collection used when none is configured.
const DefaultMongoCollection = "diagrams"

// Mongo stores blobs as documents {_id: key, data: <binary>, updated_at}.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoBlob struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongo connects to uri and verifies the connection.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if collection == "" {
		collection = DefaultMongoCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Mongo{client: client, coll: client.Database(database).Collection(collection)}, nil
}

func (m *Mongo) Get(ctx context.Context, key string) ([]byte, error) {
	var doc mongoBlob
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

func (m *Mongo) Put(ctx context.Context, key string, data []byte) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"data": data, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	return err
}

func (m *Mongo) Delete(ctx context.Context, key string) error {
	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
