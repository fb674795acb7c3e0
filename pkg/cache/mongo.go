package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig configures a [MongoCache].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// mongoEntry is the stored document. ExpiresAt is nil for entries without
// a TTL; the TTL index ignores documents where the field is absent.
type mongoEntry struct {
	Key       string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// mongoCollection is the subset of a Mongo collection used by MongoCache.
type mongoCollection interface {
	FindEntry(ctx context.Context, key string) (*mongoEntry, error)
	UpsertEntry(ctx context.Context, e *mongoEntry) error
	DeleteEntry(ctx context.Context, key string) error
	Close(ctx context.Context) error
}

// MongoCache stores entries as documents keyed by cache key. A TTL index
// on expires_at lets the server reap expired entries; Get also checks expiry
// because the reaper runs only periodically.
type MongoCache struct {
	coll mongoCollection
	now  func() time.Time
}

// NewMongoCache connects to MongoDB, pings the primary and ensures the TTL
// index exists.
func NewMongoCache(ctx context.Context, cfg MongoConfig) (*MongoCache, error) {
	coll, err := newDriverCollection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &MongoCache{coll: coll, now: time.Now}, nil
}

func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry *mongoEntry
	err := RetryWithBackoff(ctx, func() error {
		var err error
		entry, err = c.coll.FindEntry(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("mongo find %s: %w", key, err)
	}
	if entry == nil {
		return nil, false, nil
	}
	if entry.ExpiresAt != nil && c.now().After(*entry.ExpiresAt) {
		_ = c.coll.DeleteEntry(ctx, key)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

func (c *MongoCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := &mongoEntry{Key: key, Data: data}
	if ttl > 0 {
		exp := c.now().Add(ttl).UTC()
		entry.ExpiresAt = &exp
	}
	err := RetryWithBackoff(ctx, func() error {
		return c.coll.UpsertEntry(ctx, entry)
	})
	if err != nil {
		return fmt.Errorf("mongo upsert %s: %w", key, err)
	}
	return nil
}

func (c *MongoCache) Delete(ctx context.Context, key string) error {
	if err := c.coll.DeleteEntry(ctx, key); err != nil {
		return fmt.Errorf("mongo delete %s: %w", key, err)
	}
	return nil
}

func (c *MongoCache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.coll.Close(ctx)
}

var _ Cache = (*MongoCache)(nil)

// driverCollection adapts a *mongo.Collection to mongoCollection.
type driverCollection struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ mongoCollection = (*driverCollection)(nil)

func newDriverCollection(ctx context.Context, cfg MongoConfig) (*driverCollection, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri cannot be empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", classify(err))
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", classify(err))
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create ttl index: %w", err)
	}
	return &driverCollection{client: client, coll: coll}, nil
}

func (d *driverCollection) FindEntry(ctx context.Context, key string) (*mongoEntry, error) {
	var e mongoEntry
	err := d.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyMongo(err)
	}
	return &e, nil
}

func (d *driverCollection) UpsertEntry(ctx context.Context, e *mongoEntry) error {
	_, err := d.coll.ReplaceOne(ctx, bson.M{"_id": e.Key}, e, options.Replace().SetUpsert(true))
	return classifyMongo(err)
}

func (d *driverCollection) DeleteEntry(ctx context.Context, key string) error {
	_, err := d.coll.DeleteOne(ctx, bson.M{"_id": key})
	return classifyMongo(err)
}

func (d *driverCollection) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func classifyMongo(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return Retryable(fmt.Errorf("%w: %w", ErrNetwork, err))
	}
	return classify(err)
}
