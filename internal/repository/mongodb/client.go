// Package mongodb stores doctors, slots and appointments in MongoDB. It is
// selected with store: mongo; everything else stays in Postgres.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/healthmate/api/pkg/retry"
)

const (
	doctorsCollection      = "doctors"
	slotsCollection        = "slots"
	appointmentsCollection = "appointments"
	countersCollection     = "counters"
)

// Connect opens a client and waits until the server answers a ping.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	cfg := retry.DefaultConfig()
	cfg.Attempts = 5
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("mongo not reachable, retrying")
	}
	if err := retry.DoWithTimeout(ctx, 3*time.Second, cfg, func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, client.Database(database), nil
}

// EnsureIndexes creates the indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		doctorsCollection: {
			{Keys: bson.D{{Key: "specialization", Value: 1}}},
		},
		slotsCollection: {
			{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "seq", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: 1}}},
		},
		appointmentsCollection: {
			{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "date", Value: 1}}},
			{Keys: bson.D{{Key: "slot_id", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// nextSeq hands out increasing sequence numbers so slots keep insertion order.
func nextSeq(ctx context.Context, db *mongo.Database, name string, n int64) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": n}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence: %w", err)
	}
	return counter.Value - n + 1, nil
}
