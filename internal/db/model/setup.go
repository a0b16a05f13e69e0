package model

import (
	"context"
	"fmt"
	"time"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/config"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type index struct {
	Indexes map[string]int
	Unique  bool
	// Partial restricts the index to documents matching the filter
	Partial bson.M
}

var collections = map[string][]index{
	StakeRecordCollection: {
		{Indexes: map[string]int{"owner": 1, "asset_id": 1}, Unique: true},
		{
			Indexes: map[string]int{"updated_at": 1},
			Partial: bson.M{"pending_call": bson.M{"$gt": ""}},
		},
	},
}

// Setup creates the collections and indexes the service relies on. It is idempotent.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to disconnect setup client")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	database := client.Database(cfg.DbName)
	for name, indexes := range collections {
		createCollection(ctx, database, name)
		for _, idx := range indexes {
			if err := createIndex(ctx, database, name, idx); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", name, err)
			}
		}
	}

	log.Ctx(ctx).Info().Msg("collections and indexes created successfully")
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) {
	// Check if the collection already exists.
	if _, err := database.Collection(collectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "_id", Value: 1}},
	}); err != nil {
		log.Ctx(ctx).Debug().Msg(fmt.Sprintf("collection maybe already exists: %s, skip the rest of info: %v", collectionName, err))
		return
	}

	// Create the collection.
	if err := database.CreateCollection(ctx, collectionName); err != nil {
		log.Ctx(ctx).Debug().Msg(fmt.Sprintf("failed to create collection: %s, %v", collectionName, err))
		return
	}

	log.Ctx(ctx).Debug().Msg(fmt.Sprintf("collection created successfully: %s", collectionName))
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	// owner first, map iteration order is random
	keys := bson.D{}
	for _, field := range []string{"owner", "asset_id", "updated_at"} {
		if order, ok := idx.Indexes[field]; ok {
			keys = append(keys, bson.E{Key: field, Value: order})
		}
	}

	opts := options.Index().SetUnique(idx.Unique)
	if idx.Partial != nil {
		opts.SetPartialFilterExpression(idx.Partial)
	}

	_, err := database.Collection(collectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: opts,
	})
	return err
}
