package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *Database) SaveNewStake(
	ctx context.Context, record *model.StakeRecordDocument,
) error {
	if record == nil {
		return errors.New("nil stake record")
	}

	collection := db.collection(model.StakeRecordCollection)
	_, err := collection.InsertOne(ctx, record)
	if err == nil {
		return nil
	}
	if !isDuplicateKeyWriteError(err) {
		return err
	}

	// a failed record with nothing in flight can be restaked
	filter := bson.M{
		"_id":          record.ID,
		"state":        types.StateFailed.String(),
		"pending_call": "",
	}
	res, err := collection.ReplaceOne(ctx, filter, record)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &DuplicateKeyError{
			Key:     record.ID,
			Message: "stake record already exists",
		}
	}
	return nil
}

func isDuplicateKeyWriteError(err error) bool {
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, e := range writeErr.WriteErrors {
			if mongo.IsDuplicateKeyError(e) {
				return true
			}
		}
	}
	return mongo.IsDuplicateKeyError(err)
}

func (db *Database) GetStake(
	ctx context.Context, owner, assetID string,
) (*model.StakeRecordDocument, error) {
	key := model.StakeKey(owner, assetID)
	res := db.collection(model.StakeRecordCollection).
		FindOne(ctx, bson.M{"_id": key})

	var record model.StakeRecordDocument
	err := res.Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     key,
				Message: "stake record not found",
			}
		}
		return nil, err
	}

	return &record, nil
}

func (db *Database) TransitionStake(
	ctx context.Context,
	owner, assetID string,
	qualifiedStates []types.StakeState,
	expectedCall string,
	newState types.StakeState,
	opts ...UpdateOption,
) error {
	if len(qualifiedStates) == 0 {
		return errors.New("qualified states can't be empty")
	}

	key := model.StakeKey(owner, assetID)
	filter := conditionalFilter(key, qualifiedStates, expectedCall)
	update := bson.M{
		"$set": newUpdateOptions(opts).setFields(newState),
	}

	res := db.collection(model.StakeRecordCollection).
		FindOneAndUpdate(ctx, filter, update)
	if res.Err() != nil {
		if errors.Is(res.Err(), mongo.ErrNoDocuments) {
			return &NotFoundError{
				Key:     key,
				Message: "stake record not found or current state is not qualified",
			}
		}
		return res.Err()
	}

	return nil
}

func (db *Database) DeleteStake(
	ctx context.Context,
	owner, assetID string,
	qualifiedStates []types.StakeState,
	expectedCall string,
) error {
	if len(qualifiedStates) == 0 {
		return errors.New("qualified states can't be empty")
	}

	key := model.StakeKey(owner, assetID)
	res, err := db.collection(model.StakeRecordCollection).
		DeleteOne(ctx, conditionalFilter(key, qualifiedStates, expectedCall))
	if err != nil {
		return fmt.Errorf("failed to delete stake record %s: %w", key, err)
	}
	if res.DeletedCount == 0 {
		return &NotFoundError{
			Key:     key,
			Message: "stake record not found or current state is not qualified",
		}
	}

	return nil
}

func conditionalFilter(key string, qualifiedStates []types.StakeState, expectedCall string) bson.M {
	qualifiedStateStrs := make([]string, len(qualifiedStates))
	for i, state := range qualifiedStates {
		qualifiedStateStrs[i] = state.String()
	}

	return bson.M{
		"_id":          key,
		"state":        bson.M{"$in": qualifiedStateStrs},
		"pending_call": expectedCall,
	}
}

func (db *Database) ListStakes(
	ctx context.Context, owner, paginationToken string, limit int64,
) (*DbResultMap[model.StakeRecordDocument], error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	filter := bson.M{"owner": owner}
	if paginationToken != "" {
		lastAssetID, err := decodePaginationToken(paginationToken)
		if err != nil {
			return nil, err
		}
		filter["asset_id"] = bson.M{"$gt": lastAssetID}
	}

	// one extra record tells whether there is a next page
	opts := options.Find().
		SetSort(bson.D{{Key: "asset_id", Value: 1}}).
		SetLimit(limit + 1)

	cursor, err := db.collection(model.StakeRecordCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.StakeRecordDocument
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return toResultMap(records, limit)
}

func toResultMap(records []model.StakeRecordDocument, limit int64) (*DbResultMap[model.StakeRecordDocument], error) {
	result := &DbResultMap[model.StakeRecordDocument]{
		Data: records,
	}
	if int64(len(records)) > limit {
		result.Data = records[:limit]
		token, err := encodePaginationToken(result.Data[limit-1].AssetID)
		if err != nil {
			return nil, err
		}
		result.PaginationToken = token
	}
	return result, nil
}

func (db *Database) FindInFlightStakes(
	ctx context.Context, updatedBefore int64, limit int64,
) ([]model.StakeRecordDocument, error) {
	filter := bson.M{
		"pending_call": bson.M{"$gt": ""},
		"updated_at":   bson.M{"$lt": updatedBefore},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := db.collection(model.StakeRecordCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.StakeRecordDocument
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}
