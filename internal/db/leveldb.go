package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	writeOpt = opt.WriteOptions{Sync: true}
	readOpt  = opt.ReadOptions{}
	scanOpt  = opt.ReadOptions{DontFillCache: true}

	stakePrefix = []byte("stake/")
	// inFlightPrefix indexes records with a pending call so reconciliation
	// never walks the whole ledger
	inFlightPrefix = []byte("inflight/")
)

// LevelDatabase is the embedded ledger backend. Records are bson encoded
// under stakePrefix + StakeKey(owner, assetID).
type LevelDatabase struct {
	db *leveldb.DB
	// leveldb has no conditional writes, mu serializes every read-check-write
	mu sync.Mutex
}

func NewLevelDatabase(path string) (*LevelDatabase, error) {
	// OpenFile owns the file storage, closing the db releases its lock
	ldb, err := leveldb.OpenFile(path, &opt.Options{})
	if _, corrupted := err.(*dberrors.ErrCorrupted); corrupted {
		ldb, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &LevelDatabase{db: ldb}, nil
}

// NewInMemoryDatabase returns a fresh ledger kept in memory only
func NewInMemoryDatabase() (*LevelDatabase, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), &opt.Options{})
	if err != nil {
		return nil, err
	}
	return &LevelDatabase{db: ldb}, nil
}

func (ldb *LevelDatabase) Close() error {
	return ldb.db.Close()
}

func (ldb *LevelDatabase) Ping(ctx context.Context) error {
	_, err := ldb.db.GetProperty("leveldb.num-files-at-level0")
	return err
}

func stakeKey(owner, assetID string) []byte {
	return append(append([]byte{}, stakePrefix...), model.StakeKey(owner, assetID)...)
}

func inFlightKey(owner, assetID string) []byte {
	return append(append([]byte{}, inFlightPrefix...), model.StakeKey(owner, assetID)...)
}

func (ldb *LevelDatabase) get(key []byte) (*model.StakeRecordDocument, error) {
	val, err := ldb.db.Get(key, &readOpt)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record model.StakeRecordDocument
	if err := bson.Unmarshal(val, &record); err != nil {
		return nil, fmt.Errorf("failed to decode stake record %s: %w", key, err)
	}
	return &record, nil
}

func (ldb *LevelDatabase) put(record *model.StakeRecordDocument) error {
	val, err := bson.Marshal(record)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put(stakeKey(record.Owner, record.AssetID), val)
	if record.InFlight() {
		batch.Put(inFlightKey(record.Owner, record.AssetID), nil)
	} else {
		batch.Delete(inFlightKey(record.Owner, record.AssetID))
	}
	return ldb.db.Write(batch, &writeOpt)
}

func (ldb *LevelDatabase) SaveNewStake(ctx context.Context, record *model.StakeRecordDocument) error {
	if record == nil {
		return errors.New("nil stake record")
	}

	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	existing, err := ldb.get(stakeKey(record.Owner, record.AssetID))
	if err != nil {
		return err
	}
	// a failed record with nothing in flight can be restaked
	if existing != nil && (existing.State != types.StateFailed || existing.InFlight()) {
		return &DuplicateKeyError{
			Key:     record.ID,
			Message: "stake record already exists",
		}
	}

	return ldb.put(record)
}

func (ldb *LevelDatabase) GetStake(ctx context.Context, owner, assetID string) (*model.StakeRecordDocument, error) {
	record, err := ldb.get(stakeKey(owner, assetID))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &NotFoundError{
			Key:     model.StakeKey(owner, assetID),
			Message: "stake record not found",
		}
	}
	return record, nil
}

// qualifiedRecord loads the record and checks the transition condition, mu must be held
func (ldb *LevelDatabase) qualifiedRecord(
	owner, assetID string, qualifiedStates []types.StakeState, expectedCall string,
) (*model.StakeRecordDocument, error) {
	if len(qualifiedStates) == 0 {
		return nil, errors.New("qualified states can't be empty")
	}

	record, err := ldb.get(stakeKey(owner, assetID))
	if err != nil {
		return nil, err
	}

	if record == nil || !slices.Contains(qualifiedStates, record.State) || record.PendingCall != expectedCall {
		return nil, &NotFoundError{
			Key:     model.StakeKey(owner, assetID),
			Message: "stake record not found or current state is not qualified",
		}
	}
	return record, nil
}

func (ldb *LevelDatabase) TransitionStake(
	ctx context.Context,
	owner, assetID string,
	qualifiedStates []types.StakeState,
	expectedCall string,
	newState types.StakeState,
	opts ...UpdateOption,
) error {
	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	record, err := ldb.qualifiedRecord(owner, assetID, qualifiedStates, expectedCall)
	if err != nil {
		return err
	}

	newUpdateOptions(opts).apply(record, newState)
	return ldb.put(record)
}

func (ldb *LevelDatabase) DeleteStake(
	ctx context.Context,
	owner, assetID string,
	qualifiedStates []types.StakeState,
	expectedCall string,
) error {
	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	if _, err := ldb.qualifiedRecord(owner, assetID, qualifiedStates, expectedCall); err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Delete(stakeKey(owner, assetID))
	batch.Delete(inFlightKey(owner, assetID))
	return ldb.db.Write(batch, &writeOpt)
}

func (ldb *LevelDatabase) ListStakes(
	ctx context.Context, owner, paginationToken string, limit int64,
) (*DbResultMap[model.StakeRecordDocument], error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	prefix := append(append([]byte{}, stakePrefix...), model.OwnerKeyPrefix(owner)...)
	r := util.BytesPrefix(prefix)
	if paginationToken != "" {
		lastAssetID, err := decodePaginationToken(paginationToken)
		if err != nil {
			return nil, err
		}
		// smallest key sorting after the last returned one
		r.Start = append(append(append([]byte{}, prefix...), lastAssetID...), 0x00)
	}

	iter := ldb.db.NewIterator(r, &scanOpt)
	defer iter.Release()

	var records []model.StakeRecordDocument
	for iter.Next() && int64(len(records)) <= limit {
		var record model.StakeRecordDocument
		if err := bson.Unmarshal(iter.Value(), &record); err != nil {
			return nil, fmt.Errorf("failed to decode stake record %s: %w", iter.Key(), err)
		}
		records = append(records, record)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	return toResultMap(records, limit)
}

func (ldb *LevelDatabase) FindInFlightStakes(
	ctx context.Context, updatedBefore int64, limit int64,
) ([]model.StakeRecordDocument, error) {
	iter := ldb.db.NewIterator(util.BytesPrefix(inFlightPrefix), &scanOpt)
	defer iter.Release()

	var records []model.StakeRecordDocument
	for iter.Next() && int64(len(records)) < limit {
		owner, assetID, ok := model.SplitStakeKey(string(iter.Key()[len(inFlightPrefix):]))
		if !ok {
			continue
		}

		record, err := ldb.get(stakeKey(owner, assetID))
		if err != nil {
			return nil, err
		}
		if record == nil || !record.InFlight() || record.UpdatedAt >= updatedBefore {
			continue
		}
		records = append(records, *record)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	return records, nil
}
