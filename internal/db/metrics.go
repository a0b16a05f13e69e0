package db

import (
	"context"
	"time"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveNewStake(ctx context.Context, record *model.StakeRecordDocument) error {
	return d.run("SaveNewStake", func() error {
		return d.db.SaveNewStake(ctx, record)
	})
}

func (d *DbWithMetrics) GetStake(ctx context.Context, owner, assetID string) (result *model.StakeRecordDocument, err error) {
	//nolint:errcheck
	d.run("GetStake", func() error {
		result, err = d.db.GetStake(ctx, owner, assetID)
		return err
	})
	return
}

func (d *DbWithMetrics) TransitionStake(
	ctx context.Context, owner, assetID string,
	qualifiedStates []types.StakeState, expectedCall string,
	newState types.StakeState, opts ...UpdateOption,
) error {
	return d.run("TransitionStake", func() error {
		return d.db.TransitionStake(ctx, owner, assetID, qualifiedStates, expectedCall, newState, opts...)
	})
}

func (d *DbWithMetrics) DeleteStake(
	ctx context.Context, owner, assetID string,
	qualifiedStates []types.StakeState, expectedCall string,
) error {
	return d.run("DeleteStake", func() error {
		return d.db.DeleteStake(ctx, owner, assetID, qualifiedStates, expectedCall)
	})
}

func (d *DbWithMetrics) ListStakes(
	ctx context.Context, owner, paginationToken string, limit int64,
) (result *DbResultMap[model.StakeRecordDocument], err error) {
	//nolint:errcheck
	d.run("ListStakes", func() error {
		result, err = d.db.ListStakes(ctx, owner, paginationToken, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) FindInFlightStakes(ctx context.Context, updatedBefore int64, limit int64) (result []model.StakeRecordDocument, err error) {
	//nolint:errcheck
	d.run("FindInFlightStakes", func() error {
		result, err = d.db.FindInFlightStakes(ctx, updatedBefore, limit)
		return err
	})
	return
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
