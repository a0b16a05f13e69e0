package db

import (
	"context"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

type DbInterface interface {
	Ping(ctx context.Context) error
	/**
	 * SaveNewStake saves a new stake record. A FAILED record without an
	 * in-flight call under the same key is replaced.
	 * @param ctx The context
	 * @param record The stake record
	 * @return An error if the operation failed, DuplicateKeyError if a live record exists
	 */
	SaveNewStake(ctx context.Context, record *model.StakeRecordDocument) error
	/**
	 * GetStake retrieves the record of an owner for an asset.
	 * @param ctx The context
	 * @param owner The owner account id
	 * @param assetID The asset id
	 * @return The record or NotFoundError
	 */
	GetStake(ctx context.Context, owner, assetID string) (*model.StakeRecordDocument, error)
	/**
	 * TransitionStake updates the state of a record if its current state is one of
	 * qualifiedStates and its pending call equals expectedCall.
	 * @param ctx The context
	 * @param owner The owner account id
	 * @param assetID The asset id
	 * @param qualifiedStates The states the record may currently be in
	 * @param expectedCall The pending call id the record must currently carry ("" for none)
	 * @param newState The new state
	 * @param opts Additional fields to set
	 * @return NotFoundError if no record satisfies the condition
	 */
	TransitionStake(
		ctx context.Context, owner, assetID string,
		qualifiedStates []types.StakeState, expectedCall string,
		newState types.StakeState, opts ...UpdateOption,
	) error
	/**
	 * DeleteStake removes a record under the same condition as TransitionStake.
	 * @return NotFoundError if no record satisfies the condition
	 */
	DeleteStake(
		ctx context.Context, owner, assetID string,
		qualifiedStates []types.StakeState, expectedCall string,
	) error
	/**
	 * ListStakes retrieves one page of the records of an owner ordered by asset id.
	 * @param ctx The context
	 * @param owner The owner account id
	 * @param paginationToken The token returned with the previous page, empty for the first
	 * @param limit The page size
	 * @return The page or InvalidPaginationTokenError
	 */
	ListStakes(
		ctx context.Context, owner, paginationToken string, limit int64,
	) (*DbResultMap[model.StakeRecordDocument], error)
	/**
	 * FindInFlightStakes retrieves records whose pending call was issued before updatedBefore.
	 * @param ctx The context
	 * @param updatedBefore Unix seconds deadline
	 * @param limit The maximum number of records
	 * @return The records
	 */
	FindInFlightStakes(ctx context.Context, updatedBefore int64, limit int64) ([]model.StakeRecordDocument, error)
}

type DbResultMap[T any] struct {
	Data            []T    `json:"data"`
	PaginationToken string `json:"paginationToken"`
}
