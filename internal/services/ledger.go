package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/rs/zerolog/log"
)

// getOwnedRecord fetches the record of caller for assetID
func (s *Service) getOwnedRecord(ctx context.Context, caller, assetID string) (*model.StakeRecordDocument, *types.Error) {
	record, err := s.db.GetStake(ctx, caller, assetID)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewErrorWithMsg(
				http.StatusNotFound, types.NotFound, fmt.Sprintf("no stake of %s for asset %s", caller, assetID),
			)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to get stake: %w", err))
	}

	// records are keyed by owner, a mismatch means the stored record is corrupt
	if record.Owner != caller {
		return nil, types.NewErrorWithMsg(
			http.StatusForbidden, types.NotOwner, fmt.Sprintf("asset %s is not staked by %s", assetID, caller),
		)
	}
	return record, nil
}

func invalidStateError(record *model.StakeRecordDocument, op string) *types.Error {
	if record.InFlight() {
		return types.NewErrorWithMsg(
			http.StatusConflict, types.InvalidState,
			fmt.Sprintf("cannot %s asset %s: %s call %s is in flight", op, record.AssetID, record.PendingCallKind, record.PendingCall),
		)
	}
	return types.NewErrorWithMsg(
		http.StatusConflict, types.InvalidState,
		fmt.Sprintf("cannot %s asset %s in state %s", op, record.AssetID, record.State),
	)
}

// staleResult handles a conditional write that matched nothing: the confirmation
// was already applied (or superseded by reconciliation) and is a no-op.
func (s *Service) staleResult(ctx context.Context, owner, assetID, callID string) (*Result, *types.Error) {
	log.Ctx(ctx).Debug().
		Str("owner", owner).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Msg("confirmation already applied, skipping")

	record, err := s.db.GetStake(ctx, owner, assetID)
	if err != nil {
		if db.IsNotFoundError(err) {
			return &Result{CallID: callID, State: types.StateReleased}, nil
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to get stake: %w", err))
	}
	return &Result{CallID: callID, State: record.State}, nil
}

// markStaked commits a confirmed custody transfer. Accrual starts at confirmation.
func (s *Service) markStaked(ctx context.Context, owner, assetID, callID string) (*Result, *types.Error) {
	ctx, cancel := ledgerContext(ctx)
	defer cancel()

	now := s.nowUnix()
	err := s.db.TransitionStake(
		ctx, owner, assetID,
		types.QualifiedStatesForStakeConfirmed(), callID,
		types.StateStaked,
		db.WithoutPendingCall(),
		db.WithStakedAt(now),
		db.WithLastClaimAt(now),
		db.WithUpdatedAt(now),
	)
	if err != nil {
		if db.IsNotFoundError(err) {
			return s.staleResult(ctx, owner, assetID, callID)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to mark stake as staked: %w", err))
	}

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Msg("asset staked")
	metrics.RecordStateTransition(types.StateStaked.String())
	s.emitEvent(ctx, types.EventStakeConfirmed, owner, assetID, types.StateStaked, callID)
	return &Result{CallID: callID, State: types.StateStaked}, nil
}

// markFailed moves an in-flight PENDING or UNSTAKING record to FAILED, keeping it in the ledger
func (s *Service) markFailed(
	ctx context.Context, owner, assetID, callID, reason string, eventType types.EventType,
) (*Result, *types.Error) {
	ctx, cancel := ledgerContext(ctx)
	defer cancel()

	err := s.db.TransitionStake(
		ctx, owner, assetID,
		types.QualifiedStatesForFailure(), callID,
		types.StateFailed,
		db.WithoutPendingCall(),
		db.WithFailureReason(reason),
		db.WithUpdatedAt(s.nowUnix()),
	)
	if err != nil {
		if db.IsNotFoundError(err) {
			return s.staleResult(ctx, owner, assetID, callID)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to mark stake as failed: %w", err))
	}

	log.Ctx(ctx).Warn().
		Str("owner", owner).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Str("reason", reason).
		Msg("stake failed")
	metrics.RecordStateTransition(types.StateFailed.String())
	s.emitEvent(ctx, eventType, owner, assetID, types.StateFailed, callID, withFailureReason(reason))
	return &Result{CallID: callID, State: types.StateFailed}, nil
}

// markReleased removes a record whose asset is confirmed back with its owner
func (s *Service) markReleased(
	ctx context.Context, owner, assetID, callID string, qualifiedStates []types.StakeState, eventType types.EventType,
) (*Result, *types.Error) {
	ctx, cancel := ledgerContext(ctx)
	defer cancel()

	if err := s.db.DeleteStake(ctx, owner, assetID, qualifiedStates, callID); err != nil {
		if db.IsNotFoundError(err) {
			return s.staleResult(ctx, owner, assetID, callID)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to release stake: %w", err))
	}

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Msg("asset released")
	metrics.RecordStateTransition(types.StateReleased.String())
	s.emitEvent(ctx, eventType, owner, assetID, types.StateReleased, callID)
	return &Result{CallID: callID, State: types.StateReleased}, nil
}
