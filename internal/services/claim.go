package services

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/rs/zerolog/log"
)

// Claim pays the reward accrued by the STAKED record of caller. The accrual is
// cut at the time of the request; lastClaimAt only advances once the payout is
// confirmed, and the record stays locked meanwhile so nothing is paid twice.
func (s *Service) Claim(ctx context.Context, caller, assetID string) (*Confirmation, *types.Error) {
	if err := s.validateRequest(&stakeRequest{Caller: caller, AssetID: assetID}); err != nil {
		return nil, err
	}

	record, err := s.getOwnedRecord(ctx, caller, assetID)
	if err != nil {
		return nil, err
	}
	if record.State != types.StateStaked || record.InFlight() {
		return nil, invalidStateError(record, "claim")
	}

	now := s.nowUnix()
	accrual := s.calculator.Accrued(record, now)
	if accrual.ClockAnomaly {
		metrics.IncClockAnomalies()
		log.Ctx(ctx).Warn().
			Str("owner", caller).
			Str("asset_id", assetID).
			Int64("last_claim_at", record.LastClaimAt).
			Int64("now", now).
			Msg("clock is behind the last claim, nothing accrued")
	}
	if accrual.Amount.IsZero() {
		zero := sdkmath.ZeroInt()
		return completedConfirmation(&Result{State: types.StateStaked, Amount: &zero}), nil
	}

	callID := s.newCallID()
	if dbErr := s.db.TransitionStake(
		ctx, caller, assetID,
		types.QualifiedStatesForClaim(), "",
		types.StateStaked,
		db.WithPendingCall(callID, types.CallKindClaim, now),
		db.WithUpdatedAt(now),
	); dbErr != nil {
		if db.IsNotFoundError(dbErr) {
			return nil, invalidStateError(record, "claim")
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to lock stake for claim: %w", dbErr))
	}

	log.Ctx(ctx).Info().
		Str("owner", caller).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Stringer("amount", accrual.Amount).
		Msg("claim accepted, dispatching reward transfer")

	amount := accrual.Amount
	return s.dispatch(ctx, callID, func(ctx context.Context) (*Result, *types.Error) {
		return s.completeClaim(ctx, caller, assetID, callID, now, amount)
	}), nil
}

func (s *Service) completeClaim(
	ctx context.Context, owner, assetID, callID string, claimAt int64, amount sdkmath.Int,
) (*Result, *types.Error) {
	callCtx, cancel := s.callContext(ctx)
	err := s.ft.FtTransfer(callCtx, &assetclient.FtTransferRequest{
		ReceiverID: owner,
		Amount:     amount,
		Memo:       "claim",
	}, s.cfg.Budget.FtTransfer())
	cancel()

	if classifyCall(types.CallKindClaim, err) == outcomeConfirmed {
		return s.settleClaim(ctx, owner, assetID, callID, claimAt, amount)
	}

	// failed or unknown, the lock is released and lastClaimAt stays
	if _, releaseErr := s.releaseClaim(ctx, owner, assetID, callID); releaseErr != nil {
		return nil, releaseErr
	}
	return nil, remoteCallError(types.CallKindClaim, callID, err)
}

func (s *Service) settleClaim(
	ctx context.Context, owner, assetID, callID string, claimAt int64, amount sdkmath.Int,
) (*Result, *types.Error) {
	ctx, cancel := ledgerContext(ctx)
	defer cancel()

	err := s.db.TransitionStake(
		ctx, owner, assetID,
		types.QualifiedStatesForClaim(), callID,
		types.StateStaked,
		db.WithoutPendingCall(),
		db.WithLastClaimAt(claimAt),
		db.WithUpdatedAt(s.nowUnix()),
	)
	if err != nil {
		if db.IsNotFoundError(err) {
			return s.orphanedPayout(ctx, owner, assetID, callID, amount)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to settle claim: %w", err))
	}

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Stringer("amount", amount).
		Msg("reward claimed")
	s.emitEvent(ctx, types.EventRewardClaimed, owner, assetID, types.StateStaked, callID, withAmount(amount))
	return &Result{CallID: callID, State: types.StateStaked, Amount: &amount}, nil
}

// orphanedPayout handles a payout the token contract confirmed after the claim lock
// was taken away from it. lastClaimAt did not advance, so the paid window can be
// claimed again: this needs an operator.
func (s *Service) orphanedPayout(
	ctx context.Context, owner, assetID, callID string, amount sdkmath.Int,
) (*Result, *types.Error) {
	metrics.IncOrphanedPayouts()
	log.Ctx(ctx).Error().
		Str("owner", owner).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Stringer("amount", amount).
		Msg("reward paid after the claim lock was released, last claim timestamp not advanced")

	result, err := s.staleResult(ctx, owner, assetID, callID)
	if err != nil {
		return nil, err
	}
	s.emitEvent(ctx, types.EventRewardClaimed, owner, assetID, result.State, callID, withAmount(amount))
	result.Amount = &amount
	return result, nil
}

// releaseClaim drops the claim lock without advancing lastClaimAt
func (s *Service) releaseClaim(ctx context.Context, owner, assetID, callID string) (*Result, *types.Error) {
	ctx, cancel := ledgerContext(ctx)
	defer cancel()

	err := s.db.TransitionStake(
		ctx, owner, assetID,
		types.QualifiedStatesForClaim(), callID,
		types.StateStaked,
		db.WithoutPendingCall(),
		db.WithUpdatedAt(s.nowUnix()),
	)
	if err != nil {
		if db.IsNotFoundError(err) {
			return s.staleResult(ctx, owner, assetID, callID)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to release claim lock: %w", err))
	}

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Msg("claim lock released")
	return &Result{CallID: callID, State: types.StateStaked}, nil
}
