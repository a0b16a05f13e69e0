package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/utils/poller"
	"github.com/rs/zerolog/log"
)

type reconcileRequest struct {
	Caller  string `validate:"account_id"`
	Owner   string `validate:"account_id"`
	AssetID string `validate:"asset_id"`
}

// Reconcile resolves the record of owner for assetID against the authoritative
// token ownership: a call stuck past the grace period, or a FAILED record whose
// asset may still sit in custody. Only the owner or the admin account may call it.
func (s *Service) Reconcile(ctx context.Context, caller, owner, assetID string) (*Confirmation, *types.Error) {
	if err := s.validateRequest(&reconcileRequest{Caller: caller, Owner: owner, AssetID: assetID}); err != nil {
		return nil, err
	}
	if caller != owner && caller != s.cfg.Contract.AdminAccount {
		return nil, types.NewErrorWithMsg(
			http.StatusForbidden, types.NotOwner, fmt.Sprintf("%s may not reconcile stakes of %s", caller, owner),
		)
	}

	record, err := s.getOwnedRecord(ctx, owner, assetID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReconcilable(record, s.nowUnix()); err != nil {
		return nil, err
	}

	return s.dispatch(ctx, record.PendingCall, func(ctx context.Context) (*Result, *types.Error) {
		return s.reconcileRecord(ctx, record)
	}), nil
}

// StartReconciler periodically reconciles every record stuck in flight past the grace period
func (s *Service) StartReconciler(ctx context.Context) {
	reconcilePoller := poller.NewPoller(
		"reconciler",
		s.cfg.Poller.ReconcilePollingInterval,
		metrics.RecordPollerDuration("reconcile", s.ReconcileStuckStakes),
	)
	go reconcilePoller.Start(ctx)
}

// ReconcileStuckStakes runs one reconciliation sweep over at most
// InFlightStakesLimit stuck records
func (s *Service) ReconcileStuckStakes(ctx context.Context) error {
	deadline := s.graceDeadline(s.nowUnix())
	records, err := s.db.FindInFlightStakes(ctx, deadline, s.cfg.Poller.InFlightStakesLimit)
	if err != nil {
		return fmt.Errorf("failed to find in-flight stakes: %w", err)
	}
	metrics.RecordStuckStakesCount(len(records))

	var errs []error
	for i := range records {
		record := &records[i]
		result, rErr := s.reconcileRecord(ctx, record)
		if rErr != nil {
			errs = append(errs, fmt.Errorf("failed to reconcile %s: %w", record.ID, rErr))
			if err := s.deferReconcile(ctx, record); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		log.Ctx(ctx).Info().
			Str("owner", record.Owner).
			Str("asset_id", record.AssetID).
			Str("call_id", record.PendingCall).
			Stringer("previous_state", record.State).
			Stringer("state", result.State).
			Msg("stuck stake reconciled")
	}

	return errors.Join(errs...)
}

// deferReconcile bumps updated_at of a record the sweep could not resolve, so it
// waits another grace period and leaves room in the next sweeps for other records.
// The write is conditional on the record being untouched since it was read.
func (s *Service) deferReconcile(ctx context.Context, record *model.StakeRecordDocument) error {
	ctx, cancel := ledgerContext(ctx)
	defer cancel()

	err := s.db.TransitionStake(
		ctx, record.Owner, record.AssetID,
		[]types.StakeState{record.State}, record.PendingCall,
		record.State,
		db.WithUpdatedAt(s.nowUnix()),
	)
	if err != nil && !db.IsNotFoundError(err) {
		return fmt.Errorf("failed to defer reconciliation of %s: %w", record.ID, err)
	}
	return nil
}

func (s *Service) graceDeadline(now int64) int64 {
	return now - int64(s.cfg.Poller.ReconcileGracePeriod/time.Second)
}

func (s *Service) checkReconcilable(record *model.StakeRecordDocument, now int64) *types.Error {
	if record.InFlight() {
		if record.UpdatedAt >= s.graceDeadline(now) {
			return types.NewErrorWithMsg(
				http.StatusConflict, types.InvalidState,
				fmt.Sprintf("%s call %s on asset %s is still within the grace period", record.PendingCallKind, record.PendingCall, record.AssetID),
			)
		}
		return nil
	}
	if record.State == types.StateFailed {
		return nil
	}
	return invalidStateError(record, "reconcile")
}

func (s *Service) reconcileRecord(ctx context.Context, record *model.StakeRecordDocument) (*Result, *types.Error) {
	result, err := s.resolveRecord(ctx, record)
	if err != nil {
		metrics.RecordReconcileOutcome(metrics.Error.String())
		return nil, err
	}
	metrics.RecordReconcileOutcome(result.State.String())
	return result, nil
}

func (s *Service) resolveRecord(ctx context.Context, record *model.StakeRecordDocument) (*Result, *types.Error) {
	switch {
	case record.InFlight() && record.PendingCallKind == types.CallKindClaim:
		// the payout outcome is unknown, the next claim starts from the same lastClaimAt
		return s.releaseClaim(ctx, record.Owner, record.AssetID, record.PendingCall)
	case record.InFlight() && record.State == types.StatePending:
		return s.reconcilePending(ctx, record)
	case record.InFlight() && record.State == types.StateUnstaking:
		return s.reconcileUnstaking(ctx, record)
	case record.State == types.StateFailed:
		return s.recoverFailed(ctx, record)
	default:
		return nil, invalidStateError(record, "reconcile")
	}
}

// tokenOwner returns the current owner of assetID, empty when the token does not exist
func (s *Service) tokenOwner(ctx context.Context, assetID string) (string, *types.Error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	token, err := s.nft.NftToken(callCtx, assetID, s.cfg.Budget.NftToken())
	if err != nil {
		return "", types.NewError(
			http.StatusBadGateway, types.RemoteCallFailed, fmt.Errorf("failed to query owner of %s: %w", assetID, err),
		)
	}
	if token == nil {
		return "", nil
	}
	return token.OwnerID, nil
}

func (s *Service) reconcilePending(ctx context.Context, record *model.StakeRecordDocument) (*Result, *types.Error) {
	holder, err := s.tokenOwner(ctx, record.AssetID)
	if err != nil {
		return nil, err
	}
	if holder == s.cfg.Contract.CustodyAccount {
		return s.markStaked(ctx, record.Owner, record.AssetID, record.PendingCall)
	}

	reason := fmt.Sprintf("reconcile: custody transfer not observed, asset held by %q", holder)
	return s.markFailed(ctx, record.Owner, record.AssetID, record.PendingCall, reason, types.EventStakeFailed)
}

func (s *Service) reconcileUnstaking(ctx context.Context, record *model.StakeRecordDocument) (*Result, *types.Error) {
	holder, err := s.tokenOwner(ctx, record.AssetID)
	if err != nil {
		return nil, err
	}
	if holder == record.Owner {
		return s.markReleased(
			ctx, record.Owner, record.AssetID, record.PendingCall,
			types.QualifiedStatesForUnstakeConfirmed(), types.EventUnstakeConfirmed,
		)
	}

	reason := fmt.Sprintf("reconcile: custody return not observed, asset held by %q", holder)
	return s.markFailed(ctx, record.Owner, record.AssetID, record.PendingCall, reason, types.EventUnstakeFailed)
}

// recoverFailed settles a FAILED record: removed when the owner already holds
// the asset, otherwise the asset is transferred from custody back to the owner.
func (s *Service) recoverFailed(ctx context.Context, record *model.StakeRecordDocument) (*Result, *types.Error) {
	holder, err := s.tokenOwner(ctx, record.AssetID)
	if err != nil {
		return nil, err
	}

	switch holder {
	case record.Owner:
		return s.markReleased(
			ctx, record.Owner, record.AssetID, record.PendingCall,
			types.QualifiedStatesForRecovery(), types.EventAssetRecovered,
		)
	case s.cfg.Contract.CustodyAccount:
		return s.recoverFromCustody(ctx, record)
	default:
		return nil, types.NewErrorWithMsg(
			http.StatusConflict, types.InvalidState,
			fmt.Sprintf("asset %s is held by %q, neither its owner nor custody", record.AssetID, holder),
		)
	}
}

func (s *Service) recoverFromCustody(ctx context.Context, record *model.StakeRecordDocument) (*Result, *types.Error) {
	owner, assetID := record.Owner, record.AssetID
	callID := s.newCallID()

	lockCtx, cancel := ledgerContext(ctx)
	err := s.db.TransitionStake(
		lockCtx, owner, assetID,
		types.QualifiedStatesForRecovery(), record.PendingCall,
		types.StateFailed,
		db.WithPendingCall(callID, types.CallKindRecover, 0),
		db.WithUpdatedAt(s.nowUnix()),
	)
	cancel()
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, invalidStateError(record, "recover")
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to lock stake for recovery: %w", err))
	}

	log.Ctx(ctx).Info().
		Str("owner", owner).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Msg("recovering asset from custody")

	callCtx, cancel := s.callContext(ctx)
	callErr := s.nft.NftTransfer(callCtx, &assetclient.NftTransferRequest{
		SenderID:   s.cfg.Contract.CustodyAccount,
		ReceiverID: owner,
		TokenID:    assetID,
		Memo:       "recover",
	}, s.cfg.Budget.NftTransfer())
	cancel()

	switch classifyCall(types.CallKindRecover, callErr) {
	case outcomeConfirmed:
		return s.markReleased(ctx, owner, assetID, callID, types.QualifiedStatesForRecovery(), types.EventAssetRecovered)
	case outcomeFailed:
		releaseCtx, cancel := ledgerContext(ctx)
		defer cancel()
		if err := s.db.TransitionStake(
			releaseCtx, owner, assetID,
			types.QualifiedStatesForRecovery(), callID,
			types.StateFailed,
			db.WithoutPendingCall(),
			db.WithFailureReason(failureReason(types.CallKindRecover, callErr)),
			db.WithUpdatedAt(s.nowUnix()),
		); err != nil && !db.IsNotFoundError(err) {
			return nil, types.NewInternalServiceError(fmt.Errorf("failed to release recovery lock: %w", err))
		}
		return nil, remoteCallError(types.CallKindRecover, callID, callErr)
	default:
		// the lock stays, the next sweep resolves it from token ownership
		return nil, remoteCallError(types.CallKindRecover, callID, callErr)
	}
}
