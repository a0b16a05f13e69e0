package services

import (
	"context"
	"fmt"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/rs/zerolog/log"
)

// Unstake moves the STAKED record of caller to UNSTAKING and dispatches the
// transfer of the asset from custody back to caller.
func (s *Service) Unstake(ctx context.Context, caller, assetID string) (*Confirmation, *types.Error) {
	if err := s.validateRequest(&stakeRequest{Caller: caller, AssetID: assetID}); err != nil {
		return nil, err
	}

	record, err := s.getOwnedRecord(ctx, caller, assetID)
	if err != nil {
		return nil, err
	}
	if record.State != types.StateStaked || record.InFlight() {
		return nil, invalidStateError(record, "unstake")
	}

	callID := s.newCallID()
	if dbErr := s.db.TransitionStake(
		ctx, caller, assetID,
		types.QualifiedStatesForUnstake(), "",
		types.StateUnstaking,
		db.WithPendingCall(callID, types.CallKindUnstake, 0),
		db.WithUpdatedAt(s.nowUnix()),
	); dbErr != nil {
		if db.IsNotFoundError(dbErr) {
			// another operation took the record between the read and the write
			return nil, invalidStateError(record, "unstake")
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to mark stake as unstaking: %w", dbErr))
	}

	metrics.RecordStateTransition(types.StateUnstaking.String())
	log.Ctx(ctx).Info().
		Str("owner", caller).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Msg("unstake accepted, dispatching custody return")

	return s.dispatch(ctx, callID, func(ctx context.Context) (*Result, *types.Error) {
		return s.completeUnstake(ctx, caller, assetID, callID)
	}), nil
}

func (s *Service) completeUnstake(ctx context.Context, owner, assetID, callID string) (*Result, *types.Error) {
	callCtx, cancel := s.callContext(ctx)
	err := s.nft.NftTransfer(callCtx, &assetclient.NftTransferRequest{
		SenderID:   s.cfg.Contract.CustodyAccount,
		ReceiverID: owner,
		TokenID:    assetID,
		Memo:       "unstake",
	}, s.cfg.Budget.NftTransfer())
	cancel()

	switch classifyCall(types.CallKindUnstake, err) {
	case outcomeConfirmed:
		return s.markReleased(
			ctx, owner, assetID, callID, types.QualifiedStatesForUnstakeConfirmed(), types.EventUnstakeConfirmed,
		)
	case outcomeFailed:
		if _, markErr := s.markFailed(
			ctx, owner, assetID, callID, failureReason(types.CallKindUnstake, err), types.EventUnstakeFailed,
		); markErr != nil {
			return nil, markErr
		}
		return nil, remoteCallError(types.CallKindUnstake, callID, err)
	default:
		return nil, remoteCallError(types.CallKindUnstake, callID, err)
	}
}
