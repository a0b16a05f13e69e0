package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/observability/metrics"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/rs/zerolog/log"
)

type stakeRequest struct {
	Caller  string `validate:"account_id"`
	AssetID string `validate:"asset_id"`
}

// Stake records assetID as PENDING for caller and dispatches the custody
// transfer. approvalID is forwarded to the NFT contract when the custody
// account was approved instead of the caller signing the transfer.
func (s *Service) Stake(
	ctx context.Context, caller, assetID string, approvalID *uint64,
) (*Confirmation, *types.Error) {
	if err := s.validateRequest(&stakeRequest{Caller: caller, AssetID: assetID}); err != nil {
		return nil, err
	}

	callID := s.newCallID()
	record := model.NewStakeRecordDocument(caller, assetID, s.nowUnix(), callID)
	if err := s.db.SaveNewStake(ctx, record); err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil, types.NewErrorWithMsg(
				http.StatusConflict, types.AlreadyStaked, fmt.Sprintf("asset %s is already staked by %s", assetID, caller),
			)
		}
		return nil, types.NewInternalServiceError(fmt.Errorf("failed to save stake: %w", err))
	}

	metrics.RecordStateTransition(types.StatePending.String())
	log.Ctx(ctx).Info().
		Str("owner", caller).
		Str("asset_id", assetID).
		Str("call_id", callID).
		Msg("stake accepted, dispatching custody transfer")

	return s.dispatch(ctx, callID, func(ctx context.Context) (*Result, *types.Error) {
		return s.completeStake(ctx, caller, assetID, callID, approvalID)
	}), nil
}

func (s *Service) completeStake(
	ctx context.Context, owner, assetID, callID string, approvalID *uint64,
) (*Result, *types.Error) {
	callCtx, cancel := s.callContext(ctx)
	err := s.nft.NftTransfer(callCtx, &assetclient.NftTransferRequest{
		SenderID:   owner,
		ReceiverID: s.cfg.Contract.CustodyAccount,
		TokenID:    assetID,
		ApprovalID: approvalID,
		Memo:       "stake",
	}, s.cfg.Budget.NftTransfer())
	cancel()

	switch classifyCall(types.CallKindStake, err) {
	case outcomeConfirmed:
		return s.markStaked(ctx, owner, assetID, callID)
	case outcomeFailed:
		if _, markErr := s.markFailed(
			ctx, owner, assetID, callID, failureReason(types.CallKindStake, err), types.EventStakeFailed,
		); markErr != nil {
			return nil, markErr
		}
		return nil, remoteCallError(types.CallKindStake, callID, err)
	default:
		return nil, remoteCallError(types.CallKindStake, callID, err)
	}
}
