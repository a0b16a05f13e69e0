package services

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/rs/zerolog/log"
)

// emitEvent publishes a committed transition. The ledger is already the source
// of truth at this point, so a publish failure only gets logged and counted.
func (s *Service) emitEvent(
	ctx context.Context, eventType types.EventType, owner, assetID string,
	state types.StakeState, callID string, opts ...func(*types.StakeEvent),
) {
	ev := &types.StakeEvent{
		EventType: eventType,
		Owner:     owner,
		AssetID:   assetID,
		State:     state,
		CallID:    callID,
		Timestamp: s.nowUnix(),
	}
	for _, opt := range opts {
		opt(ev)
	}

	if err := s.consumer.PushStakeEvent(ctx, ev); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Stringer("event_type", eventType).
			Str("owner", owner).
			Str("asset_id", assetID).
			Msg("failed to publish stake event")
	}
}

func withAmount(amount sdkmath.Int) func(*types.StakeEvent) {
	return func(ev *types.StakeEvent) {
		ev.Amount = amount.String()
	}
}

func withFailureReason(reason string) func(*types.StakeEvent) {
	return func(ev *types.StakeEvent) {
		ev.FailureReason = reason
	}
}
