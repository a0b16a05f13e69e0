package consumer

import (
	"context"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

//go:generate mockery --name=EventConsumer --output=../tests/mocks --outpkg=mocks --filename=mock_event_consumer.go
type EventConsumer interface {
	PushStakeEvent(ctx context.Context, ev *types.StakeEvent) error
	Stop() error
}
