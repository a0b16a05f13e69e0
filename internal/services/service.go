package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/babylonlabs-io/nft-staking-custodian/consumer"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/config"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/reward"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/babylonlabs-io/nft-staking-custodian/pkg"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ledgerWriteTimeout bounds every ledger write made after a remote call resolved
const ledgerWriteTimeout = 10 * time.Second

type Service struct {
	cfg        *config.Config
	db         db.DbInterface
	nft        assetclient.NFTContract
	ft         assetclient.FTContract
	native     assetclient.NativeTransferer
	consumer   consumer.EventConsumer
	calculator *reward.Calculator
	validate   *validator.Validate

	now       func() time.Time
	newCallID func() string

	// confirmations tracks continuation goroutines still awaiting a remote call
	confirmations sync.WaitGroup
}

type Option func(*Service)

// WithClock replaces the wall clock used for timestamps and accrual
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithCallIDGenerator(newCallID func() string) Option {
	return func(s *Service) {
		s.newCallID = newCallID
	}
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	nft assetclient.NFTContract,
	ft assetclient.FTContract,
	native assetclient.NativeTransferer,
	consumer consumer.EventConsumer,
	opts ...Option,
) (*Service, error) {
	validate := validator.New()
	if err := pkg.RegisterValidators(validate); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	s := &Service{
		cfg:        cfg,
		db:         db,
		nft:        nft,
		ft:         ft,
		native:     native,
		consumer:   consumer,
		calculator: reward.NewCalculator(cfg.Contract.RewardRatePerSecond()),
		validate:   validate,
		now:        time.Now,
		newCallID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WaitForConfirmations blocks until every dispatched remote call resolved or ctx is done
func (s *Service) WaitForConfirmations(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.confirmations.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) nowUnix() int64 {
	return s.now().Unix()
}

func (s *Service) validateRequest(req any) *types.Error {
	if err := s.validate.Struct(req); err != nil {
		return types.NewValidationFailedError(err)
	}
	return nil
}

// ledgerContext detaches ctx from the remote call deadline for the write that follows it
func ledgerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
}

// callContext bounds a single remote call
func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Gateway.CallTimeout)
}
