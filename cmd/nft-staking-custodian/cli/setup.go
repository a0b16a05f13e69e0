package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/babylonlabs-io/nft-staking-custodian/consumer"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/config"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	dbmodel "github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/queue"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/services"
)

// stack holds everything a command needs to run the service
type stack struct {
	db       db.DbInterface
	consumer consumer.EventConsumer
	service  *services.Service
	closeDb  func(ctx context.Context) error
}

func openLedger(ctx context.Context, cfg *config.Config) (db.DbInterface, func(ctx context.Context) error, error) {
	switch cfg.Db.Backend {
	case config.DbBackendLevelDB:
		ldb, err := db.NewLevelDatabase(cfg.Db.LevelDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("error while opening leveldb ledger: %w", err)
		}
		return ldb, func(context.Context) error { return ldb.Close() }, nil
	default:
		if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
			return nil, nil, fmt.Errorf("error while setting up stake db model: %w", err)
		}
		mdb, err := db.New(ctx, cfg.Db)
		if err != nil {
			return nil, nil, fmt.Errorf("error while creating db client: %w", err)
		}
		return mdb, mdb.Close, nil
	}
}

func newStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	ledger, closeDb, err := openLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}
	dbClient := db.DbInterface(db.NewDbWithMetrics(ledger))

	var eventConsumer consumer.EventConsumer = queue.NoopConsumer{}
	if cfg.Queue != nil {
		qm, err := queue.NewQueueManager(cfg.Queue)
		if err != nil {
			closeDb(ctx)
			return nil, fmt.Errorf("failed to initialize event consumer: %w", err)
		}
		eventConsumer = qm
	}

	client := assetclient.NewClientWithMetrics(assetclient.NewClient(&cfg.Gateway, &cfg.Contract))

	service, err := services.NewService(cfg, dbClient, client, client, client, eventConsumer)
	if err != nil {
		eventConsumer.Stop()
		closeDb(ctx)
		return nil, fmt.Errorf("error while creating service: %w", err)
	}

	return &stack{
		db:       dbClient,
		consumer: eventConsumer,
		service:  service,
		closeDb:  closeDb,
	}, nil
}

// close waits for in-flight confirmations before releasing the ledger and the queue
func (s *stack) close(ctx context.Context) error {
	var errs []error
	if err := s.service.WaitForConfirmations(ctx); err != nil {
		errs = append(errs, fmt.Errorf("confirmations still in flight: %w", err))
	}
	if err := s.consumer.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop event consumer: %w", err))
	}
	if err := s.closeDb(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close ledger: %w", err))
	}
	return errors.Join(errs...)
}
