package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/nft-staking-custodian/consumer"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/config"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/queue"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
	"github.com/babylonlabs-io/nft-staking-custodian/tests/mocks"
)

const (
	custody = "custody.testnet"
	admin   = "admin.testnet"
	alice   = "alice.testnet"
	bob     = "bob.testnet"

	gracePeriod = time.Minute
)

type fakeClock struct {
	now atomic.Int64
}

func (c *fakeClock) Now() time.Time {
	return time.Unix(c.now.Load(), 0)
}

func (c *fakeClock) Set(ts int64) {
	c.now.Store(ts)
}

type testEnv struct {
	cfg    *config.Config
	svc    *Service
	db     db.DbInterface
	nft    *mocks.NFTContract
	ft     *mocks.FTContract
	native *mocks.NativeTransferer
	clock  *fakeClock
}

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{
		Db: config.DbConfig{
			Backend:            config.DbBackendLevelDB,
			MaxPaginationLimit: 3,
		},
		Contract: config.ContractConfig{
			NftContractID:  "nft.testnet",
			FtContractID:   "ft.testnet",
			CustodyAccount: custody,
			AdminAccount:   admin,
			RewardRate:     "1",
		},
		Gateway: config.GatewayConfig{
			Endpoint:      "http://localhost:3030",
			Timeout:       time.Second,
			CallTimeout:   time.Second,
			MaxRetryTimes: 1,
			RetryInterval: time.Millisecond,
		},
		Budget: *config.DefaultBudgetConfig(),
		Poller: config.PollerConfig{
			ReconcilePollingInterval: time.Second,
			ReconcileGracePeriod:     gracePeriod,
			InFlightStakesLimit:      10,
		},
	}
	require.NoError(t, cfg.Contract.Validate())
	return cfg
}

func setupTestEnv(t *testing.T) *testEnv {
	store, err := db.NewInMemoryDatabase()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})

	return setupTestEnvWithDb(t, store, queue.NoopConsumer{})
}

func setupTestEnvWithDb(t *testing.T, store db.DbInterface, eventConsumer consumer.EventConsumer) *testEnv {
	env := &testEnv{
		cfg:    testConfig(t),
		db:     store,
		nft:    mocks.NewNFTContract(t),
		ft:     mocks.NewFTContract(t),
		native: mocks.NewNativeTransferer(t),
		clock:  &fakeClock{},
	}
	env.clock.Set(100)

	var seq atomic.Int64
	svc, err := NewService(
		env.cfg, store, env.nft, env.ft, env.native, eventConsumer,
		WithClock(env.clock.Now),
		WithCallIDGenerator(func() string {
			return fmt.Sprintf("call-%d", seq.Add(1))
		}),
	)
	require.NoError(t, err)
	env.svc = svc

	// registered after the mocks so it runs before their expectations are asserted
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, svc.WaitForConfirmations(ctx))
	})
	return env
}

// waitResult blocks until c resolved
func waitResult(t *testing.T, c *Confirmation) (*Result, *types.Error) {
	t.Helper()
	require.NotNil(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Wait(ctx), "confirmation did not resolve")
	return c.Result()
}

func transferOf(assetID, sender, receiver string) any {
	return mock.MatchedBy(func(req *assetclient.NftTransferRequest) bool {
		return req.TokenID == assetID && req.SenderID == sender && req.ReceiverID == receiver
	})
}

func (env *testEnv) expectCustodyTransfer(assetID, owner string, err error) *mock.Call {
	return env.nft.On("NftTransfer", mock.Anything, transferOf(assetID, owner, custody), env.cfg.Budget.NftTransfer()).
		Return(err).Once()
}

func (env *testEnv) expectReturnTransfer(assetID, owner string, err error) *mock.Call {
	return env.nft.On("NftTransfer", mock.Anything, transferOf(assetID, custody, owner), env.cfg.Budget.NftTransfer()).
		Return(err).Once()
}

func (env *testEnv) expectTokenOwner(assetID, holder string) *mock.Call {
	var token *assetclient.Token
	if holder != "" {
		token = &assetclient.Token{TokenID: assetID, OwnerID: holder}
	}
	return env.nft.On("NftToken", mock.Anything, assetID, env.cfg.Budget.NftToken()).Return(token, nil).Once()
}

func (env *testEnv) expectReward(owner string, amount int64, err error) *mock.Call {
	matcher := mock.MatchedBy(func(req *assetclient.FtTransferRequest) bool {
		return req.ReceiverID == owner && req.Amount.Int64() == amount
	})
	return env.ft.On("FtTransfer", mock.Anything, matcher, env.cfg.Budget.FtTransfer()).Return(err).Once()
}

// stakeConfirmed stakes assetID for owner at the current clock and waits for the confirmation
func (env *testEnv) stakeConfirmed(t *testing.T, owner, assetID string) {
	t.Helper()
	env.expectCustodyTransfer(assetID, owner, nil)

	c, err := env.svc.Stake(context.Background(), owner, assetID, nil)
	require.Nil(t, err)
	result, err := waitResult(t, c)
	require.Nil(t, err)
	require.Equal(t, types.StateStaked, result.State)
}

func (env *testEnv) record(t *testing.T, owner, assetID string) *model.StakeRecordDocument {
	t.Helper()
	record, err := env.db.GetStake(context.Background(), owner, assetID)
	require.NoError(t, err)
	return record
}

func (env *testEnv) requireNoRecord(t *testing.T, owner, assetID string) {
	t.Helper()
	_, err := env.db.GetStake(context.Background(), owner, assetID)
	require.True(t, db.IsNotFoundError(err), "expected no record, got %v", err)
}

func confirmedFailure(method string) error {
	return &assetclient.CallError{
		Contract: "nft.testnet",
		Method:   method,
		Kind:     assetclient.ExecutionFailed,
		Message:  "Smart contract panicked",
	}
}

var errTimeout = fmt.Errorf("gateway: %w", context.DeadlineExceeded)
