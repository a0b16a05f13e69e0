package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/clients/assetclient"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

func TestStake(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed custody transfer stakes the asset", func(t *testing.T) {
		env := setupTestEnv(t)
		env.expectCustodyTransfer("T1", alice, nil)

		c, err := env.svc.Stake(ctx, alice, "T1", nil)
		require.Nil(t, err)
		assert.Equal(t, "call-1", c.CallID())

		result, err := waitResult(t, c)
		require.Nil(t, err)
		assert.Equal(t, types.StateStaked, result.State)

		record := env.record(t, alice, "T1")
		assert.Equal(t, types.StateStaked, record.State)
		assert.Equal(t, alice, record.Owner)
		assert.Equal(t, int64(100), record.StakedAt)
		assert.Equal(t, int64(100), record.LastClaimAt)
		assert.False(t, record.InFlight())
	})
	t.Run("approval id is forwarded", func(t *testing.T) {
		env := setupTestEnv(t)
		approval := uint64(1)
		matcher := mock.MatchedBy(func(req *assetclient.NftTransferRequest) bool {
			return req.ApprovalID != nil && *req.ApprovalID == approval && req.Memo == "stake"
		})
		env.nft.On("NftTransfer", mock.Anything, matcher, env.cfg.Budget.NftTransfer()).Return(nil).Once()

		c, err := env.svc.Stake(ctx, alice, "T1", &approval)
		require.Nil(t, err)
		_, err = waitResult(t, c)
		require.Nil(t, err)
	})
	t.Run("accrual starts at confirmation", func(t *testing.T) {
		env := setupTestEnv(t)
		release := make(chan struct{})
		env.expectCustodyTransfer("T1", alice, nil).Run(func(_ mock.Arguments) {
			<-release
		})

		c, err := env.svc.Stake(ctx, alice, "T1", nil)
		require.Nil(t, err)

		// still pending, nothing accrues
		env.clock.Set(130)
		claimable, err := env.svc.GetClaimable(ctx, alice, "T1")
		require.Nil(t, err)
		assert.True(t, claimable.Amount.IsZero())
		assert.False(t, claimable.Staked)
		assert.Equal(t, types.StatePending, claimable.State)

		close(release)
		_, err = waitResult(t, c)
		require.Nil(t, err)

		record := env.record(t, alice, "T1")
		assert.Equal(t, int64(130), record.StakedAt)
		assert.Equal(t, int64(130), record.LastClaimAt)
	})
	t.Run("staking twice fails with AlreadyStaked", func(t *testing.T) {
		env := setupTestEnv(t)
		env.stakeConfirmed(t, alice, "T1")

		_, err := env.svc.Stake(ctx, alice, "T1", nil)
		require.NotNil(t, err)
		assert.Equal(t, types.AlreadyStaked, err.ErrorCode)
		assert.Equal(t, types.StateStaked, env.record(t, alice, "T1").State)
	})
	t.Run("staking twice while pending fails with AlreadyStaked", func(t *testing.T) {
		env := setupTestEnv(t)
		env.expectCustodyTransfer("T1", alice, errTimeout)

		c, err := env.svc.Stake(ctx, alice, "T1", nil)
		require.Nil(t, err)
		_, err = waitResult(t, c)
		require.NotNil(t, err)

		_, err = env.svc.Stake(ctx, alice, "T1", nil)
		require.NotNil(t, err)
		assert.Equal(t, types.AlreadyStaked, err.ErrorCode)
	})
	t.Run("same asset id of different owners are separate records", func(t *testing.T) {
		env := setupTestEnv(t)
		env.stakeConfirmed(t, alice, "T1")
		env.stakeConfirmed(t, bob, "T1")

		assert.Equal(t, types.StateStaked, env.record(t, bob, "T1").State)
	})
	t.Run("confirmed failure keeps a FAILED record", func(t *testing.T) {
		env := setupTestEnv(t)
		env.expectCustodyTransfer("T1", alice, confirmedFailure("nft_transfer"))

		c, err := env.svc.Stake(ctx, alice, "T1", nil)
		require.Nil(t, err)
		result, err := waitResult(t, c)
		assert.Nil(t, result)
		require.NotNil(t, err)
		assert.Equal(t, types.RemoteCallFailed, err.ErrorCode)

		record := env.record(t, alice, "T1")
		assert.Equal(t, types.StateFailed, record.State)
		assert.Contains(t, record.FailureReason, "Smart contract panicked")
		assert.False(t, record.InFlight())

		page, err := env.svc.ListStakes(ctx, alice, "", 10)
		require.Nil(t, err)
		require.Len(t, page.Stakes, 1)
		assert.Equal(t, types.StateFailed, page.Stakes[0].State)
	})
	t.Run("budget exhausted fails the stake", func(t *testing.T) {
		env := setupTestEnv(t)
		env.expectCustodyTransfer("T1", alice, &assetclient.CallError{
			Contract: "nft.testnet",
			Method:   "nft_transfer",
			Kind:     assetclient.BudgetExhausted,
			Message:  "Exceeded the prepaid gas",
		})

		c, err := env.svc.Stake(ctx, alice, "T1", nil)
		require.Nil(t, err)
		_, err = waitResult(t, c)
		require.NotNil(t, err)
		assert.Equal(t, types.BudgetExhausted, err.ErrorCode)

		record := env.record(t, alice, "T1")
		assert.Equal(t, types.StateFailed, record.State)
		assert.Contains(t, record.FailureReason, "budget exhausted")
	})
	t.Run("failed stake can be retried", func(t *testing.T) {
		env := setupTestEnv(t)
		env.expectCustodyTransfer("T1", alice, confirmedFailure("nft_transfer"))
		c, err := env.svc.Stake(ctx, alice, "T1", nil)
		require.Nil(t, err)
		_, err = waitResult(t, c)
		require.NotNil(t, err)

		env.clock.Set(200)
		env.stakeConfirmed(t, alice, "T1")

		record := env.record(t, alice, "T1")
		assert.Equal(t, types.StateStaked, record.State)
		assert.Empty(t, record.FailureReason)
		assert.Equal(t, int64(200), record.StakedAt)
	})
	t.Run("unknown outcome leaves the record in flight", func(t *testing.T) {
		env := setupTestEnv(t)
		env.expectCustodyTransfer("T1", alice, errTimeout)

		c, err := env.svc.Stake(ctx, alice, "T1", nil)
		require.Nil(t, err)
		_, err = waitResult(t, c)
		require.NotNil(t, err)
		assert.Equal(t, types.Unconfirmed, err.ErrorCode)

		record := env.record(t, alice, "T1")
		assert.Equal(t, types.StatePending, record.State)
		assert.Equal(t, "call-1", record.PendingCall)

		// a second operation on the in-flight record is rejected
		_, err = env.svc.Unstake(ctx, alice, "T1")
		require.NotNil(t, err)
		assert.Equal(t, types.InvalidState, err.ErrorCode)
	})
	t.Run("invalid input is rejected without dispatch", func(t *testing.T) {
		env := setupTestEnv(t)

		_, err := env.svc.Stake(ctx, "Not An Account", "T1", nil)
		require.NotNil(t, err)
		assert.Equal(t, types.ValidationError, err.ErrorCode)

		_, err = env.svc.Stake(ctx, alice, "", nil)
		require.NotNil(t, err)
		assert.Equal(t, types.ValidationError, err.ErrorCode)

		env.requireNoRecord(t, alice, "T1")
	})
}

func TestConfirmationIsAppliedOnce(t *testing.T) {
	ctx := context.Background()
	env := setupTestEnv(t)
	env.stakeConfirmed(t, alice, "T1")

	env.clock.Set(500)
	// replay of the confirmation of call-1
	result, err := env.svc.markStaked(ctx, alice, "T1", "call-1")
	require.Nil(t, err)
	assert.Equal(t, types.StateStaked, result.State)

	record := env.record(t, alice, "T1")
	assert.Equal(t, int64(100), record.StakedAt)
	assert.Equal(t, int64(100), record.LastClaimAt)

	// a late failure for the same call does not fail the staked record
	result, err = env.svc.markFailed(ctx, alice, "T1", "call-1", "late", types.EventStakeFailed)
	require.Nil(t, err)
	assert.Equal(t, types.StateStaked, result.State)
	assert.Equal(t, types.StateStaked, env.record(t, alice, "T1").State)
}
