package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

func TestUnstake(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed return releases the record", func(t *testing.T) {
		env := setupTestEnv(t)
		env.stakeConfirmed(t, alice, "T1")
		env.expectReturnTransfer("T1", alice, nil)

		c, err := env.svc.Unstake(ctx, alice, "T1")
		require.Nil(t, err)
		result, err := waitResult(t, c)
		require.Nil(t, err)
		assert.Equal(t, types.StateReleased, result.State)

		env.requireNoRecord(t, alice, "T1")

		// the asset can be staked again
		env.stakeConfirmed(t, alice, "T1")
	})
	t.Run("unstake by an account that never staked", func(t *testing.T) {
		env := setupTestEnv(t)
		env.stakeConfirmed(t, alice, "T1")
		before := env.record(t, alice, "T1")

		_, err := env.svc.Unstake(ctx, bob, "T1")
		require.NotNil(t, err)
		assert.Equal(t, types.NotFound, err.ErrorCode)

		// no dispatch (the mocks have no expectation) and no ledger mutation
		assert.Equal(t, before, env.record(t, alice, "T1"))
		env.requireNoRecord(t, bob, "T1")
	})
	t.Run("record is UNSTAKING while the return is in flight", func(t *testing.T) {
		env := setupTestEnv(t)
		env.stakeConfirmed(t, alice, "T1")
		release := make(chan struct{})
		env.expectReturnTransfer("T1", alice, nil).Run(func(_ mock.Arguments) {
			<-release
		})

		c, err := env.svc.Unstake(ctx, alice, "T1")
		require.Nil(t, err)

		record := env.record(t, alice, "T1")
		assert.Equal(t, types.StateUnstaking, record.State)
		assert.Equal(t, types.CallKindUnstake, record.PendingCallKind)

		_, err = env.svc.Unstake(ctx, alice, "T1")
		require.NotNil(t, err)
		assert.Equal(t, types.InvalidState, err.ErrorCode)

		_, err = env.svc.Claim(ctx, alice, "T1")
		require.NotNil(t, err)
		assert.Equal(t, types.InvalidState, err.ErrorCode)

		close(release)
		_, err = waitResult(t, c)
		require.Nil(t, err)
	})
	t.Run("confirmed failure keeps a FAILED record", func(t *testing.T) {
		env := setupTestEnv(t)
		env.stakeConfirmed(t, alice, "T1")
		env.expectReturnTransfer("T1", alice, confirmedFailure("nft_transfer"))

		c, err := env.svc.Unstake(ctx, alice, "T1")
		require.Nil(t, err)
		_, err = waitResult(t, c)
		require.NotNil(t, err)
		assert.Equal(t, types.RemoteCallFailed, err.ErrorCode)

		record := env.record(t, alice, "T1")
		assert.Equal(t, types.StateFailed, record.State)
		assert.Contains(t, record.FailureReason, "unstake")
	})
	t.Run("unknown outcome leaves the record UNSTAKING", func(t *testing.T) {
		env := setupTestEnv(t)
		env.stakeConfirmed(t, alice, "T1")
		env.expectReturnTransfer("T1", alice, errTimeout)

		c, err := env.svc.Unstake(ctx, alice, "T1")
		require.Nil(t, err)
		_, err = waitResult(t, c)
		require.NotNil(t, err)
		assert.Equal(t, types.Unconfirmed, err.ErrorCode)

		record := env.record(t, alice, "T1")
		assert.Equal(t, types.StateUnstaking, record.State)
		assert.True(t, record.InFlight())
	})
	t.Run("pending stake cannot be unstaked", func(t *testing.T) {
		env := setupTestEnv(t)
		env.expectCustodyTransfer("T1", alice, errTimeout)
		c, err := env.svc.Stake(ctx, alice, "T1", nil)
		require.Nil(t, err)
		_, err = waitResult(t, c)
		require.NotNil(t, err)

		_, err = env.svc.Unstake(ctx, alice, "T1")
		require.NotNil(t, err)
		assert.Equal(t, types.InvalidState, err.ErrorCode)
	})
}
