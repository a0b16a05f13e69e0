package db_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/db"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

func randomAccount() string {
	return gofakeit.LetterN(12) + ".testnet"
}

// testLedger runs the behaviour every DbInterface backend must share.
// Each subtest works with its own random owner so backends need no cleanup.
func testLedger(t *testing.T, store db.DbInterface) {
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		owner := randomAccount()
		record := model.NewStakeRecordDocument(owner, "token-1", 100, "call-1")
		require.NoError(t, store.SaveNewStake(ctx, record))

		got, err := store.GetStake(ctx, owner, "token-1")
		require.NoError(t, err)
		assert.Equal(t, record, got)

		_, err = store.GetStake(ctx, owner, "token-2")
		assert.True(t, db.IsNotFoundError(err))
	})
	t.Run("duplicate stake", func(t *testing.T) {
		owner := randomAccount()
		require.NoError(t, store.SaveNewStake(ctx, model.NewStakeRecordDocument(owner, "token-1", 100, "call-1")))

		err := store.SaveNewStake(ctx, model.NewStakeRecordDocument(owner, "token-1", 200, "call-2"))
		assert.True(t, db.IsDuplicateKeyError(err))

		got, err := store.GetStake(ctx, owner, "token-1")
		require.NoError(t, err)
		assert.Equal(t, "call-1", got.PendingCall)
	})
	t.Run("failed record is replaced on restake", func(t *testing.T) {
		owner := randomAccount()
		require.NoError(t, store.SaveNewStake(ctx, model.NewStakeRecordDocument(owner, "token-1", 100, "call-1")))
		err := store.TransitionStake(
			ctx, owner, "token-1", types.QualifiedStatesForFailure(), "call-1", types.StateFailed,
			db.WithoutPendingCall(), db.WithFailureReason("rejected"),
		)
		require.NoError(t, err)

		require.NoError(t, store.SaveNewStake(ctx, model.NewStakeRecordDocument(owner, "token-1", 300, "call-2")))
		got, err := store.GetStake(ctx, owner, "token-1")
		require.NoError(t, err)
		assert.Equal(t, types.StatePending, got.State)
		assert.Equal(t, "call-2", got.PendingCall)
		assert.Empty(t, got.FailureReason)
	})
	t.Run("failed record with recovery in flight is not replaced", func(t *testing.T) {
		owner := randomAccount()
		require.NoError(t, store.SaveNewStake(ctx, model.NewStakeRecordDocument(owner, "token-1", 100, "call-1")))
		require.NoError(t, store.TransitionStake(
			ctx, owner, "token-1", types.QualifiedStatesForFailure(), "call-1", types.StateFailed,
			db.WithPendingCall("recover-1", types.CallKindRecover, 0),
		))

		err := store.SaveNewStake(ctx, model.NewStakeRecordDocument(owner, "token-1", 300, "call-2"))
		assert.True(t, db.IsDuplicateKeyError(err))
	})
	t.Run("transition is conditional on state and pending call", func(t *testing.T) {
		owner := randomAccount()
		require.NoError(t, store.SaveNewStake(ctx, model.NewStakeRecordDocument(owner, "token-1", 100, "call-1")))

		// wrong call id
		err := store.TransitionStake(ctx, owner, "token-1", types.QualifiedStatesForStakeConfirmed(), "call-x", types.StateStaked)
		assert.True(t, db.IsNotFoundError(err))
		// wrong state
		err = store.TransitionStake(ctx, owner, "token-1", types.QualifiedStatesForUnstake(), "call-1", types.StateUnstaking)
		assert.True(t, db.IsNotFoundError(err))

		err = store.TransitionStake(
			ctx, owner, "token-1", types.QualifiedStatesForStakeConfirmed(), "call-1", types.StateStaked,
			db.WithoutPendingCall(), db.WithStakedAt(150), db.WithLastClaimAt(150), db.WithUpdatedAt(150),
		)
		require.NoError(t, err)

		// a replayed confirmation no longer matches
		err = store.TransitionStake(ctx, owner, "token-1", types.QualifiedStatesForStakeConfirmed(), "call-1", types.StateStaked)
		assert.True(t, db.IsNotFoundError(err))

		got, err := store.GetStake(ctx, owner, "token-1")
		require.NoError(t, err)
		assert.Equal(t, types.StateStaked, got.State)
		assert.Equal(t, int64(150), got.StakedAt)
		assert.Equal(t, int64(150), got.LastClaimAt)
		assert.False(t, got.InFlight())
		assert.Equal(t, types.CallKindNone, got.PendingCallKind)
	})
	t.Run("delete", func(t *testing.T) {
		owner := randomAccount()
		require.NoError(t, store.SaveNewStake(ctx, model.NewStakeRecordDocument(owner, "token-1", 100, "call-1")))

		err := store.DeleteStake(ctx, owner, "token-1", types.QualifiedStatesForUnstakeConfirmed(), "call-1")
		assert.True(t, db.IsNotFoundError(err))

		require.NoError(t, store.DeleteStake(ctx, owner, "token-1", []types.StakeState{types.StatePending}, "call-1"))
		_, err = store.GetStake(ctx, owner, "token-1")
		assert.True(t, db.IsNotFoundError(err))
	})
	t.Run("list stakes is paginated and scoped to owner", func(t *testing.T) {
		owner, other := randomAccount(), randomAccount()
		for i := 0; i < 5; i++ {
			require.NoError(t, store.SaveNewStake(ctx, model.NewStakeRecordDocument(owner, fmt.Sprintf("token-%d", i), 100, "")))
		}
		require.NoError(t, store.SaveNewStake(ctx, model.NewStakeRecordDocument(other, "token-0", 100, "")))

		page, err := store.ListStakes(ctx, owner, "", 2)
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "token-0", page.Data[0].AssetID)
		assert.Equal(t, "token-1", page.Data[1].AssetID)
		require.NotEmpty(t, page.PaginationToken)

		page, err = store.ListStakes(ctx, owner, page.PaginationToken, 2)
		require.NoError(t, err)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "token-2", page.Data[0].AssetID)

		page, err = store.ListStakes(ctx, owner, page.PaginationToken, 2)
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "token-4", page.Data[0].AssetID)
		assert.Empty(t, page.PaginationToken)

		for _, r := range page.Data {
			assert.Equal(t, owner, r.Owner)
		}
	})
	t.Run("list stakes of unknown owner", func(t *testing.T) {
		page, err := store.ListStakes(ctx, randomAccount(), "", 10)
		require.NoError(t, err)
		assert.Empty(t, page.Data)
		assert.Empty(t, page.PaginationToken)
	})
	t.Run("list stakes with invalid token", func(t *testing.T) {
		_, err := store.ListStakes(ctx, randomAccount(), "%%%", 10)
		assert.True(t, db.IsInvalidPaginationTokenError(err))
	})
	t.Run("find in flight stakes", func(t *testing.T) {
		owner := randomAccount()
		old := model.NewStakeRecordDocument(owner, "old", 100, "call-old")
		fresh := model.NewStakeRecordDocument(owner, "fresh", 1_000, "call-fresh")
		settled := model.NewStakeRecordDocument(owner, "settled", 100, "")
		for _, r := range []*model.StakeRecordDocument{old, fresh, settled} {
			require.NoError(t, store.SaveNewStake(ctx, r))
		}

		records, err := store.FindInFlightStakes(ctx, 500, 1_000)
		require.NoError(t, err)

		var found []string
		for _, r := range records {
			if r.Owner == owner {
				found = append(found, r.AssetID)
			}
		}
		assert.Equal(t, []string{"old"}, found)
	})
}
