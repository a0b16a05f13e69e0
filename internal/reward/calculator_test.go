package reward_test

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/reward"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

func stakedAt(ts int64) *model.StakeRecordDocument {
	record := model.NewStakeRecordDocument("alice.testnet", "T1", ts, "")
	record.State = types.StateStaked
	return record
}

func TestAccrued(t *testing.T) {
	calc := reward.NewCalculator(sdkmath.OneInt())

	t.Run("elapsed times rate", func(t *testing.T) {
		accrual := calc.Accrued(stakedAt(100), 150)
		assert.Equal(t, int64(50), accrual.Amount.Int64())
		assert.False(t, accrual.ClockAnomaly)
	})
	t.Run("nothing elapsed", func(t *testing.T) {
		accrual := calc.Accrued(stakedAt(150), 150)
		assert.True(t, accrual.Amount.IsZero())
	})
	t.Run("clock behind last claim", func(t *testing.T) {
		accrual := calc.Accrued(stakedAt(150), 120)
		assert.True(t, accrual.Amount.IsZero())
		assert.True(t, accrual.ClockAnomaly)
	})
	t.Run("non staked records accrue nothing", func(t *testing.T) {
		for _, state := range []types.StakeState{types.StatePending, types.StateUnstaking, types.StateFailed} {
			record := stakedAt(100)
			record.State = state
			assert.True(t, calc.Accrued(record, 1_000).Amount.IsZero(), state)
		}
		assert.True(t, calc.Accrued(nil, 1_000).Amount.IsZero())
	})
}

func TestAccruedIsMonotonic(t *testing.T) {
	calc := reward.NewCalculator(sdkmath.NewInt(7))
	record := stakedAt(1_000)

	prev := sdkmath.ZeroInt()
	for now := int64(900); now < 5_000; now += 37 {
		amount := calc.Accrued(record, now).Amount
		require.True(t, amount.GTE(prev), "accrual decreased at %d", now)
		prev = amount
	}
}

func TestAccruedSaturates(t *testing.T) {
	huge, ok := sdkmath.NewIntFromString("340282366920938463463374607431768211455")
	require.True(t, ok)
	calc := reward.NewCalculator(huge)

	accrual := calc.Accrued(stakedAt(0), math.MaxInt64)
	assert.True(t, accrual.Amount.Equal(huge))
}
