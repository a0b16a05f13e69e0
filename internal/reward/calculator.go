package reward

import (
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/babylonlabs-io/nft-staking-custodian/internal/db/model"
	"github.com/babylonlabs-io/nft-staking-custodian/internal/types"
)

// maxAmount is the largest reward amount the FT contract accepts (u128)
var maxAmount = sdkmath.NewIntFromBigInt(
	new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1)),
)

type Accrual struct {
	Amount sdkmath.Int
	// ClockAnomaly is set when now is behind the last settled claim
	ClockAnomaly bool
}

type Calculator struct {
	rate sdkmath.Int
}

func NewCalculator(ratePerSecond sdkmath.Int) *Calculator {
	return &Calculator{rate: ratePerSecond}
}

// Accrued is the reward owed to a STAKED record for the time elapsed since its
// last settled claim. Records in any other state accrue nothing.
func (c *Calculator) Accrued(record *model.StakeRecordDocument, now int64) Accrual {
	if record == nil || record.State != types.StateStaked {
		return Accrual{Amount: sdkmath.ZeroInt()}
	}
	return c.Since(record.LastClaimAt, now)
}

// Since computes max(0, now - lastClaimAt) * rate, saturating at u128
func (c *Calculator) Since(lastClaimAt, now int64) Accrual {
	if now < lastClaimAt {
		return Accrual{Amount: sdkmath.ZeroInt(), ClockAnomaly: true}
	}

	elapsed := sdkmath.NewInt(now).SubRaw(lastClaimAt)
	amount, err := elapsed.SafeMul(c.rate)
	if err != nil || amount.GT(maxAmount) {
		return Accrual{Amount: maxAmount}
	}
	return Accrual{Amount: amount}
}
