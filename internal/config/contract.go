package config

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// ContractConfig is the immutable construction input of the staking contract
type ContractConfig struct {
	NftContractID  string `mapstructure:"nft-contract-id"`
	FtContractID   string `mapstructure:"ft-contract-id"`
	CustodyAccount string `mapstructure:"custody-account"`
	// AdminAccount may reconcile any record and use the native transfer helper
	AdminAccount string `mapstructure:"admin-account"`
	// RewardRate is the integer amount of reward asset accrued per staked asset per second
	RewardRate string `mapstructure:"reward-rate"`

	rewardRate sdkmath.Int
}

func (cfg *ContractConfig) Validate() error {
	if cfg.NftContractID == "" {
		return fmt.Errorf("nft contract id is required")
	}
	if cfg.FtContractID == "" {
		return fmt.Errorf("ft contract id is required")
	}
	if cfg.CustodyAccount == "" {
		return fmt.Errorf("custody account is required")
	}
	if cfg.AdminAccount == "" {
		return fmt.Errorf("admin account is required")
	}

	rate, ok := sdkmath.NewIntFromString(cfg.RewardRate)
	if !ok {
		return fmt.Errorf("invalid reward rate %q", cfg.RewardRate)
	}
	if rate.IsNegative() {
		return fmt.Errorf("reward rate should not be negative")
	}
	// u128 is the widest amount the reward contract accepts
	if rate.BigInt().BitLen() > 128 {
		return fmt.Errorf("reward rate does not fit into u128")
	}
	cfg.rewardRate = rate

	return nil
}

// RewardRatePerSecond returns the parsed reward rate, Validate must be called first
func (cfg *ContractConfig) RewardRatePerSecond() sdkmath.Int {
	if cfg.rewardRate.IsNil() {
		return sdkmath.ZeroInt()
	}
	return cfg.rewardRate
}
