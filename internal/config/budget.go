package config

import "errors"

// 1 TGas, the unit gas allowances are expressed in
const TGas uint64 = 1_000_000_000_000

// maxCallChainGas is the host limit for a single call chain
const maxCallChainGas = 300 * TGas

// BudgetConfig holds the gas allowance attached to every remote call. The
// allowance of a call chain is the remote method's own cost plus the cost of
// resolving its callback, so each dispatch gets exactly what its chain needs.
type BudgetConfig struct {
	NftTransferGas    uint64 `mapstructure:"nft-transfer-gas"`
	NftTokenGas       uint64 `mapstructure:"nft-token-gas"`
	FtTransferGas     uint64 `mapstructure:"ft-transfer-gas"`
	NativeTransferGas uint64 `mapstructure:"native-transfer-gas"`
	CallbackGas       uint64 `mapstructure:"callback-gas"`
}

func DefaultBudgetConfig() *BudgetConfig {
	return &BudgetConfig{
		NftTransferGas:    20 * TGas,
		NftTokenGas:       5 * TGas,
		FtTransferGas:     10 * TGas,
		NativeTransferGas: 5 * TGas,
		CallbackGas:       10 * TGas,
	}
}

func (cfg *BudgetConfig) Validate() error {
	if cfg.NftTransferGas == 0 || cfg.NftTokenGas == 0 || cfg.FtTransferGas == 0 || cfg.NativeTransferGas == 0 {
		return errors.New("every remote method needs a positive gas allowance")
	}
	if cfg.CallbackGas == 0 {
		return errors.New("callback-gas must be positive")
	}

	for _, gas := range []uint64{cfg.NftTransfer(), cfg.FtTransfer(), cfg.NftToken(), cfg.NativeTransfer()} {
		if gas > maxCallChainGas {
			return errors.New("call chain budget exceeds the host limit of 300 TGas")
		}
	}
	return nil
}

func (cfg *BudgetConfig) NftTransfer() uint64 {
	return cfg.NftTransferGas + cfg.CallbackGas
}

func (cfg *BudgetConfig) FtTransfer() uint64 {
	return cfg.FtTransferGas + cfg.CallbackGas
}

// NftToken is a view call, nothing resolves after it
func (cfg *BudgetConfig) NftToken() uint64 {
	return cfg.NftTokenGas
}

func (cfg *BudgetConfig) NativeTransfer() uint64 {
	return cfg.NativeTransferGas
}
