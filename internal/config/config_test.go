package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	queue "github.com/babylonlabs-io/staking-queue-client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Db: DbConfig{
			Username: "test",
			Password: "test",
			Address:  "mongodb://localhost:27017",
			DbName:   "test",
		},
		Contract: ContractConfig{
			NftContractID:  "nft.testnet",
			FtContractID:   "ft.testnet",
			CustodyAccount: "staking.testnet",
			AdminAccount:   "admin.testnet",
			RewardRate:     "1000000000000000000",
		},
		Gateway: GatewayConfig{
			Endpoint:      "http://localhost:3030",
			Timeout:       5 * time.Second,
			CallTimeout:   30 * time.Second,
			MaxRetryTimes: 3,
			RetryInterval: 500 * time.Millisecond,
		},
		Budget: *DefaultBudgetConfig(),
		Poller: PollerConfig{
			ReconcilePollingInterval: 30 * time.Second,
			ReconcileGracePeriod:     10 * time.Minute,
			InFlightStakesLimit:      100,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8090,
			WriteTimeout: 60 * time.Second,
			ReadTimeout:  60 * time.Second,
			IdleTimeout:  60 * time.Second,
			WaitTimeout:  20 * time.Second,
		},
		Queue: &queue.QueueConfig{
			QueueUser:              "test",
			QueuePassword:          "test",
			Url:                    "localhost:5672",
			QueueProcessingTimeout: 5 * time.Second,
			MsgMaxRetryAttempts:    10,
			ReQueueDelayTime:       300 * time.Second,
			QueueType:              "quorum",
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 2112,
		},
	}
}

func TestConfig_OptionalQueue(t *testing.T) {
	cfg := validConfig()

	err := cfg.Validate()
	require.NoError(t, err)
	assert.NotNil(t, cfg.Queue)
	assert.Equal(t, DbBackendMongo, cfg.Db.Backend)
	assert.Equal(t, int64(defaultMaxPaginationLimit), cfg.Db.MaxPaginationLimit)

	cfg.Queue = nil
	err = cfg.Validate()
	require.NoError(t, err)
	assert.Nil(t, cfg.Queue)
}

func TestConfig_ReconcileGraceCoversCallTimeout(t *testing.T) {
	t.Run("grace shorter than call timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Poller.ReconcileGracePeriod = time.Second
		cfg.Gateway.CallTimeout = 30 * time.Second

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reconcile-grace-period")
	})
	t.Run("grace equal to call timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Poller.ReconcileGracePeriod = 30 * time.Second

		require.Error(t, cfg.Validate())
	})
	t.Run("grace without margin", func(t *testing.T) {
		cfg := validConfig()
		cfg.Poller.ReconcileGracePeriod = 59 * time.Second

		require.Error(t, cfg.Validate())
	})
	t.Run("grace covers call timeout with margin", func(t *testing.T) {
		cfg := validConfig()
		cfg.Poller.ReconcileGracePeriod = time.Minute

		require.NoError(t, cfg.Validate())
	})
}

func TestContractConfig_Validate(t *testing.T) {
	t.Run("reward rate parsed", func(t *testing.T) {
		cfg := validConfig().Contract
		require.NoError(t, cfg.Validate())
		assert.True(t, sdkmath.NewIntWithDecimal(1, 18).Equal(cfg.RewardRatePerSecond()))
	})
	t.Run("reward rate not a number", func(t *testing.T) {
		cfg := validConfig().Contract
		cfg.RewardRate = "1.5"
		require.Error(t, cfg.Validate())
	})
	t.Run("negative reward rate", func(t *testing.T) {
		cfg := validConfig().Contract
		cfg.RewardRate = "-1"
		require.Error(t, cfg.Validate())
	})
	t.Run("reward rate wider than u128", func(t *testing.T) {
		cfg := validConfig().Contract
		cfg.RewardRate = "340282366920938463463374607431768211456" // 2^128
		require.Error(t, cfg.Validate())
	})
	t.Run("missing custody account", func(t *testing.T) {
		cfg := validConfig().Contract
		cfg.CustodyAccount = ""
		require.Error(t, cfg.Validate())
	})
}

func TestDbConfig_Validate(t *testing.T) {
	t.Run("leveldb requires path", func(t *testing.T) {
		cfg := DbConfig{Backend: DbBackendLevelDB}
		require.Error(t, cfg.Validate())

		cfg.LevelDBPath = t.TempDir()
		require.NoError(t, cfg.Validate())
	})
	t.Run("unsupported backend", func(t *testing.T) {
		cfg := DbConfig{Backend: "postgres"}
		require.Error(t, cfg.Validate())
	})
	t.Run("bad mongo scheme", func(t *testing.T) {
		cfg := validConfig().Db
		cfg.Address = "http://localhost:27017"
		require.Error(t, cfg.Validate())
	})
}

func TestBudgetConfig(t *testing.T) {
	cfg := DefaultBudgetConfig()
	require.NoError(t, cfg.Validate())

	// callback cost is part of every call chain that resolves a callback
	assert.Equal(t, cfg.NftTransferGas+cfg.CallbackGas, cfg.NftTransfer())
	assert.Equal(t, cfg.FtTransferGas+cfg.CallbackGas, cfg.FtTransfer())
	assert.Equal(t, cfg.NftTokenGas, cfg.NftToken())

	cfg.CallbackGas = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultBudgetConfig()
	cfg.NftTransferGas = 295 * TGas
	require.Error(t, cfg.Validate())
}

func TestNew(t *testing.T) {
	const content = `
db:
  backend: leveldb
  leveldb-path: /tmp/ledger
contract:
  nft-contract-id: nft.testnet
  ft-contract-id: ft.testnet
  custody-account: staking.testnet
  admin-account: admin.testnet
  reward-rate: "10"
gateway:
  endpoint: http://localhost:3030
  timeout: 5s
  call-timeout: 30s
  max-retry-times: 3
  retry-interval: 500ms
budget:
  nft-transfer-gas: 20000000000000
  nft-token-gas: 5000000000000
  ft-transfer-gas: 10000000000000
  native-transfer-gas: 5000000000000
  callback-gas: 10000000000000
poller:
  reconcile-polling-interval: 30s
  reconcile-grace-period: 10m
server:
  host: 127.0.0.1
  port: 8090
  write-timeout: 60s
  read-timeout: 60s
  idle-timeout: 60s
  wait-timeout: 20s
metrics:
  host: 0.0.0.0
  port: 2112
`
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, DbBackendLevelDB, cfg.Db.Backend)
	assert.Equal(t, "staking.testnet", cfg.Contract.CustodyAccount)
	assert.True(t, sdkmath.NewInt(10).Equal(cfg.Contract.RewardRatePerSecond()))
	assert.Equal(t, 30*time.Second, cfg.Gateway.CallTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Poller.ReconcileGracePeriod)
	assert.Equal(t, int64(defaultInFlightStakesLimit), cfg.Poller.InFlightStakesLimit)
	assert.Nil(t, cfg.Queue)
}
