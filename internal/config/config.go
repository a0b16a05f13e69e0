package config

import (
	"fmt"
	"strings"

	queue "github.com/babylonlabs-io/staking-queue-client/config"
	"github.com/spf13/viper"
)

type Config struct {
	Db       DbConfig           `mapstructure:"db"`
	Contract ContractConfig     `mapstructure:"contract"`
	Gateway  GatewayConfig      `mapstructure:"gateway"`
	Budget   BudgetConfig       `mapstructure:"budget"`
	Poller   PollerConfig       `mapstructure:"poller"`
	Server   ServerConfig       `mapstructure:"server"`
	Queue    *queue.QueueConfig `mapstructure:"queue"`
	Metrics  MetricsConfig      `mapstructure:"metrics"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Db.Validate(); err != nil {
		return err
	}

	if err := cfg.Contract.Validate(); err != nil {
		return err
	}

	if err := cfg.Gateway.Validate(); err != nil {
		return err
	}

	if err := cfg.Budget.Validate(); err != nil {
		return err
	}

	if err := cfg.Poller.Validate(); err != nil {
		return err
	}

	if err := validateReconcileGrace(&cfg.Gateway, &cfg.Poller); err != nil {
		return err
	}

	if err := cfg.Server.Validate(); err != nil {
		return err
	}

	// queue is optional, without it lifecycle events are not published
	if cfg.Queue != nil {
		if err := validateQueueConfig(cfg.Queue); err != nil {
			return err
		}
	}

	if err := cfg.Metrics.Validate(); err != nil {
		return err
	}

	return nil
}

// validateReconcileGrace makes sure the reconciler never takes over a call that
// may still be running. A dispatched call holds its lock for at most call-timeout,
// the grace period must cover that plus an equal margin for the ledger writes around it.
func validateReconcileGrace(gateway *GatewayConfig, poller *PollerConfig) error {
	if poller.ReconcileGracePeriod < 2*gateway.CallTimeout {
		return fmt.Errorf(
			"poller reconcile-grace-period (%s) must be at least twice the gateway call-timeout (%s)",
			poller.ReconcileGracePeriod, gateway.CallTimeout,
		)
	}
	return nil
}

func validateQueueConfig(cfg *queue.QueueConfig) error {
	if cfg.Url == "" {
		return fmt.Errorf("queue url is required")
	}
	if cfg.QueueUser == "" {
		return fmt.Errorf("queue user is required")
	}
	if cfg.QueueProcessingTimeout <= 0 {
		return fmt.Errorf("queue processing timeout should be positive")
	}
	return nil
}

// New returns a fully parsed Config object from a given file directory
func New(cfgFile string) (*Config, error) {
	viper.SetConfigFile(cfgFile)

	viper.AutomaticEnv()
	/*
		Below code will replace nested fields in yml into `_` and any `-` into `__` when you try to override this config via env variable
		To give an example:
		1. `contract.reward-rate` can be overridden by `CONTRACT_REWARD__RATE`
		2. `db.address` can be overridden by `DB_ADDRESS`
	*/
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "__"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
