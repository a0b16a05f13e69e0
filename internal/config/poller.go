package config

import (
	"errors"
	"time"
)

const defaultInFlightStakesLimit = 100

type PollerConfig struct {
	ReconcilePollingInterval time.Duration `mapstructure:"reconcile-polling-interval"`
	// ReconcileGracePeriod is how long a record may await a confirmation before it is reconciled
	ReconcileGracePeriod time.Duration `mapstructure:"reconcile-grace-period"`
	InFlightStakesLimit  int64         `mapstructure:"in-flight-stakes-limit"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.ReconcilePollingInterval <= 0 {
		return errors.New("reconcile-polling-interval must be positive")
	}

	if cfg.ReconcileGracePeriod <= 0 {
		return errors.New("reconcile-grace-period must be positive")
	}

	if cfg.InFlightStakesLimit <= 0 {
		cfg.InFlightStakesLimit = defaultInFlightStakesLimit
	}

	return nil
}
