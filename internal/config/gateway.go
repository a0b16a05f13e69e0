package config

import (
	"fmt"
	"net/url"
	"time"
)

// GatewayConfig defines how the host gateway executing calls on external contracts is reached
type GatewayConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	// Timeout bounds a single http request to the gateway
	Timeout time.Duration `mapstructure:"timeout"`
	// CallTimeout bounds how long a dispatched remote call is awaited before it is left to reconciliation
	CallTimeout   time.Duration `mapstructure:"call-timeout"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
}

func (cfg *GatewayConfig) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("gateway endpoint is required")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return fmt.Errorf("invalid gateway endpoint: %w", err)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("gateway timeout should be positive")
	}
	if cfg.CallTimeout < cfg.Timeout {
		return fmt.Errorf("gateway call-timeout should not be shorter than timeout")
	}
	if cfg.MaxRetryTimes == 0 {
		return fmt.Errorf("gateway max retry times should be positive")
	}
	if cfg.RetryInterval <= 0 {
		return fmt.Errorf("gateway retry interval should be positive")
	}
	return nil
}
