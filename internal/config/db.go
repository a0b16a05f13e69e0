package config

import (
	"fmt"
	"net/url"
)

const (
	DbBackendMongo   = "mongo"
	DbBackendLevelDB = "leveldb"

	defaultMaxPaginationLimit = 100
)

type DbConfig struct {
	// Backend is either "mongo" (default) or "leveldb" for single node deployments
	Backend            string `mapstructure:"backend"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	DbName             string `mapstructure:"db-name"`
	Address            string `mapstructure:"address"`
	LevelDBPath        string `mapstructure:"leveldb-path"`
	MaxPaginationLimit int64  `mapstructure:"max-pagination-limit"`
}

func (cfg *DbConfig) Validate() error {
	if cfg.Backend == "" {
		cfg.Backend = DbBackendMongo
	}
	if cfg.MaxPaginationLimit <= 0 {
		cfg.MaxPaginationLimit = defaultMaxPaginationLimit
	}

	switch cfg.Backend {
	case DbBackendMongo:
		return cfg.validateMongo()
	case DbBackendLevelDB:
		if cfg.LevelDBPath == "" {
			return fmt.Errorf("leveldb path is required for leveldb backend")
		}
		return nil
	default:
		return fmt.Errorf("unsupported db backend %q", cfg.Backend)
	}
}

func (cfg *DbConfig) validateMongo() error {
	if cfg.Username == "" {
		return fmt.Errorf("missing db username")
	}

	if cfg.Password == "" {
		return fmt.Errorf("missing db password")
	}

	if cfg.Address == "" {
		return fmt.Errorf("missing db address")
	}

	if cfg.DbName == "" {
		return fmt.Errorf("missing db name")
	}

	u, err := url.Parse(cfg.Address)
	if err != nil {
		return fmt.Errorf("invalid db address: %w", err)
	}

	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("unsupported db address scheme: %s", u.Scheme)
	}

	return nil
}
