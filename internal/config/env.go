package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends for the local server.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Env is the local server configuration.
type Env struct {
	Addr          string        `env:"BLACKJACK_ADDR" envDefault:":8080"`
	ScenariosPath string        `env:"BLACKJACK_SCENARIOS" envDefault:"data/scenarios.json"`
	Store         string        `env:"BLACKJACK_STORE" envDefault:"sqlite"`
	SQLitePath    string        `env:"BLACKJACK_SQLITE_PATH" envDefault:"tmp/blackjack.sqlite"`
	PostgresDSN   string        `env:"BLACKJACK_POSTGRES_DSN"`
	RedisAddr     string        `env:"BLACKJACK_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix   string        `env:"BLACKJACK_REDIS_PREFIX" envDefault:"blackjack:local"`
	Tick          time.Duration `env:"BLACKJACK_TICK" envDefault:"1s"`
	Seed          int64         `env:"BLACKJACK_SEED"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses and validates Env.
func LoadEnv() (Env, error) {
	var cfg Env
	if err := ParseEnv(&cfg); err != nil {
		return Env{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Env{}, err
	}
	return cfg, nil
}

// Validate checks backend-specific settings.
func (e Env) Validate() error {
	switch e.Store {
	case StoreSQLite:
		if e.SQLitePath == "" {
			return fmt.Errorf("BLACKJACK_SQLITE_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if e.PostgresDSN == "" {
			return fmt.Errorf("BLACKJACK_POSTGRES_DSN is required for the postgres store")
		}
	case StoreRedis:
		if e.RedisAddr == "" {
			return fmt.Errorf("BLACKJACK_REDIS_ADDR is required for the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown BLACKJACK_STORE %q", e.Store)
	}
	if e.Tick <= 0 {
		return fmt.Errorf("BLACKJACK_TICK must be positive")
	}
	return nil
}
