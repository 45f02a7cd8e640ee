package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/holiman/uint256"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `env:"SERVICE_NAME" envDefault:"curio"`
	HTTPPort     string   `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN  string   `env:"POSTGRES_DSN"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`

	AdminAccountID string `env:"ADMIN_ACCOUNT_ID" envDefault:"admin"`

	// MintPrice is a decimal string so operators can configure amounts beyond
	// the uint64 range.
	MintPrice string `env:"MINT_PRICE" envDefault:"1000000000000000000"`
	MaxSupply uint64 `env:"MAX_SUPPLY" envDefault:"10000"`

	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if _, err := uint256.FromDecimal(cfg.MintPrice); err != nil {
		return Config{}, fmt.Errorf("parse MINT_PRICE %q: %w", cfg.MintPrice, err)
	}
	return cfg, nil
}

// MintPriceAmount returns the configured mint price as a 256-bit amount.
// Load validated the string already.
func (c Config) MintPriceAmount() *uint256.Int {
	amount, err := uint256.FromDecimal(c.MintPrice)
	if err != nil {
		return uint256.NewInt(0)
	}
	return amount
}
