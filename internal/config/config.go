package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the value object handed to every service constructor. It is
// built once at startup and read-only afterwards.
type Config struct {
	DefaultCurrency     string
	SupportedCurrencies []string

	// Per-transaction amount limits. A zero MaxTransactionAmount means
	// no upper limit.
	MinTransactionAmount decimal.Decimal
	MaxTransactionAmount decimal.Decimal

	// BatchSizeLimit caps the number of items accepted per batch.
	BatchSizeLimit int

	// EnforceUniqueness rejects a second wallet for the same
	// (holder, currency, slug) triple.
	EnforceUniqueness bool

	// Anomaly scoring thresholds.
	AnomalyAmountMultiplier decimal.Decimal
	AnomalyWindow           time.Duration
	AnomalyMaxOperations    int

	Database DatabaseConfig
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Load reads configuration from the environment with sane defaults.
// Environment keys use the WALLET_ prefix with underscores, e.g.
// WALLET_BATCH_SIZE_LIMIT or WALLET_DATABASE_HOST.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("wallet")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("default_currency", "USD")
	v.SetDefault("supported_currencies", "USD,EUR,GBP,NGN")
	v.SetDefault("min_transaction_amount", "0")
	v.SetDefault("max_transaction_amount", "0")
	v.SetDefault("batch_size_limit", 1000)
	v.SetDefault("enforce_uniqueness", true)
	v.SetDefault("anomaly_amount_multiplier", "3")
	v.SetDefault("anomaly_window", 10*time.Minute)
	v.SetDefault("anomaly_max_operations", 50)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "multiwallet")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	minAmount, err := decimal.NewFromString(strings.TrimSpace(v.GetString("min_transaction_amount")))
	if err != nil {
		return Config{}, fmt.Errorf("parse min_transaction_amount: %w", err)
	}
	maxAmount, err := decimal.NewFromString(strings.TrimSpace(v.GetString("max_transaction_amount")))
	if err != nil {
		return Config{}, fmt.Errorf("parse max_transaction_amount: %w", err)
	}
	multiplier, err := decimal.NewFromString(strings.TrimSpace(v.GetString("anomaly_amount_multiplier")))
	if err != nil {
		return Config{}, fmt.Errorf("parse anomaly_amount_multiplier: %w", err)
	}

	cfg := Config{
		DefaultCurrency:         strings.ToUpper(strings.TrimSpace(v.GetString("default_currency"))),
		SupportedCurrencies:     splitCurrencies(v.GetString("supported_currencies")),
		MinTransactionAmount:    minAmount,
		MaxTransactionAmount:    maxAmount,
		BatchSizeLimit:          v.GetInt("batch_size_limit"),
		EnforceUniqueness:       v.GetBool("enforce_uniqueness"),
		AnomalyAmountMultiplier: multiplier,
		AnomalyWindow:           v.GetDuration("anomaly_window"),
		AnomalyMaxOperations:    v.GetInt("anomaly_max_operations"),
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the configuration used when no environment is present,
// handy for tests and in-memory wiring.
func Default() Config {
	return Config{
		DefaultCurrency:         "USD",
		SupportedCurrencies:     []string{"USD", "EUR", "GBP", "NGN"},
		MinTransactionAmount:    decimal.Zero,
		MaxTransactionAmount:    decimal.Zero,
		BatchSizeLimit:          1000,
		EnforceUniqueness:       true,
		AnomalyAmountMultiplier: decimal.NewFromInt(3),
		AnomalyWindow:           10 * time.Minute,
		AnomalyMaxOperations:    50,
	}
}

func (c Config) Validate() error {
	if c.DefaultCurrency == "" {
		return fmt.Errorf("default currency is required")
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("default currency must be a 3-letter code")
	}
	if c.BatchSizeLimit <= 0 {
		return fmt.Errorf("batch size limit must be positive")
	}
	if c.MinTransactionAmount.IsNegative() {
		return fmt.Errorf("min transaction amount cannot be negative")
	}
	if !c.Supports(c.DefaultCurrency) {
		return fmt.Errorf("default currency %s is not in the supported set", c.DefaultCurrency)
	}
	return nil
}

// Supports reports whether the currency code is in the supported set.
func (c Config) Supports(currency string) bool {
	code := strings.ToUpper(strings.TrimSpace(currency))
	for _, supported := range c.SupportedCurrencies {
		if supported == code {
			return true
		}
	}
	return false
}

func splitCurrencies(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code != "" {
			out = append(out, code)
		}
	}
	return out
}
