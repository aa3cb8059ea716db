package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "RUGSIM"

// Storage backends.
const (
	StoreMemory   = "memory"
	StoreJSONL    = "jsonl"
	StorePostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Store          string
	DataDir        string
	PGDSN          string
	Migrate        bool
	FeeRate        float64
	RetainFraction float64
	DrainMode      string
	LedgerCap      int
	MaxRetries     int
	RetryBackoff   time.Duration
	LogLevel       string
	Listen         string
	Window         time.Duration
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", StoreJSONL)
	v.SetDefault("data-dir", "./data")
	v.SetDefault("migrate", true)
	v.SetDefault("fee-rate", 0.003)
	v.SetDefault("retain-fraction", 0.05)
	v.SetDefault("drain-mode", "base")
	v.SetDefault("ledger-cap", 1000)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 200*time.Millisecond)
	v.SetDefault("log-level", "info")
	v.SetDefault("listen", ":8080")
	v.SetDefault("window", 5*time.Minute)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Store:          strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		DataDir:        v.GetString("data-dir"),
		PGDSN:          v.GetString("pg-dsn"),
		Migrate:        v.GetBool("migrate"),
		FeeRate:        v.GetFloat64("fee-rate"),
		RetainFraction: v.GetFloat64("retain-fraction"),
		DrainMode:      v.GetString("drain-mode"),
		LedgerCap:      v.GetInt("ledger-cap"),
		MaxRetries:     v.GetInt("max-retries"),
		RetryBackoff:   v.GetDuration("retry-backoff"),
		LogLevel:       v.GetString("log-level"),
		Listen:         v.GetString("listen"),
		Window:         v.GetDuration("window"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that have no sensible fallback.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreJSONL:
		if c.DataDir == "" {
			return fmt.Errorf("data-dir is required for the jsonl store")
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q (want memory, jsonl or postgres)", c.Store)
	}
	if c.LedgerCap < 0 {
		return fmt.Errorf("ledger-cap must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must not be negative")
	}
	return nil
}
