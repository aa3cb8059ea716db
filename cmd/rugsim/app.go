package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rugpullSim/internal/amm"
	"rugpullSim/internal/config"
	"rugpullSim/internal/ledger"
	"rugpullSim/internal/observability"
	"rugpullSim/internal/simulator"
	"rugpullSim/internal/storage"
	"rugpullSim/internal/storage/jsonl"
	"rugpullSim/internal/storage/memory"
	"rugpullSim/internal/storage/postgres"
)

// app bundles what every subcommand needs.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	session *simulator.Session
}

// openApp loads config, builds the storage stack and restores the session.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	drainMode, err := amm.ParseDrainMode(cfg.DrainMode)
	if err != nil {
		return nil, err
	}
	engine, err := amm.NewEngine(amm.Config{
		FeeRate:        &cfg.FeeRate,
		RetainFraction: cfg.RetainFraction,
		DrainMode:      drainMode,
	})
	if err != nil {
		return nil, err
	}

	store, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	store = storage.WithRetry(store, storage.RetryConfig{
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.RetryBackoff,
	}, logger)

	metrics := observability.NewMetrics("")
	session, err := simulator.New(simulator.Options{
		Engine:  engine,
		Ledger:  ledger.New(ledger.Options{Capacity: cfg.LedgerCap}),
		Storage: store,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := session.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Debug("session ready",
		zap.String("store", cfg.Store),
		zap.Float64("fee_rate", engine.FeeRate()),
		zap.Float64("retain_fraction", engine.RetainFraction()),
		zap.String("drain_mode", string(engine.DrainMode())),
	)
	return &app{cfg: cfg, logger: logger, metrics: metrics, session: session}, nil
}

func (a *app) Close() {
	if err := a.session.Close(); err != nil {
		a.logger.Warn("close storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func newStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Storage, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.NewStore(), nil
	case config.StoreJSONL:
		return jsonl.NewStore(cfg.DataDir, logger)
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := store.Migrate(ctx); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
