package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "rugsim",
		Short:        "Rug pull simulator for constant-product liquidity pools",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("store", "jsonl", "storage backend (memory, jsonl, postgres)")
	flags.String("data-dir", "./data", "directory for the jsonl store")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.Bool("migrate", true, "apply postgres migrations on start")
	flags.Float64("fee-rate", 0.003, "swap fee kept by the pool")
	flags.Float64("retain-fraction", 0.05, "share of reserves left behind by a rug pull")
	flags.String("drain-mode", "base", "rug pull drain mode (base, proportional)")
	flags.Int("ledger-cap", 1000, "number of most recent transactions kept in memory")
	flags.Int("max-retries", 3, "maximum storage retry attempts")
	flags.Duration("retry-backoff", 200*time.Millisecond, "initial storage retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMintCmd(),
		newCreatePoolCmd(),
		newQuoteCmd(),
		newSwapCmd(),
		newAddLiquidityCmd(),
		newRemoveLiquidityCmd(),
		newRugPullCmd(),
		newPoolsCmd(),
		newLedgerCmd(),
		newAnalyticsCmd(),
		newDemoCmd(),
		newServeCmd(),
	)
	return root
}
