package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rugpullSim/internal/analytics"
	"rugpullSim/internal/ledger"
	"rugpullSim/internal/model"
	"rugpullSim/internal/simulator"
)

// run opens the session, hands it to fn and prints fn's result as JSON.
func run(cmd *cobra.Command, fn func(ctx context.Context, a *app) (any, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := fn(ctx, a)
	if err != nil {
		if pending, ok := simulator.PendingFrom(err); ok {
			_ = printJSON(cmd.ErrOrStderr(), pending)
		}
		return err
	}
	if out == nil {
		return nil
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func newMintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a new token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			symbol, _ := cmd.Flags().GetString("symbol")
			supply, _ := cmd.Flags().GetFloat64("supply")
			decimals, _ := cmd.Flags().GetUint8("decimals")
			return run(cmd, func(ctx context.Context, a *app) (any, error) {
				return a.session.MintToken(ctx, simulator.MintRequest{
					Name:        name,
					Symbol:      symbol,
					TotalSupply: supply,
					Decimals:    decimals,
				})
			})
		},
	}
	cmd.Flags().String("name", "", "token name")
	cmd.Flags().String("symbol", "", "token symbol (max 10 characters)")
	cmd.Flags().Float64("supply", simulator.DefaultTotalSupply, "total supply")
	cmd.Flags().Uint8("decimals", 18, "token decimals")
	return cmd
}

func newCreatePoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-pool",
		Short: "Open a liquidity pool for a token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokenID, _ := cmd.Flags().GetString("token")
			tokenReserve, _ := cmd.Flags().GetFloat64("token-reserve")
			baseReserve, _ := cmd.Flags().GetFloat64("base-reserve")
			return run(cmd, func(ctx context.Context, a *app) (any, error) {
				return a.session.CreatePool(ctx, tokenID, tokenReserve, baseReserve)
			})
		},
	}
	cmd.Flags().String("token", "", "token id")
	cmd.Flags().Float64("token-reserve", 100000, "initial token reserve")
	cmd.Flags().Float64("base-reserve", 10, "initial base reserve")
	return cmd
}

func addSwapFlags(cmd *cobra.Command) {
	cmd.Flags().String("pool", "", "pool id")
	cmd.Flags().Float64("amount", 0, "input amount")
	cmd.Flags().String("direction", string(model.BaseToToken), "token_to_base or base_to_token")
}

func swapArgs(cmd *cobra.Command) (string, float64, model.Direction, error) {
	poolID, _ := cmd.Flags().GetString("pool")
	amount, _ := cmd.Flags().GetFloat64("amount")
	raw, _ := cmd.Flags().GetString("direction")
	direction, err := model.ParseDirection(raw)
	return poolID, amount, direction, err
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap without executing it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			poolID, amount, direction, err := swapArgs(cmd)
			if err != nil {
				return err
			}
			return run(cmd, func(_ context.Context, a *app) (any, error) {
				return a.session.Quote(poolID, amount, direction)
			})
		},
	}
	addSwapFlags(cmd)
	return cmd
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Execute a swap against a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			poolID, amount, direction, err := swapArgs(cmd)
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, a *app) (any, error) {
				return a.session.Swap(ctx, poolID, amount, direction)
			})
		},
	}
	addSwapFlags(cmd)
	return cmd
}

func newAddLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-liquidity",
		Short: "Deposit both assets into a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			poolID, _ := cmd.Flags().GetString("pool")
			tokenAmount, _ := cmd.Flags().GetFloat64("token-amount")
			baseAmount, _ := cmd.Flags().GetFloat64("base-amount")
			return run(cmd, func(ctx context.Context, a *app) (any, error) {
				return a.session.AddLiquidity(ctx, poolID, tokenAmount, baseAmount)
			})
		},
	}
	cmd.Flags().String("pool", "", "pool id")
	cmd.Flags().Float64("token-amount", 0, "token amount to deposit")
	cmd.Flags().Float64("base-amount", 0, "base amount to deposit")
	return cmd
}

func newRemoveLiquidityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-liquidity",
		Short: "Withdraw a fraction of both reserves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			poolID, _ := cmd.Flags().GetString("pool")
			fraction, _ := cmd.Flags().GetFloat64("fraction")
			return run(cmd, func(ctx context.Context, a *app) (any, error) {
				return a.session.RemoveLiquidity(ctx, poolID, fraction)
			})
		},
	}
	cmd.Flags().String("pool", "", "pool id")
	cmd.Flags().Float64("fraction", 0.1, "fraction to withdraw, between 0 and 1")
	return cmd
}

func newRugPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rug-pull",
		Short: "Drain a pool and mark it rugged",
		RunE: func(cmd *cobra.Command, _ []string) error {
			poolID, _ := cmd.Flags().GetString("pool")
			return run(cmd, func(ctx context.Context, a *app) (any, error) {
				return a.session.RugPull(ctx, poolID)
			})
		},
	}
	cmd.Flags().String("pool", "", "pool id")
	return cmd
}

func newPoolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pools",
		Short: "List pools and tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(_ context.Context, a *app) (any, error) {
				return map[string]any{
					"tokens": a.session.Tokens(),
					"pools":  a.session.Pools(),
				}, nil
			})
		},
	}
}

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List recorded transactions, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			poolID, _ := cmd.Flags().GetString("pool")
			rawType, _ := cmd.Flags().GetString("type")
			limit, _ := cmd.Flags().GetInt("limit")

			filter := ledger.Filter{PoolID: poolID, Limit: limit}
			if rawType != "" {
				txType, err := model.ParseTxType(rawType)
				if err != nil {
					return err
				}
				filter.Type = txType
			}
			return run(cmd, func(_ context.Context, a *app) (any, error) {
				return a.session.Transactions(filter), nil
			})
		},
	}
	cmd.Flags().String("pool", "", "only transactions of this pool")
	cmd.Flags().String("type", "", "only transactions of this type")
	cmd.Flags().Int("limit", 20, "maximum number of transactions, 0 for all")
	return cmd
}

func newAnalyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Summarize activity over a timeframe, or the history of one pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rawTimeframe, _ := cmd.Flags().GetString("timeframe")
			poolID, _ := cmd.Flags().GetString("pool")
			dashboard, _ := cmd.Flags().GetBool("dashboard")

			timeframe, err := analytics.ParseTimeframe(rawTimeframe)
			if err != nil {
				return err
			}
			return run(cmd, func(_ context.Context, a *app) (any, error) {
				switch {
				case poolID != "":
					return a.session.Insights(poolID, a.cfg.Window)
				case dashboard:
					return a.session.Dashboard(), nil
				default:
					return a.session.Analytics(timeframe), nil
				}
			})
		},
	}
	cmd.Flags().String("timeframe", string(analytics.AllTime), "1h, 24h, 7d or all")
	cmd.Flags().String("pool", "", "show price history and volume buckets for one pool")
	cmd.Flags().Duration("window", 0, "volume bucket size for --pool (default 5m)")
	cmd.Flags().Bool("dashboard", false, "show headline counters and the most recent transactions")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve read-only JSON views and Prometheus metrics",
		RunE:  runServe,
	}
	cmd.Flags().String("listen", ":8080", "listen address")
	cmd.Flags().Duration("window", 0, "default volume bucket size for insights (default 5m)")
	return cmd
}
