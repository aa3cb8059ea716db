package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rugpullSim/internal/amm"
	"rugpullSim/internal/analytics"
	"rugpullSim/internal/model"
	"rugpullSim/internal/simulator"
)

// demoStep is one line of the scripted scenario output.
type demoStep struct {
	Step        string  `json:"step"`
	PoolID      string  `json:"pool_id,omitempty"`
	AmountIn    float64 `json:"amount_in,omitempty"`
	AmountOut   float64 `json:"amount_out,omitempty"`
	Price       float64 `json:"price"`
	PriceImpact float64 `json:"price_impact"`
}

type demoReport struct {
	Steps   []demoStep        `json:"steps"`
	RugPull amm.RugPullResult `json:"rug_pull"`
	Summary analytics.Summary `json:"summary"`
}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted scam: mint, seed a pool, let buyers in, then pull the rug",
		RunE: func(cmd *cobra.Command, _ []string) error {
			buyers, _ := cmd.Flags().GetInt("buyers")
			buy, _ := cmd.Flags().GetFloat64("buy")
			return run(cmd, func(ctx context.Context, a *app) (any, error) {
				return runDemo(ctx, a, buyers, buy)
			})
		},
	}
	cmd.Flags().Int("buyers", 3, "number of victims buying in before the rug pull")
	cmd.Flags().Float64("buy", 5, "base amount each victim spends")
	return cmd
}

func runDemo(ctx context.Context, a *app, buyers int, buy float64) (demoReport, error) {
	var report demoReport
	s := a.session

	minted, err := s.MintToken(ctx, simulator.MintRequest{
		Name:        "Totally Safe Token",
		Symbol:      "SAFE",
		TotalSupply: 1_000_000_000,
	})
	if err != nil {
		return report, err
	}

	created, err := s.CreatePool(ctx, minted.Token.ID, 1_000_000, 100)
	if err != nil {
		return report, err
	}
	poolID := created.Pool.ID
	report.Steps = append(report.Steps, demoStep{
		Step:   "create_pool",
		PoolID: poolID,
		Price:  amm.Price(created.Pool),
	})

	for i := 0; i < buyers; i++ {
		out, err := s.Swap(ctx, poolID, buy, model.BaseToToken)
		if err != nil {
			return report, err
		}
		report.Steps = append(report.Steps, demoStep{
			Step:        fmt.Sprintf("victim_buy_%d", i+1),
			PoolID:      poolID,
			AmountIn:    out.Swap.AmountIn,
			AmountOut:   out.Swap.OutputAmount,
			Price:       out.Swap.PriceAfter,
			PriceImpact: out.Swap.PriceImpactPercent,
		})
	}

	rug, err := s.RugPull(ctx, poolID)
	if err != nil {
		return report, err
	}
	report.RugPull = rug.RugPull
	report.Steps = append(report.Steps, demoStep{
		Step:        "rug_pull",
		PoolID:      poolID,
		AmountIn:    rug.RugPull.StolenAmount,
		AmountOut:   rug.RugPull.StolenAmount,
		Price:       rug.RugPull.NewPrice,
		PriceImpact: -rug.RugPull.PriceDropPercent,
	})

	// a late buyer finds the pool closed
	if _, err := s.Swap(ctx, poolID, buy, model.BaseToToken); err != nil {
		a.logger.Info("late buyer rejected", zap.String("pool", poolID), zap.Error(err))
	}

	report.Summary = s.Analytics(analytics.AllTime)
	return report, nil
}
