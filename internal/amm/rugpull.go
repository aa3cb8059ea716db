package amm

import (
	"fmt"

	"rugpullSim/internal/model"
)

// RugPullResult describes the drained pool and the resulting price collapse.
type RugPullResult struct {
	Pool              model.Pool `json:"pool"`
	OldTokenReserve   float64    `json:"old_token_reserve"`
	OldBaseReserve    float64    `json:"old_base_reserve"`
	DrainedToken      float64    `json:"drained_token"`
	DrainedBase       float64    `json:"drained_base"`
	OldPrice          float64    `json:"old_price"`
	NewPrice          float64    `json:"new_price"`
	PriceDropPercent  float64    `json:"price_drop_percent"`
	OldTotalLiquidity float64    `json:"old_total_liquidity"`
	StolenAmount      float64    `json:"stolen_amount"`
}

// RugPull drains the pool according to the configured drain mode and marks it
// rugged. The transition is terminal.
func (e *Engine) RugPull(pool model.Pool) (RugPullResult, error) {
	if err := checkTradable(pool); err != nil {
		return RugPullResult{}, err
	}

	retain := e.cfg.RetainFraction
	drained := 1 - retain

	out := pool.Clone()
	out.BaseReserve = pool.BaseReserve * retain
	if e.cfg.DrainMode == DrainProportional {
		out.TokenReserve = pool.TokenReserve * retain
	}
	out.TotalLiquidity = geometricMean(out.TokenReserve, out.BaseReserve)
	now := e.cfg.Now()
	out.IsActive = false
	out.IsRugged = true
	out.RugDate = &now
	out.UpdatedAt = now

	oldPrice := Price(pool)
	newPrice := Price(out)
	var drop float64
	if oldPrice > 0 {
		drop = (oldPrice - newPrice) / oldPrice * 100
	}

	return RugPullResult{
		Pool:              out,
		OldTokenReserve:   pool.TokenReserve,
		OldBaseReserve:    pool.BaseReserve,
		DrainedToken:      pool.TokenReserve - out.TokenReserve,
		DrainedBase:       pool.BaseReserve - out.BaseReserve,
		OldPrice:          oldPrice,
		NewPrice:          newPrice,
		PriceDropPercent:  drop,
		OldTotalLiquidity: pool.TotalLiquidity,
		StolenAmount:      pool.TotalLiquidity * drained,
	}, nil
}

// String is used in log lines.
func (r RugPullResult) String() string {
	return fmt.Sprintf("pool=%s drop=%.2f%% stolen=%.6f", r.Pool.ID, r.PriceDropPercent, r.StolenAmount)
}
