package amm

import (
	"fmt"
	"math"
	"strings"

	"rugpullSim/internal/model"
)

// LiquidityResult describes a liquidity change on an existing pool.
type LiquidityResult struct {
	Pool           model.Pool `json:"pool"`
	TokenAmount    float64    `json:"token_amount"`
	BaseAmount     float64    `json:"base_amount"`
	LiquidityDelta float64    `json:"liquidity_delta"`
	PriceBefore    float64    `json:"price_before"`
	PriceAfter     float64    `json:"price_after"`
	PriceImpact    float64    `json:"price_impact"`
}

// CreatePool builds a new active pool seeded with both reserves. The pool
// depth is the geometric mean of the reserves.
func (e *Engine) CreatePool(tokenID string, tokenReserve, baseReserve float64) (model.Pool, error) {
	if strings.TrimSpace(tokenID) == "" {
		return model.Pool{}, fmt.Errorf("%w: token id is required", ErrInvalidInput)
	}
	if !isFinite(tokenReserve) || tokenReserve <= 0 {
		return model.Pool{}, fmt.Errorf("%w: token reserve must be positive", ErrInvalidInput)
	}
	if !isFinite(baseReserve) || baseReserve <= 0 {
		return model.Pool{}, fmt.Errorf("%w: base reserve must be positive", ErrInvalidInput)
	}

	now := e.cfg.Now()
	return model.Pool{
		ID:             e.cfg.NewID(),
		TokenID:        tokenID,
		BaseCurrency:   model.DefaultBaseCurrency,
		TokenReserve:   tokenReserve,
		BaseReserve:    baseReserve,
		TotalLiquidity: geometricMean(tokenReserve, baseReserve),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
		SchemaVersion:  model.SchemaVersion,
	}, nil
}

// AddLiquidity deposits both amounts into pool. Amounts off the current ratio
// move the spot price, which is reported as PriceImpact.
func (e *Engine) AddLiquidity(pool model.Pool, tokenAmount, baseAmount float64) (LiquidityResult, error) {
	if err := checkTradable(pool); err != nil {
		return LiquidityResult{}, err
	}
	if !isFinite(tokenAmount) || tokenAmount <= 0 || !isFinite(baseAmount) || baseAmount <= 0 {
		return LiquidityResult{}, fmt.Errorf("%w: liquidity amounts must be positive", ErrInvalidInput)
	}

	out := pool.Clone()
	out.TokenReserve += tokenAmount
	out.BaseReserve += baseAmount
	out.TotalLiquidity = geometricMean(out.TokenReserve, out.BaseReserve)
	out.UpdatedAt = e.cfg.Now()

	return newLiquidityResult(pool, out, tokenAmount, baseAmount), nil
}

// RemoveLiquidity withdraws fraction of both reserves. A full withdrawal is
// not allowed; draining a pool is what RugPull models.
func (e *Engine) RemoveLiquidity(pool model.Pool, fraction float64) (LiquidityResult, error) {
	if err := checkTradable(pool); err != nil {
		return LiquidityResult{}, err
	}
	if !isFinite(fraction) || fraction <= 0 || fraction >= 1 {
		return LiquidityResult{}, fmt.Errorf("%w: fraction must be in (0, 1)", ErrInvalidInput)
	}
	if pool.TokenReserve <= 0 || pool.BaseReserve <= 0 {
		return LiquidityResult{}, fmt.Errorf("%w: pool %s has an empty reserve", ErrInvalidInput, pool.ID)
	}

	tokenOut := pool.TokenReserve * fraction
	baseOut := pool.BaseReserve * fraction

	out := pool.Clone()
	out.TokenReserve -= tokenOut
	out.BaseReserve -= baseOut
	out.TotalLiquidity = geometricMean(out.TokenReserve, out.BaseReserve)
	out.UpdatedAt = e.cfg.Now()

	return newLiquidityResult(pool, out, tokenOut, baseOut), nil
}

func newLiquidityResult(before, after model.Pool, tokenAmount, baseAmount float64) LiquidityResult {
	priceBefore := Price(before)
	priceAfter := Price(after)
	return LiquidityResult{
		Pool:           after,
		TokenAmount:    tokenAmount,
		BaseAmount:     baseAmount,
		LiquidityDelta: math.Abs(after.TotalLiquidity - before.TotalLiquidity),
		PriceBefore:    priceBefore,
		PriceAfter:     priceAfter,
		PriceImpact:    percentChange(priceBefore, priceAfter),
	}
}
