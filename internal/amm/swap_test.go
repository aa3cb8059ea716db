package amm

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rugpullSim/internal/model"
)

const tolerance = 1e-9

func testEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Now == nil {
		fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		cfg.Now = func() time.Time { return fixed }
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return "pool-1" }
	}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func activePool(token, base float64) model.Pool {
	return model.Pool{
		ID:             "pool-1",
		TokenID:        "token-1",
		TokenReserve:   token,
		BaseReserve:    base,
		TotalLiquidity: math.Sqrt(token * base),
		IsActive:       true,
	}
}

func TestComputeSwapScenario(t *testing.T) {
	e := testEngine(t, Config{})
	pool := activePool(1000, 10)

	res, err := e.ComputeSwap(pool, 100, model.TokenToBase)
	require.NoError(t, err)

	want := 10 - (1000.0*10)/(1000+99.7)
	assert.InDelta(t, want, res.OutputAmount, tolerance)
	assert.InDelta(t, 0.907, res.OutputAmount, 1e-3)
	assert.InDelta(t, 0.3, res.Fee, tolerance)
	assert.InDelta(t, 1100, res.NewTokenReserve, tolerance)
	assert.InDelta(t, 10-want, res.NewBaseReserve, tolerance)

	// the input pool is untouched
	assert.Equal(t, 1000.0, pool.TokenReserve)
	assert.Equal(t, 10.0, pool.BaseReserve)
}

func TestComputeSwapPreservesInvariant(t *testing.T) {
	e := testEngine(t, Config{})

	testCases := []struct {
		name      string
		token     float64
		base      float64
		amountIn  float64
		direction model.Direction
	}{
		{name: "sell small", token: 1000, base: 10, amountIn: 1, direction: model.TokenToBase},
		{name: "sell large", token: 1000, base: 10, amountIn: 50000, direction: model.TokenToBase},
		{name: "buy small", token: 100000, base: 10, amountIn: 0.01, direction: model.BaseToToken},
		{name: "buy large", token: 100000, base: 10, amountIn: 250, direction: model.BaseToToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pool := activePool(tc.token, tc.base)
			res, err := e.ComputeSwap(pool, tc.amountIn, tc.direction)
			require.NoError(t, err)

			x, y := tc.token, tc.base
			if tc.direction == model.BaseToToken {
				x, y = tc.base, tc.token
			}
			k := x * y
			got := (x + tc.amountIn*(1-e.FeeRate())) * (y - res.OutputAmount)
			assert.InEpsilon(t, k, got, 1e-9)

			// fee stays in the pool, so k never shrinks
			assert.GreaterOrEqual(t, res.NewTokenReserve*res.NewBaseReserve, k*(1-1e-12))
		})
	}
}

func TestComputeSwapMonotonic(t *testing.T) {
	e := testEngine(t, Config{})
	pool := activePool(50000, 25)

	for _, direction := range []model.Direction{model.TokenToBase, model.BaseToToken} {
		prevOut, prevImpact := 0.0, 0.0
		for _, amount := range []float64{0.001, 0.1, 1, 10, 100, 1000, 10000} {
			res, err := e.ComputeSwap(pool, amount, direction)
			require.NoError(t, err)
			assert.Greater(t, res.OutputAmount, prevOut, "output for %v %f", direction, amount)
			assert.Greater(t, math.Abs(res.PriceImpactPercent), prevImpact, "impact for %v %f", direction, amount)
			prevOut = res.OutputAmount
			prevImpact = math.Abs(res.PriceImpactPercent)
		}
	}
}

func TestComputeSwapBoundaries(t *testing.T) {
	e := testEngine(t, Config{})
	pool := activePool(1000, 10)

	tiny, err := e.ComputeSwap(pool, 1e-9, model.TokenToBase)
	require.NoError(t, err)
	assert.InDelta(t, 0, tiny.OutputAmount, 1e-9)
	assert.InDelta(t, 0, tiny.PriceImpactPercent, 1e-6)

	for _, amount := range []float64{1000, 1e6, 1e12, 1e30} {
		res, err := e.ComputeSwap(pool, amount, model.TokenToBase)
		require.NoError(t, err)
		assert.Less(t, res.OutputAmount, pool.BaseReserve)
		assert.Greater(t, res.NewBaseReserve, 0.0)
	}
}

func TestComputeSwapPriceImpactSign(t *testing.T) {
	e := testEngine(t, Config{})
	pool := activePool(1000, 10)

	sell, err := e.ComputeSwap(pool, 100, model.TokenToBase)
	require.NoError(t, err)
	assert.Less(t, sell.PriceImpactPercent, 0.0)
	assert.InDelta(t, math.Abs(sell.PriceImpactPercent), sell.Slippage, tolerance)

	buy, err := e.ComputeSwap(pool, 1, model.BaseToToken)
	require.NoError(t, err)
	assert.Greater(t, buy.PriceImpactPercent, 0.0)
	assert.InDelta(t, buy.PriceImpactPercent, buy.Slippage, tolerance)

	wantSell := (sell.NewBaseReserve/sell.NewTokenReserve - 0.01) / 0.01 * 100
	assert.InDelta(t, wantSell, sell.PriceImpactPercent, tolerance)
	wantBuy := (buy.NewBaseReserve/buy.NewTokenReserve - 0.01) / 0.01 * 100
	assert.InDelta(t, wantBuy, buy.PriceImpactPercent, tolerance)
}

func TestComputeSwapErrors(t *testing.T) {
	e := testEngine(t, Config{})

	rugged := activePool(1000, 10)
	rugged.IsRugged = true
	rugged.IsActive = false

	inactive := activePool(1000, 10)
	inactive.IsActive = false

	testCases := []struct {
		name      string
		pool      model.Pool
		amountIn  float64
		direction model.Direction
		wantErr   error
	}{
		{name: "negative amount", pool: activePool(1000, 10), amountIn: -1, direction: model.TokenToBase, wantErr: ErrInvalidInput},
		{name: "nan amount", pool: activePool(1000, 10), amountIn: math.NaN(), direction: model.TokenToBase, wantErr: ErrInvalidInput},
		{name: "empty token reserve", pool: activePool(0, 10), amountIn: 1, direction: model.TokenToBase, wantErr: ErrInvalidInput},
		{name: "empty base reserve", pool: activePool(1000, 0), amountIn: 1, direction: model.BaseToToken, wantErr: ErrInvalidInput},
		{name: "bad direction", pool: activePool(1000, 10), amountIn: 1, direction: "sideways", wantErr: ErrInvalidInput},
		{name: "rugged", pool: rugged, amountIn: 1, direction: model.TokenToBase, wantErr: ErrAlreadyRugged},
		{name: "inactive", pool: inactive, amountIn: 1, direction: model.TokenToBase, wantErr: ErrPoolInactive},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.ComputeSwap(tc.pool, tc.amountIn, tc.direction)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Zero(t, res.OutputAmount)
		})
	}
}

func TestComputeSwapZeroAmount(t *testing.T) {
	e := testEngine(t, Config{})
	pool, err := e.CreatePool("token-1", 100000, 10)
	require.NoError(t, err)
	assert.InDelta(t, 1000, pool.TotalLiquidity, tolerance)

	res, err := e.ComputeSwap(pool, 0, model.TokenToBase)
	require.NoError(t, err)
	assert.Zero(t, res.OutputAmount)
	assert.Zero(t, res.PriceImpactPercent)
	assert.Equal(t, pool.TokenReserve, res.NewTokenReserve)
	assert.Equal(t, pool.BaseReserve, res.NewBaseReserve)

	priced, err := e.ComputeSwap(pool, 10, model.TokenToBase)
	require.NoError(t, err)
	assert.Greater(t, priced.OutputAmount, 0.0)

	rugged := pool
	rugged.IsRugged = true
	_, err = e.ComputeSwap(rugged, 0, model.TokenToBase)
	assert.ErrorIs(t, err, ErrAlreadyRugged)

	_, err = e.ComputeSwap(pool, 0, "sideways")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestApplySwap(t *testing.T) {
	e := testEngine(t, Config{})
	pool := activePool(1000, 10)

	res, err := e.ComputeSwap(pool, 1, model.BaseToToken)
	require.NoError(t, err)

	next := ApplySwap(pool, res)
	assert.Equal(t, res.NewTokenReserve, next.TokenReserve)
	assert.Equal(t, res.NewBaseReserve, next.BaseReserve)
	assert.Equal(t, pool.TotalLiquidity, next.TotalLiquidity)
	assert.Equal(t, 1000.0, pool.TokenReserve)
}

func TestPriceGuardsEmptyReserves(t *testing.T) {
	assert.Equal(t, 0.01, Price(activePool(1000, 10)))
	assert.Zero(t, Price(activePool(0, 10)))
	assert.Zero(t, Price(activePool(1000, 0)))
}
