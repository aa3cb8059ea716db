package amm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rugpullSim/internal/model"
)

func TestCreatePool(t *testing.T) {
	e := testEngine(t, Config{})

	pool, err := e.CreatePool("token-1", 100000, 10)
	require.NoError(t, err)

	assert.Equal(t, "pool-1", pool.ID)
	assert.Equal(t, "token-1", pool.TokenID)
	assert.Equal(t, model.DefaultBaseCurrency, pool.BaseCurrency)
	assert.InDelta(t, 1000, pool.TotalLiquidity, tolerance)
	assert.True(t, pool.IsActive)
	assert.False(t, pool.IsRugged)
	assert.Nil(t, pool.RugDate)
	assert.Equal(t, model.SchemaVersion, pool.SchemaVersion)
	assert.False(t, pool.CreatedAt.IsZero())
}

func TestCreatePoolRejectsBadInput(t *testing.T) {
	e := testEngine(t, Config{})

	testCases := []struct {
		name    string
		tokenID string
		token   float64
		base    float64
	}{
		{name: "missing token", tokenID: " ", token: 1, base: 1},
		{name: "zero token reserve", tokenID: "t", token: 0, base: 1},
		{name: "negative base reserve", tokenID: "t", token: 1, base: -1},
		{name: "infinite reserve", tokenID: "t", token: math.Inf(1), base: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.CreatePool(tc.tokenID, tc.token, tc.base)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAddLiquidity(t *testing.T) {
	e := testEngine(t, Config{})
	pool := activePool(1000, 10)

	res, err := e.AddLiquidity(pool, 500, 5)
	require.NoError(t, err)

	assert.InDelta(t, 1500, res.Pool.TokenReserve, tolerance)
	assert.InDelta(t, 15, res.Pool.BaseReserve, tolerance)
	assert.InDelta(t, math.Sqrt(1500*15), res.Pool.TotalLiquidity, tolerance)
	assert.InDelta(t, math.Sqrt(1500*15)-math.Sqrt(1000*10), res.LiquidityDelta, tolerance)
	// deposit matches the current ratio, so the price holds
	assert.InDelta(t, 0, res.PriceImpact, 1e-9)
	assert.Equal(t, 1000.0, pool.TokenReserve)

	skewed, err := e.AddLiquidity(pool, 1, 10)
	require.NoError(t, err)
	assert.Greater(t, skewed.PriceImpact, 0.0)
}

func TestRemoveLiquidity(t *testing.T) {
	e := testEngine(t, Config{})
	pool := activePool(1000, 10)

	res, err := e.RemoveLiquidity(pool, 0.25)
	require.NoError(t, err)
	assert.InDelta(t, 750, res.Pool.TokenReserve, tolerance)
	assert.InDelta(t, 7.5, res.Pool.BaseReserve, tolerance)
	assert.InDelta(t, 250, res.TokenAmount, tolerance)
	assert.InDelta(t, 2.5, res.BaseAmount, tolerance)
	assert.InDelta(t, 0, res.PriceImpact, 1e-9)

	for _, fraction := range []float64{0, 1, -0.5, 2} {
		_, err := e.RemoveLiquidity(pool, fraction)
		assert.ErrorIs(t, err, ErrInvalidInput, "fraction %f", fraction)
	}
}

func TestLiquidityRejectsRuggedPool(t *testing.T) {
	e := testEngine(t, Config{})
	pool := activePool(1000, 10)
	pool.IsRugged = true
	pool.IsActive = false

	_, err := e.AddLiquidity(pool, 1, 1)
	assert.ErrorIs(t, err, ErrAlreadyRugged)
	_, err = e.RemoveLiquidity(pool, 0.5)
	assert.ErrorIs(t, err, ErrAlreadyRugged)
}
