package amm

import (
	"fmt"
	"math"

	"rugpullSim/internal/model"
)

// SwapResult is the outcome of pricing a trade against a pool.
//
// PriceImpactPercent is the signed percent change of the token spot price
// caused by the trade: negative when tokens are sold into the pool, positive
// when they are bought out of it.
type SwapResult struct {
	Direction          model.Direction `json:"direction"`
	AmountIn           float64         `json:"amount_in"`
	OutputAmount       float64         `json:"output_amount"`
	Fee                float64         `json:"fee"`
	NewTokenReserve    float64         `json:"new_token_reserve"`
	NewBaseReserve     float64         `json:"new_base_reserve"`
	PriceBefore        float64         `json:"price_before"`
	PriceAfter         float64         `json:"price_after"`
	PriceImpactPercent float64         `json:"price_impact_percent"`
	Slippage           float64         `json:"slippage"`
	ExecutionPrice     float64         `json:"execution_price"`
}

// ComputeSwap prices amountIn of the input side against pool. The fee is taken
// from the input before the constant-product formula is applied and stays in
// the pool, so the new input reserve grows by the full amountIn. An amountIn
// of 0 is a quote of nothing: the result is zero and the reserves unchanged.
func (e *Engine) ComputeSwap(pool model.Pool, amountIn float64, direction model.Direction) (SwapResult, error) {
	if err := checkTradable(pool); err != nil {
		return SwapResult{}, err
	}
	if !isFinite(amountIn) || amountIn < 0 {
		return SwapResult{}, fmt.Errorf("%w: amount in must not be negative", ErrInvalidInput)
	}
	if pool.TokenReserve <= 0 || pool.BaseReserve <= 0 {
		return SwapResult{}, fmt.Errorf("%w: pool %s has an empty reserve", ErrInvalidInput, pool.ID)
	}

	var reserveIn, reserveOut float64
	switch direction {
	case model.TokenToBase:
		reserveIn, reserveOut = pool.TokenReserve, pool.BaseReserve
	case model.BaseToToken:
		reserveIn, reserveOut = pool.BaseReserve, pool.TokenReserve
	default:
		return SwapResult{}, fmt.Errorf("%w: unknown swap direction %q", ErrInvalidInput, direction)
	}

	if amountIn == 0 {
		price := Price(pool)
		return SwapResult{
			Direction:       direction,
			NewTokenReserve: pool.TokenReserve,
			NewBaseReserve:  pool.BaseReserve,
			PriceBefore:     price,
			PriceAfter:      price,
		}, nil
	}

	effectiveIn := amountIn * (1 - e.feeRate)
	output := reserveOut - (reserveIn*reserveOut)/(reserveIn+effectiveIn)
	if output < 0 {
		output = 0
	}
	if output >= reserveOut {
		output = math.Nextafter(reserveOut, 0)
	}

	res := SwapResult{
		Direction:    direction,
		AmountIn:     amountIn,
		OutputAmount: output,
		Fee:          amountIn - effectiveIn,
		PriceBefore:  Price(pool),
	}

	switch direction {
	case model.TokenToBase:
		res.NewTokenReserve = pool.TokenReserve + amountIn
		res.NewBaseReserve = pool.BaseReserve - output
		res.ExecutionPrice = output / amountIn
	case model.BaseToToken:
		res.NewBaseReserve = pool.BaseReserve + amountIn
		res.NewTokenReserve = pool.TokenReserve - output
		if output > 0 {
			res.ExecutionPrice = amountIn / output
		}
	}

	res.PriceAfter = model.Reserves{Token: res.NewTokenReserve, Base: res.NewBaseReserve}.Price()
	res.PriceImpactPercent = percentChange(res.PriceBefore, res.PriceAfter)
	res.Slippage = math.Abs(res.PriceImpactPercent)
	return res, nil
}

// ApplySwap returns a copy of pool with the reserves from res.
func ApplySwap(pool model.Pool, res SwapResult) model.Pool {
	out := pool.Clone()
	out.TokenReserve = res.NewTokenReserve
	out.BaseReserve = res.NewBaseReserve
	return out
}

func checkTradable(pool model.Pool) error {
	if pool.IsRugged {
		return fmt.Errorf("%w: %s", ErrAlreadyRugged, pool.ID)
	}
	if !pool.IsActive {
		return fmt.Errorf("%w: %s", ErrPoolInactive, pool.ID)
	}
	return nil
}
