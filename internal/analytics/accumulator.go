package analytics

import (
	"math"

	"rugpullSim/internal/model"
)

// TokenActivity aggregates activity across all pools of one token.
type TokenActivity struct {
	TokenID          string  `json:"token_id"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Volume           float64 `json:"volume"`
	TransactionCount int     `json:"transaction_count"`
	SwapCount        int     `json:"swap_count"`
	PoolCount        int     `json:"pool_count"`
	Rugged           bool    `json:"rugged"`
}

type tokenAccumulator struct {
	activity TokenActivity
}

func newTokenAccumulator(token model.Token) *tokenAccumulator {
	return &tokenAccumulator{activity: TokenActivity{
		TokenID: token.ID,
		Symbol:  token.Symbol,
		Name:    token.Name,
	}}
}

func (a *tokenAccumulator) addPool(pool model.Pool) {
	a.activity.PoolCount++
	if pool.IsRugged {
		a.activity.Rugged = true
	}
}

func (a *tokenAccumulator) addTransaction(tx model.Transaction) {
	a.activity.TransactionCount++
	a.activity.Volume += tx.AmountIn
	if tx.Type == model.TxSwap {
		a.activity.SwapCount++
	}
}

type slippageMean struct {
	sum   float64
	count int
}

func (m *slippageMean) add(tx model.Transaction) {
	slip := tx.Slippage
	if slip == 0 {
		slip = math.Abs(tx.PriceImpact)
	}
	m.sum += slip
	m.count++
}

func (m slippageMean) value() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}
