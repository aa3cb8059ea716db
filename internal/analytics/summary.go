package analytics

import (
	"sort"
	"time"

	"rugpullSim/internal/model"
)

// Summary is the read-side view of the simulation over a timeframe.
type Summary struct {
	Timeframe         Timeframe            `json:"timeframe"`
	Since             *time.Time           `json:"since,omitempty"`
	TotalTransactions int                  `json:"total_transactions"`
	TotalVolume       float64              `json:"total_volume"`
	CountsByType      map[model.TxType]int `json:"counts_by_type"`
	RugPullCount      int                  `json:"rug_pull_count"`
	TotalDrained      float64              `json:"total_drained"`
	AverageSlippage   float64              `json:"average_slippage"`
	Tokens            []TokenActivity      `json:"tokens"`
}

// Summarize aggregates transactions that fall inside timeframe relative to now.
// Pools and tokens supply per-token metadata and rugged status. It never fails:
// empty inputs yield a zeroed summary.
func Summarize(transactions []model.Transaction, pools []model.Pool, tokens []model.Token, timeframe Timeframe, now time.Time) Summary {
	if timeframe == "" {
		timeframe = AllTime
	}
	summary := Summary{
		Timeframe:    timeframe,
		CountsByType: make(map[model.TxType]int, len(model.TxTypes)),
		Tokens:       []TokenActivity{},
	}
	for _, t := range model.TxTypes {
		summary.CountsByType[t] = 0
	}

	since := timeframe.Since(now)
	if !since.IsZero() {
		summary.Since = &since
	}

	accs := make(map[string]*tokenAccumulator, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, ok := accs[token.ID]; ok {
			continue
		}
		accs[token.ID] = newTokenAccumulator(token)
		order = append(order, token.ID)
	}

	poolToken := make(map[string]string, len(pools))
	for _, pool := range pools {
		poolToken[pool.ID] = pool.TokenID
		acc, ok := accs[pool.TokenID]
		if !ok {
			acc = newTokenAccumulator(model.Token{ID: pool.TokenID})
			accs[pool.TokenID] = acc
			order = append(order, pool.TokenID)
		}
		acc.addPool(pool)
	}

	var slippage slippageMean
	for _, tx := range transactions {
		if !since.IsZero() && tx.Timestamp.Before(since) {
			continue
		}

		summary.TotalTransactions++
		summary.TotalVolume += tx.AmountIn
		summary.CountsByType[tx.Type]++

		switch tx.Type {
		case model.TxSwap:
			slippage.add(tx)
		case model.TxRugPull:
			summary.RugPullCount++
			summary.TotalDrained += tx.AmountIn
		}

		tokenID := tx.TokenID
		if tokenID == "" {
			tokenID = poolToken[tx.PoolID]
		}
		if acc, ok := accs[tokenID]; ok {
			acc.addTransaction(tx)
		}
	}
	summary.AverageSlippage = slippage.value()

	for _, id := range order {
		summary.Tokens = append(summary.Tokens, accs[id].activity)
	}
	sort.SliceStable(summary.Tokens, func(i, j int) bool {
		return summary.Tokens[i].Volume > summary.Tokens[j].Volume
	})

	return summary
}
