package analytics

import (
	"time"

	"rugpullSim/internal/model"
)

// PricePoint is the pool state right after one transaction.
type PricePoint struct {
	Timestamp time.Time    `json:"timestamp"`
	Type      model.TxType `json:"type"`
	Price     float64      `json:"price"`
	Liquidity float64      `json:"liquidity"`
}

// VolumeBucket sums transaction volume over one window.
type VolumeBucket struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Volume      float64   `json:"volume"`
	Count       int       `json:"count"`
}

// PoolInsight describes how a pool evolved over its recorded history.
type PoolInsight struct {
	PoolID                 string         `json:"pool_id"`
	Rugged                 bool           `json:"rugged"`
	Points                 []PricePoint   `json:"points"`
	Buckets                []VolumeBucket `json:"buckets"`
	InitialPrice           float64        `json:"initial_price"`
	LatestPrice            float64        `json:"latest_price"`
	PriceChangePercent     float64        `json:"price_change_percent"`
	LiquidityChangePercent float64        `json:"liquidity_change_percent"`
	TotalSwaps             int            `json:"total_swaps"`
}

// PoolInsights replays the transactions of pool in chronological order.
// transactions are listed most recent first, as the ledger returns them.
// Liquidity is tracked as the base reserve. A window of 0 disables volume buckets.
func PoolInsights(transactions []model.Transaction, pool model.Pool, window time.Duration) PoolInsight {
	insight := PoolInsight{
		PoolID:  pool.ID,
		Rugged:  pool.IsRugged,
		Points:  []PricePoint{},
		Buckets: []VolumeBucket{},
	}

	history := make([]model.Transaction, 0)
	for _, tx := range transactions {
		if tx.PoolID == pool.ID {
			history = append(history, tx)
		}
	}
	if len(history) == 0 {
		return insight
	}
	history = model.Chronological(history)

	var bucket *VolumeBucket
	for _, tx := range history {
		insight.Points = append(insight.Points, PricePoint{
			Timestamp: tx.Timestamp,
			Type:      tx.Type,
			Price:     tx.ReservesAfter.Price(),
			Liquidity: tx.ReservesAfter.Base,
		})
		if tx.Type == model.TxSwap {
			insight.TotalSwaps++
		}

		if window <= 0 {
			continue
		}
		start := windowStart(tx.Timestamp, window)
		if bucket == nil || !bucket.WindowStart.Equal(start) {
			insight.Buckets = append(insight.Buckets, VolumeBucket{WindowStart: start, WindowEnd: start.Add(window)})
			bucket = &insight.Buckets[len(insight.Buckets)-1]
		}
		bucket.Volume += tx.AmountIn
		bucket.Count++
	}

	for _, p := range insight.Points {
		if p.Price > 0 {
			insight.InitialPrice = p.Price
			break
		}
	}
	first := insight.Points[0]
	latest := insight.Points[len(insight.Points)-1]
	insight.LatestPrice = latest.Price
	if insight.InitialPrice > 0 {
		insight.PriceChangePercent = (latest.Price - insight.InitialPrice) / insight.InitialPrice * 100
	}
	if first.Liquidity > 0 {
		insight.LiquidityChangePercent = (latest.Liquidity - first.Liquidity) / first.Liquidity * 100
	}
	return insight
}
