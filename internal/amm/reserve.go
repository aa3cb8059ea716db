package amm

import "rugpullSim/internal/model"

// Price returns the spot price of one token in base units, or 0 for an empty pool.
func Price(pool model.Pool) float64 {
	return pool.Reserves().Price()
}

// percentChange returns (to-from)/from*100, or 0 when from is not positive.
func percentChange(from, to float64) float64 {
	if from <= 0 {
		return 0
	}
	return (to - from) / from * 100
}
