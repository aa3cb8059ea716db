package simulator

import (
	"time"

	"rugpullSim/internal/analytics"
	"rugpullSim/internal/ledger"
)

// Analytics summarizes the ledger over timeframe.
func (s *Session) Analytics(timeframe analytics.Timeframe) analytics.Summary {
	txs := s.ledger.Collect(ledger.Filter{})
	return analytics.Summarize(txs, s.Pools(), s.Tokens(), timeframe, s.now())
}

// Insights replays the recorded history of one pool.
func (s *Session) Insights(poolID string, window time.Duration) (analytics.PoolInsight, error) {
	pool, err := s.Pool(poolID)
	if err != nil {
		return analytics.PoolInsight{}, err
	}
	txs := s.ledger.Collect(ledger.Filter{PoolID: poolID})
	return analytics.PoolInsights(txs, pool, window), nil
}

// Dashboard returns the headline counters and the most recent transactions.
func (s *Session) Dashboard() analytics.DashboardStats {
	return analytics.Dashboard(s.Tokens(), s.Pools(), s.ledger.Collect(ledger.Filter{}))
}
