package analytics

import "rugpullSim/internal/model"

// RecentLimit is the number of transactions shown on the dashboard.
const RecentLimit = 5

// DashboardStats are the headline counters of a session.
type DashboardStats struct {
	TokensCreated     int                 `json:"tokens_created"`
	ActivePools       int                 `json:"active_pools"`
	RuggedPools       int                 `json:"rugged_pools"`
	TotalTransactions int                 `json:"total_transactions"`
	Recent            []model.Transaction `json:"recent"`
}

// Dashboard counts tokens and pools. transactions are expected most-recent-first.
func Dashboard(tokens []model.Token, pools []model.Pool, transactions []model.Transaction) DashboardStats {
	stats := DashboardStats{
		TokensCreated:     len(tokens),
		TotalTransactions: len(transactions),
		Recent:            []model.Transaction{},
	}
	for _, pool := range pools {
		switch {
		case pool.IsRugged:
			stats.RuggedPools++
		case pool.IsActive:
			stats.ActivePools++
		}
	}

	n := len(transactions)
	if n > RecentLimit {
		n = RecentLimit
	}
	stats.Recent = append(stats.Recent, transactions[:n]...)
	return stats
}
