package model

import "time"

// DefaultBaseCurrency labels the base side of a pool when none is given.
const DefaultBaseCurrency = "SOL"

// Pool is a two-asset constant-product liquidity pool.
type Pool struct {
	ID             string     `json:"id"`
	TokenID        string     `json:"token_id"`
	BaseCurrency   string     `json:"base_currency"`
	TokenReserve   float64    `json:"token_reserve"`
	BaseReserve    float64    `json:"base_reserve"`
	TotalLiquidity float64    `json:"total_liquidity"`
	IsActive       bool       `json:"is_active"`
	IsRugged       bool       `json:"is_rugged"`
	RugDate        *time.Time `json:"rug_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SchemaVersion  int        `json:"schema_version"`
}

// Reserves returns a snapshot of the pool reserves.
func (p Pool) Reserves() Reserves {
	return Reserves{Token: p.TokenReserve, Base: p.BaseReserve}
}

// Tradable reports whether swaps and liquidity changes are allowed.
func (p Pool) Tradable() bool {
	return p.IsActive && !p.IsRugged
}

// Clone returns a deep copy.
func (p Pool) Clone() Pool {
	out := p
	if p.RugDate != nil {
		ts := *p.RugDate
		out.RugDate = &ts
	}
	return out
}
