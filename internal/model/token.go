package model

import "time"

// Token captures descriptive token metadata. It takes no part in pricing.
type Token struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Symbol        string    `json:"symbol"`
	TotalSupply   float64   `json:"total_supply"`
	Decimals      uint8     `json:"decimals"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion int       `json:"schema_version"`
}
