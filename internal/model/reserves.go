package model

// Reserves is a snapshot of both sides of a pool.
type Reserves struct {
	Token float64 `json:"token"`
	Base  float64 `json:"base"`
}

// Price returns base units per token, or zero when either side is empty.
func (r Reserves) Price() float64 {
	if r.Token <= 0 || r.Base <= 0 {
		return 0
	}
	return r.Base / r.Token
}
