package model

import (
	"fmt"
	"sort"
	"time"
)

// TxType identifies the operation a transaction records.
type TxType string

const (
	TxSwap            TxType = "swap"
	TxAddLiquidity    TxType = "add_liquidity"
	TxRemoveLiquidity TxType = "remove_liquidity"
	TxRugPull         TxType = "rug_pull"
	TxCreatePool      TxType = "create_pool"
	TxMintToken       TxType = "mint_token"
)

// TxTypes lists every transaction type in display order.
var TxTypes = []TxType{TxSwap, TxAddLiquidity, TxRemoveLiquidity, TxRugPull, TxCreatePool, TxMintToken}

// ParseTxType validates a transaction type string.
func ParseTxType(s string) (TxType, error) {
	for _, t := range TxTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transaction type: %s", s)
}

// Direction is the side a swap sells into the pool.
type Direction string

const (
	TokenToBase Direction = "token_to_base"
	BaseToToken Direction = "base_to_token"
)

// ParseDirection validates a swap direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case TokenToBase, BaseToToken:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown swap direction: %s", s)
	}
}

// Transaction is an immutable record of one operation.
//
// TokenAmount and BaseAmount are signed changes to the pool reserves: a token
// sale records a positive TokenAmount and a negative BaseAmount.
type Transaction struct {
	ID            string    `json:"id"`
	PoolID        string    `json:"pool_id,omitempty"`
	TokenID       string    `json:"token_id,omitempty"`
	Type          TxType    `json:"type"`
	Direction     Direction `json:"direction,omitempty"`
	AmountIn      float64   `json:"amount_in"`
	AmountOut     float64   `json:"amount_out"`
	TokenAmount   float64   `json:"token_amount"`
	BaseAmount    float64   `json:"base_amount"`
	PriceImpact   float64   `json:"price_impact"`
	Slippage      float64   `json:"slippage"`
	ReservesAfter Reserves  `json:"reserves_after"`
	Timestamp     time.Time `json:"timestamp"`
	SchemaVersion int       `json:"schema_version"`
}

// Chronological returns a copy of a most-recent-first listing ordered oldest
// first. Records sharing a timestamp keep their causal order.
func Chronological(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[len(txs)-1-i] = tx
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
