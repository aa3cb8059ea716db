package storage

import (
	"context"

	"rugpullSim/internal/model"
)

// Storage persists simulation records. Saves are idempotent: writing the same
// record twice has the same effect as writing it once.
type Storage interface {
	LoadPools(ctx context.Context) ([]model.Pool, error)
	LoadTokens(ctx context.Context) ([]model.Token, error)
	// LoadTransactions returns up to limit transactions, most recent first. A limit <= 0 means all.
	LoadTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	SavePool(ctx context.Context, pool model.Pool) error
	SaveToken(ctx context.Context, token model.Token) error
	AppendTransaction(ctx context.Context, tx model.Transaction) error
	Close() error
}
