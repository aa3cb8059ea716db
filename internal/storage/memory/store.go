package memory

import (
	"context"
	"sort"
	"sync"

	"rugpullSim/internal/model"
	"rugpullSim/internal/storage"
)

// Store is an in-memory implementation of storage.Storage.
type Store struct {
	mu      sync.RWMutex
	pools   map[string]model.Pool
	tokens  map[string]model.Token
	txs     []model.Transaction
	txIndex map[string]struct{}
	closed  bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		pools:   make(map[string]model.Pool),
		tokens:  make(map[string]model.Token),
		txIndex: make(map[string]struct{}),
	}
}

// LoadPools returns every pool ordered by creation time.
func (s *Store) LoadPools(_ context.Context) ([]model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	result := make([]model.Pool, 0, len(s.pools))
	for _, pool := range s.pools {
		result = append(result, pool.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// LoadTokens returns every token ordered by creation time.
func (s *Store) LoadTokens(_ context.Context) ([]model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	result := make([]model.Token, 0, len(s.tokens))
	for _, token := range s.tokens {
		result = append(result, token)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// LoadTransactions returns up to limit transactions, most recent first.
func (s *Store) LoadTransactions(_ context.Context, limit int) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}

	n := len(s.txs)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]model.Transaction, 0, n)
	for i := len(s.txs) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.txs[i])
	}
	return result, nil
}

// SavePool inserts or replaces a pool.
func (s *Store) SavePool(_ context.Context, pool model.Pool) error {
	if pool.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.pools[pool.ID] = pool.Clone()
	return nil
}

// SaveToken inserts or replaces a token.
func (s *Store) SaveToken(_ context.Context, token model.Token) error {
	if token.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.tokens[token.ID] = token
	return nil
}

// AppendTransaction appends tx. Re-appending a known ID is a no-op.
func (s *Store) AppendTransaction(_ context.Context, tx model.Transaction) error {
	if tx.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	if _, exists := s.txIndex[tx.ID]; exists {
		return nil
	}
	s.txIndex[tx.ID] = struct{}{}
	s.txs = append(s.txs, tx)
	return nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

var _ storage.Storage = (*Store)(nil)
