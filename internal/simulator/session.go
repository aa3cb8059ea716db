package simulator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rugpullSim/internal/amm"
	"rugpullSim/internal/ledger"
	"rugpullSim/internal/model"
	"rugpullSim/internal/observability"
	"rugpullSim/internal/storage"
)

// Options wires a Session. Engine and Storage are required.
type Options struct {
	Engine  *amm.Engine
	Ledger  *ledger.Ledger
	Storage storage.Storage
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
	NewID   func() string
}

// Session owns the simulated market: pools, tokens and the transaction ledger.
// Every write is computed against a snapshot, persisted, and only then applied
// to memory, so a failed commit leaves the session untouched.
type Session struct {
	engine  *amm.Engine
	ledger  *ledger.Ledger
	store   storage.Storage
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
	newID   func() string

	mu     sync.RWMutex
	pools  map[string]model.Pool
	tokens map[string]model.Token
	locks  map[string]*sync.Mutex
}

// New builds an empty session. Call Load to restore persisted state.
func New(opts Options) (*Session, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if opts.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Ledger == nil {
		opts.Ledger = ledger.New(ledger.Options{Now: opts.Now, NewID: opts.NewID})
	}
	return &Session{
		engine:  opts.Engine,
		ledger:  opts.Ledger,
		store:   opts.Storage,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
		newID:   opts.NewID,
		pools:   make(map[string]model.Pool),
		tokens:  make(map[string]model.Token),
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// Load replaces the in-memory state with what storage holds.
func (s *Session) Load(ctx context.Context) error {
	tokens, err := s.store.LoadTokens(ctx)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}
	pools, err := s.store.LoadPools(ctx)
	if err != nil {
		return fmt.Errorf("load pools: %w", err)
	}
	txs, err := s.store.LoadTransactions(ctx, s.ledger.Capacity())
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	s.mu.Lock()
	s.tokens = make(map[string]model.Token, len(tokens))
	for _, token := range tokens {
		s.tokens[token.ID] = token
	}
	s.pools = make(map[string]model.Pool, len(pools))
	for _, pool := range pools {
		s.pools[pool.ID] = pool.Clone()
	}
	s.mu.Unlock()

	s.ledger.Load(txs)
	for _, pool := range pools {
		latest, ok := s.ledger.Latest(pool.ID)
		if ok && latest.ReservesAfter != pool.Reserves() {
			s.logger.Warn("pool reserves diverge from latest transaction",
				zap.String("pool_id", pool.ID),
				zap.String("tx_id", latest.ID),
				zap.Float64("token_reserve", pool.TokenReserve),
				zap.Float64("base_reserve", pool.BaseReserve),
			)
		}
	}
	s.refreshGauges()

	s.logger.Info("session loaded",
		zap.Int("tokens", len(tokens)),
		zap.Int("pools", len(pools)),
		zap.Int("transactions", s.ledger.Len()),
	)
	return nil
}

// Close releases the storage backend.
func (s *Session) Close() error {
	return s.store.Close()
}

// Engine exposes the pricing engine.
func (s *Session) Engine() *amm.Engine {
	return s.engine
}

// Pool returns a copy of the pool with id.
func (s *Session) Pool(id string) (model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[id]
	if !ok {
		return model.Pool{}, fmt.Errorf("%w: %s", ErrPoolNotFound, id)
	}
	return pool.Clone(), nil
}

// Pools returns copies of all pools, oldest first.
func (s *Session) Pools() []model.Pool {
	s.mu.RLock()
	out := make([]model.Pool, 0, len(s.pools))
	for _, pool := range s.pools {
		out = append(out, pool.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Token returns the token with id.
func (s *Session) Token(id string) (model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[id]
	if !ok {
		return model.Token{}, fmt.Errorf("%w: %s", ErrTokenNotFound, id)
	}
	return token, nil
}

// Tokens returns all tokens, oldest first.
func (s *Session) Tokens() []model.Token {
	s.mu.RLock()
	out := make([]model.Token, 0, len(s.tokens))
	for _, token := range s.tokens {
		out = append(out, token)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Transactions lists the ledger most-recent-first.
func (s *Session) Transactions(filter ledger.Filter) []model.Transaction {
	return s.ledger.Collect(filter)
}

// poolLock returns the mutex serializing writes to one pool.
func (s *Session) poolLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *Session) refreshGauges() {
	if s.metrics == nil {
		return
	}
	var active, rugged int
	s.mu.RLock()
	for _, pool := range s.pools {
		switch {
		case pool.IsRugged:
			rugged++
		case pool.IsActive:
			active++
		}
	}
	s.mu.RUnlock()
	s.metrics.SetPoolCounts(active, rugged)
}
