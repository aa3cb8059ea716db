package simulator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rugpullSim/internal/amm"
	"rugpullSim/internal/model"
)

// PendingCommit is a computed state change that has not reached storage yet.
// It is safe to commit more than once: the second commit is a no-op.
type PendingCommit struct {
	Operation    string              `json:"operation"`
	Token        *model.Token        `json:"token,omitempty"`
	Pool         *model.Pool         `json:"pool,omitempty"`
	Transactions []model.Transaction `json:"transactions"`

	basis     *model.Pool // pool the change was computed against, nil for new pools
	applied   []model.Transaction
	committed bool
}

// Committed reports whether the change has been persisted and applied.
func (p *PendingCommit) Committed() bool {
	return p.committed
}

func (p *PendingCommit) lockKey() string {
	if p.Pool != nil {
		return p.Pool.ID
	}
	if p.Token != nil {
		return "token:" + p.Token.ID
	}
	return ""
}

// Commit retries a pending change returned inside a CommitError. It fails
// with ErrStaleCommit when the pool moved on since the change was computed.
func (s *Session) Commit(ctx context.Context, p *PendingCommit) error {
	if p == nil {
		return fmt.Errorf("%w: pending commit is nil", amm.ErrInvalidInput)
	}
	lock := s.poolLock(p.lockKey())
	lock.Lock()
	defer lock.Unlock()

	if err := s.commitLocked(ctx, p); err != nil {
		s.metrics.RecordFailure("commit", failureReason(err))
		return err
	}
	return nil
}

// commitLocked persists p and applies it to memory. The caller holds the lock for p.lockKey().
func (s *Session) commitLocked(ctx context.Context, p *PendingCommit) error {
	if p.committed {
		return nil
	}
	if err := s.checkBasis(p); err != nil {
		return err
	}

	start := time.Now()
	err := s.persist(ctx, p)
	s.metrics.ObserveCommit(time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Error("commit failed",
			zap.String("op", p.Operation),
			zap.String("key", p.lockKey()),
			zap.Error(err),
		)
		return &CommitError{Pending: p, Err: err}
	}

	s.apply(p)
	p.committed = true
	return nil
}

func (s *Session) checkBasis(p *PendingCommit) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p.Pool != nil {
		current, ok := s.pools[p.Pool.ID]
		switch {
		case p.basis == nil && ok:
			return fmt.Errorf("%w: pool %s already exists", ErrStaleCommit, p.Pool.ID)
		case p.basis != nil && !ok:
			return fmt.Errorf("%w: pool %s", ErrPoolNotFound, p.Pool.ID)
		case p.basis != nil && !samePoolState(current, *p.basis):
			return fmt.Errorf("%w: pool %s changed since the operation was computed", ErrStaleCommit, p.Pool.ID)
		}
		return nil
	}
	if p.Token != nil {
		if _, ok := s.tokens[p.Token.ID]; ok {
			return fmt.Errorf("%w: token %s already exists", ErrStaleCommit, p.Token.ID)
		}
	}
	return nil
}

func (s *Session) persist(ctx context.Context, p *PendingCommit) error {
	if p.Token != nil {
		if err := s.store.SaveToken(ctx, *p.Token); err != nil {
			return fmt.Errorf("save token: %w", err)
		}
	}
	if p.Pool != nil {
		if err := s.store.SavePool(ctx, *p.Pool); err != nil {
			return fmt.Errorf("save pool: %w", err)
		}
	}
	for _, tx := range p.Transactions {
		if err := s.store.AppendTransaction(ctx, tx); err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
	}
	return nil
}

func (s *Session) apply(p *PendingCommit) {
	s.mu.Lock()
	if p.Token != nil {
		s.tokens[p.Token.ID] = *p.Token
	}
	if p.Pool != nil {
		s.pools[p.Pool.ID] = p.Pool.Clone()
	}
	s.mu.Unlock()

	p.applied = make([]model.Transaction, 0, len(p.Transactions))
	for _, tx := range p.Transactions {
		p.applied = append(p.applied, s.ledger.Append(tx))
		s.metrics.RecordOperation(string(tx.Type))
	}
	s.refreshGauges()
}

// lastApplied is the stored copy of the last transaction of p.
func (p *PendingCommit) lastApplied() model.Transaction {
	if len(p.applied) == 0 {
		return model.Transaction{}
	}
	return p.applied[len(p.applied)-1]
}

func samePoolState(a, b model.Pool) bool {
	return a.TokenReserve == b.TokenReserve &&
		a.BaseReserve == b.BaseReserve &&
		a.TotalLiquidity == b.TotalLiquidity &&
		a.IsActive == b.IsActive &&
		a.IsRugged == b.IsRugged &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}
