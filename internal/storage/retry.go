package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"rugpullSim/internal/model"
)

// RetryConfig bounds the retry decorator.
type RetryConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

// Retrying wraps a Storage and retries failed calls with exponential backoff.
// Validation errors and cancellation are returned immediately.
type Retrying struct {
	next   Storage
	cfg    RetryConfig
	logger *zap.Logger
}

// WithRetry decorates next. A MaxRetries of 0 returns next unchanged.
func WithRetry(next Storage, cfg RetryConfig, logger *zap.Logger) Storage {
	if cfg.MaxRetries <= 0 {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{next: next, cfg: cfg, logger: logger}
}

func (r *Retrying) LoadPools(ctx context.Context) ([]model.Pool, error) {
	var pools []model.Pool
	err := r.do(ctx, "load pools", func(ctx context.Context) error {
		var err error
		pools, err = r.next.LoadPools(ctx)
		return err
	})
	return pools, err
}

func (r *Retrying) LoadTokens(ctx context.Context) ([]model.Token, error) {
	var tokens []model.Token
	err := r.do(ctx, "load tokens", func(ctx context.Context) error {
		var err error
		tokens, err = r.next.LoadTokens(ctx)
		return err
	})
	return tokens, err
}

func (r *Retrying) LoadTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.do(ctx, "load transactions", func(ctx context.Context) error {
		var err error
		txs, err = r.next.LoadTransactions(ctx, limit)
		return err
	})
	return txs, err
}

func (r *Retrying) SavePool(ctx context.Context, pool model.Pool) error {
	return r.do(ctx, "save pool", func(ctx context.Context) error {
		return r.next.SavePool(ctx, pool)
	})
}

func (r *Retrying) SaveToken(ctx context.Context, token model.Token) error {
	return r.do(ctx, "save token", func(ctx context.Context) error {
		return r.next.SaveToken(ctx, token)
	})
}

func (r *Retrying) AppendTransaction(ctx context.Context, tx model.Transaction) error {
	return r.do(ctx, "append transaction", func(ctx context.Context) error {
		return r.next.AppendTransaction(ctx, tx)
	})
}

func (r *Retrying) Close() error {
	return r.next.Close()
}

func (r *Retrying) do(ctx context.Context, op string, fn func(context.Context) error) error {
	return withRetry(ctx, r.cfg.MaxRetries, r.cfg.Backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && retryable(err) {
			r.logger.Warn("storage call failed", zap.String("op", op), zap.Error(err))
		}
		return err
	})
}

func retryable(err error) bool {
	return !errors.Is(err, ErrInvalidInput) &&
		!errors.Is(err, ErrClosed) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries || !retryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}

var _ Storage = (*Retrying)(nil)
