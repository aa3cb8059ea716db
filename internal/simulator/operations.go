package simulator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"rugpullSim/internal/amm"
	"rugpullSim/internal/model"
)

const (
	// DefaultTotalSupply is used when a mint request leaves the supply empty.
	DefaultTotalSupply = 1_000_000
	// MaxSymbolLength bounds token symbols.
	MaxSymbolLength = 10
)

// MintRequest describes a new token.
type MintRequest struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	TotalSupply float64 `json:"total_supply"`
	Decimals    uint8   `json:"decimals"`
}

type TokenOutcome struct {
	Token       model.Token       `json:"token"`
	Transaction model.Transaction `json:"transaction"`
}

type PoolOutcome struct {
	Pool        model.Pool        `json:"pool"`
	Transaction model.Transaction `json:"transaction"`
}

type SwapOutcome struct {
	Pool        model.Pool        `json:"pool"`
	Swap        amm.SwapResult    `json:"swap"`
	Transaction model.Transaction `json:"transaction"`
}

type LiquidityOutcome struct {
	Liquidity   amm.LiquidityResult `json:"liquidity"`
	Transaction model.Transaction   `json:"transaction"`
}

type RugPullOutcome struct {
	RugPull     amm.RugPullResult `json:"rug_pull"`
	Transaction model.Transaction `json:"transaction"`
}

// MintToken registers a token. The symbol is upper-cased.
func (s *Session) MintToken(ctx context.Context, req MintRequest) (TokenOutcome, error) {
	token, err := s.newToken(req)
	if err != nil {
		s.metrics.RecordFailure("mint_token", failureReason(err))
		return TokenOutcome{}, err
	}

	p := &PendingCommit{Operation: "mint_token", Token: &token}
	p.Transactions = []model.Transaction{s.mintRecord(token)}

	lock := s.poolLock(p.lockKey())
	lock.Lock()
	defer lock.Unlock()
	if err := s.commitLocked(ctx, p); err != nil {
		s.metrics.RecordFailure("mint_token", failureReason(err))
		return TokenOutcome{}, err
	}

	s.logger.Info("token minted",
		zap.String("token", token.ID),
		zap.String("symbol", token.Symbol),
		zap.Float64("supply", token.TotalSupply),
	)
	return TokenOutcome{Token: token, Transaction: p.lastApplied()}, nil
}

func (s *Session) newToken(req MintRequest) (model.Token, error) {
	name := strings.TrimSpace(req.Name)
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if name == "" {
		return model.Token{}, fmt.Errorf("%w: token name is required", amm.ErrInvalidInput)
	}
	if symbol == "" || len(symbol) > MaxSymbolLength {
		return model.Token{}, fmt.Errorf("%w: token symbol must be 1-%d characters", amm.ErrInvalidInput, MaxSymbolLength)
	}
	supply := req.TotalSupply
	if supply == 0 {
		supply = DefaultTotalSupply
	}
	if math.IsNaN(supply) || math.IsInf(supply, 0) || supply < 0 {
		return model.Token{}, fmt.Errorf("%w: total supply must be positive", amm.ErrInvalidInput)
	}

	return model.Token{
		ID:            s.newID(),
		Name:          name,
		Symbol:        symbol,
		TotalSupply:   supply,
		Decimals:      req.Decimals,
		CreatedAt:     s.now(),
		SchemaVersion: model.SchemaVersion,
	}, nil
}

// CreatePool opens a pool for an existing token.
func (s *Session) CreatePool(ctx context.Context, tokenID string, tokenReserve, baseReserve float64) (PoolOutcome, error) {
	if _, err := s.Token(tokenID); err != nil {
		s.metrics.RecordFailure("create_pool", failureReason(err))
		return PoolOutcome{}, err
	}
	pool, err := s.engine.CreatePool(tokenID, tokenReserve, baseReserve)
	if err != nil {
		s.metrics.RecordFailure("create_pool", failureReason(err))
		return PoolOutcome{}, err
	}

	p := &PendingCommit{Operation: "create_pool", Pool: &pool}
	p.Transactions = []model.Transaction{s.createPoolRecord(pool)}

	lock := s.poolLock(pool.ID)
	lock.Lock()
	defer lock.Unlock()
	if err := s.commitLocked(ctx, p); err != nil {
		s.metrics.RecordFailure("create_pool", failureReason(err))
		return PoolOutcome{}, err
	}

	s.logger.Info("pool created",
		zap.String("pool", pool.ID),
		zap.String("token", tokenID),
		zap.Float64("token_reserve", pool.TokenReserve),
		zap.Float64("base_reserve", pool.BaseReserve),
		zap.Float64("price", amm.Price(pool)),
	)
	return PoolOutcome{Pool: pool.Clone(), Transaction: p.lastApplied()}, nil
}

// Quote prices a swap without changing anything. An amount of 0 yields a zero result.
func (s *Session) Quote(poolID string, amountIn float64, direction model.Direction) (amm.SwapResult, error) {
	pool, err := s.Pool(poolID)
	if err != nil {
		return amm.SwapResult{}, err
	}
	return s.engine.ComputeSwap(pool, amountIn, direction)
}

// Swap trades amountIn against the pool. Unlike Quote it needs a positive amount.
func (s *Session) Swap(ctx context.Context, poolID string, amountIn float64, direction model.Direction) (SwapOutcome, error) {
	if !(amountIn > 0) {
		err := fmt.Errorf("%w: swap amount must be positive", amm.ErrInvalidInput)
		s.metrics.RecordFailure("swap", failureReason(err))
		return SwapOutcome{}, err
	}

	var out SwapOutcome
	err := s.withPool(ctx, "swap", poolID, func(pool model.Pool) (*PendingCommit, error) {
		res, err := s.engine.ComputeSwap(pool, amountIn, direction)
		if err != nil {
			return nil, err
		}
		next := amm.ApplySwap(pool, res)
		next.UpdatedAt = s.now()

		out.Pool = next
		out.Swap = res
		return &PendingCommit{
			Operation:    "swap",
			Pool:         &next,
			Transactions: []model.Transaction{s.swapRecord(next, res)},
		}, nil
	}, func(p *PendingCommit) {
		out.Transaction = p.lastApplied()
		s.metrics.RecordSwap(out.Swap.AmountIn, out.Swap.PriceImpactPercent)
		s.logger.Info("swap executed",
			zap.String("pool", poolID),
			zap.String("direction", string(direction)),
			zap.Float64("amount_in", out.Swap.AmountIn),
			zap.Float64("amount_out", out.Swap.OutputAmount),
			zap.Float64("price_impact", out.Swap.PriceImpactPercent),
		)
	})
	if err != nil {
		return SwapOutcome{}, err
	}
	return out, nil
}

// AddLiquidity deposits both assets into the pool.
func (s *Session) AddLiquidity(ctx context.Context, poolID string, tokenAmount, baseAmount float64) (LiquidityOutcome, error) {
	return s.changeLiquidity(ctx, "add_liquidity", poolID, func(pool model.Pool) (amm.LiquidityResult, error) {
		return s.engine.AddLiquidity(pool, tokenAmount, baseAmount)
	})
}

// RemoveLiquidity withdraws fraction of both reserves.
func (s *Session) RemoveLiquidity(ctx context.Context, poolID string, fraction float64) (LiquidityOutcome, error) {
	return s.changeLiquidity(ctx, "remove_liquidity", poolID, func(pool model.Pool) (amm.LiquidityResult, error) {
		return s.engine.RemoveLiquidity(pool, fraction)
	})
}

func (s *Session) changeLiquidity(ctx context.Context, op, poolID string, compute func(model.Pool) (amm.LiquidityResult, error)) (LiquidityOutcome, error) {
	txType := model.TxAddLiquidity
	if op == "remove_liquidity" {
		txType = model.TxRemoveLiquidity
	}

	var out LiquidityOutcome
	err := s.withPool(ctx, op, poolID, func(pool model.Pool) (*PendingCommit, error) {
		res, err := compute(pool)
		if err != nil {
			return nil, err
		}
		res.Pool.UpdatedAt = s.now()
		out.Liquidity = res
		next := res.Pool.Clone()
		return &PendingCommit{
			Operation:    op,
			Pool:         &next,
			Transactions: []model.Transaction{s.liquidityRecord(txType, res)},
		}, nil
	}, func(p *PendingCommit) {
		out.Transaction = p.lastApplied()
		s.logger.Info("liquidity changed",
			zap.String("op", op),
			zap.String("pool", poolID),
			zap.Float64("token_amount", out.Liquidity.TokenAmount),
			zap.Float64("base_amount", out.Liquidity.BaseAmount),
			zap.Float64("total_liquidity", out.Liquidity.Pool.TotalLiquidity),
		)
	})
	if err != nil {
		return LiquidityOutcome{}, err
	}
	return out, nil
}

// RugPull drains the pool and marks it rugged for good.
func (s *Session) RugPull(ctx context.Context, poolID string) (RugPullOutcome, error) {
	var out RugPullOutcome
	err := s.withPool(ctx, "rug_pull", poolID, func(pool model.Pool) (*PendingCommit, error) {
		res, err := s.engine.RugPull(pool)
		if err != nil {
			return nil, err
		}
		out.RugPull = res
		next := res.Pool.Clone()
		return &PendingCommit{
			Operation:    "rug_pull",
			Pool:         &next,
			Transactions: []model.Transaction{s.rugPullRecord(res)},
		}, nil
	}, func(p *PendingCommit) {
		out.Transaction = p.lastApplied()
		s.metrics.RecordRugPull(out.RugPull.StolenAmount)
		s.logger.Warn("rug pull executed",
			zap.String("pool", poolID),
			zap.Stringer("result", out.RugPull),
			zap.Float64("old_price", out.RugPull.OldPrice),
			zap.Float64("new_price", out.RugPull.NewPrice),
		)
	})
	if err != nil {
		return RugPullOutcome{}, err
	}
	return out, nil
}

// withPool runs compute against a snapshot of the pool and commits the result
// while holding the pool's write lock. done runs only after a successful commit.
func (s *Session) withPool(ctx context.Context, op, poolID string, compute func(model.Pool) (*PendingCommit, error), done func(*PendingCommit)) error {
	if _, err := s.Pool(poolID); err != nil {
		s.metrics.RecordFailure(op, failureReason(err))
		return err
	}

	lock := s.poolLock(poolID)
	lock.Lock()
	defer lock.Unlock()

	pool, err := s.Pool(poolID)
	if err != nil {
		s.metrics.RecordFailure(op, failureReason(err))
		return err
	}
	p, err := compute(pool)
	if err != nil {
		s.metrics.RecordFailure(op, failureReason(err))
		s.logger.Debug("operation rejected", zap.String("op", op), zap.String("pool", poolID), zap.Error(err))
		return err
	}
	p.basis = &pool

	if err := s.commitLocked(ctx, p); err != nil {
		s.metrics.RecordFailure(op, failureReason(err))
		return err
	}
	done(p)
	return nil
}
