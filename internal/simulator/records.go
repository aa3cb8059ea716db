package simulator

import (
	"rugpullSim/internal/amm"
	"rugpullSim/internal/model"
)

// Transaction builders. IDs and timestamps are filled by the ledger so a
// retried commit writes the same records.

func (s *Session) mintRecord(token model.Token) model.Transaction {
	return s.ledger.Prepare(model.Transaction{
		TokenID:     token.ID,
		Type:        model.TxMintToken,
		AmountOut:   token.TotalSupply,
		TokenAmount: token.TotalSupply,
		Timestamp:   token.CreatedAt,
	})
}

func (s *Session) createPoolRecord(pool model.Pool) model.Transaction {
	return s.ledger.Prepare(model.Transaction{
		PoolID:        pool.ID,
		TokenID:       pool.TokenID,
		Type:          model.TxCreatePool,
		AmountIn:      pool.TokenReserve,
		TokenAmount:   pool.TokenReserve,
		BaseAmount:    pool.BaseReserve,
		ReservesAfter: pool.Reserves(),
		Timestamp:     pool.CreatedAt,
	})
}

func (s *Session) swapRecord(pool model.Pool, res amm.SwapResult) model.Transaction {
	tx := model.Transaction{
		PoolID:        pool.ID,
		TokenID:       pool.TokenID,
		Type:          model.TxSwap,
		Direction:     res.Direction,
		AmountIn:      res.AmountIn,
		AmountOut:     res.OutputAmount,
		PriceImpact:   res.PriceImpactPercent,
		Slippage:      res.Slippage,
		ReservesAfter: model.Reserves{Token: res.NewTokenReserve, Base: res.NewBaseReserve},
		Timestamp:     pool.UpdatedAt,
	}
	if res.Direction == model.TokenToBase {
		tx.TokenAmount = res.AmountIn
		tx.BaseAmount = -res.OutputAmount
	} else {
		tx.BaseAmount = res.AmountIn
		tx.TokenAmount = -res.OutputAmount
	}
	return s.ledger.Prepare(tx)
}

func (s *Session) liquidityRecord(txType model.TxType, res amm.LiquidityResult) model.Transaction {
	tx := model.Transaction{
		PoolID:        res.Pool.ID,
		TokenID:       res.Pool.TokenID,
		Type:          txType,
		PriceImpact:   res.PriceImpact,
		ReservesAfter: res.Pool.Reserves(),
		Timestamp:     res.Pool.UpdatedAt,
	}
	if txType == model.TxAddLiquidity {
		tx.AmountIn = res.BaseAmount
		tx.TokenAmount = res.TokenAmount
		tx.BaseAmount = res.BaseAmount
	} else {
		tx.AmountOut = res.BaseAmount
		tx.TokenAmount = -res.TokenAmount
		tx.BaseAmount = -res.BaseAmount
	}
	return s.ledger.Prepare(tx)
}

func (s *Session) rugPullRecord(res amm.RugPullResult) model.Transaction {
	return s.ledger.Prepare(model.Transaction{
		PoolID:        res.Pool.ID,
		TokenID:       res.Pool.TokenID,
		Type:          model.TxRugPull,
		AmountIn:      res.StolenAmount,
		AmountOut:     res.StolenAmount,
		TokenAmount:   -res.DrainedToken,
		BaseAmount:    -res.DrainedBase,
		PriceImpact:   -res.PriceDropPercent,
		ReservesAfter: res.Pool.Reserves(),
		Timestamp:     res.Pool.UpdatedAt,
	})
}
