package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rugpullSim/internal/model"
	"rugpullSim/internal/storage"
	"rugpullSim/internal/storage/postgres/migrations"
)

// PostgreSQL error codes
const (
	pgErrUniqueViolation = "23505"
)

// Store provides Postgres persistence for pools, tokens and transactions.
type Store struct {
	pool   *pgxpool.Pool
	closed atomic.Bool
}

// NewStore connects to dsn and verifies the connection.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the embedded schema files in name order. Every statement is
// idempotent so running it on an existing database is safe.
func (s *Store) Migrate(ctx context.Context) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// LoadPools returns all pools ordered by creation time.
func (s *Store) LoadPools(ctx context.Context) ([]model.Pool, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, token_id, base_currency, token_reserve, base_reserve, total_liquidity,
			is_active, is_rugged, rug_date, created_at, updated_at, schema_version
		FROM pools
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query pools: %w", err)
	}
	defer rows.Close()

	var pools []model.Pool
	for rows.Next() {
		var p model.Pool
		if err := rows.Scan(
			&p.ID, &p.TokenID, &p.BaseCurrency, &p.TokenReserve, &p.BaseReserve, &p.TotalLiquidity,
			&p.IsActive, &p.IsRugged, &p.RugDate, &p.CreatedAt, &p.UpdatedAt, &p.SchemaVersion,
		); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// LoadTokens returns all tokens ordered by creation time.
func (s *Store) LoadTokens(ctx context.Context) ([]model.Token, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, symbol, total_supply, decimals, created_at, schema_version
		FROM tokens
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.Token
	for rows.Next() {
		var t model.Token
		var decimals int16
		if err := rows.Scan(&t.ID, &t.Name, &t.Symbol, &t.TotalSupply, &decimals, &t.CreatedAt, &t.SchemaVersion); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		t.Decimals = uint8(decimals)
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// LoadTransactions returns up to limit transactions, most recent first.
func (s *Store) LoadTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	query := `
		SELECT id, pool_id, token_id, type, direction, amount_in, amount_out, token_amount, base_amount,
			price_impact, slippage, token_reserve_after, base_reserve_after, ts, schema_version
		FROM transactions
		ORDER BY ts DESC, seq DESC
	`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		var txType, direction string
		if err := rows.Scan(
			&tx.ID, &tx.PoolID, &tx.TokenID, &txType, &direction,
			&tx.AmountIn, &tx.AmountOut, &tx.TokenAmount, &tx.BaseAmount,
			&tx.PriceImpact, &tx.Slippage, &tx.ReservesAfter.Token, &tx.ReservesAfter.Base,
			&tx.Timestamp, &tx.SchemaVersion,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = model.TxType(txType)
		tx.Direction = model.Direction(direction)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SavePool inserts or updates a pool.
func (s *Store) SavePool(ctx context.Context, pool model.Pool) error {
	if pool.ID == "" {
		return storage.ErrInvalidInput
	}
	if s.closed.Load() {
		return storage.ErrClosed
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pools (
			id, token_id, base_currency, token_reserve, base_reserve, total_liquidity,
			is_active, is_rugged, rug_date, created_at, updated_at, schema_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id)
		DO UPDATE SET
			token_reserve = EXCLUDED.token_reserve,
			base_reserve = EXCLUDED.base_reserve,
			total_liquidity = EXCLUDED.total_liquidity,
			is_active = EXCLUDED.is_active,
			is_rugged = EXCLUDED.is_rugged,
			rug_date = EXCLUDED.rug_date,
			updated_at = EXCLUDED.updated_at,
			schema_version = EXCLUDED.schema_version
	`,
		pool.ID,
		pool.TokenID,
		pool.BaseCurrency,
		pool.TokenReserve,
		pool.BaseReserve,
		pool.TotalLiquidity,
		pool.IsActive,
		pool.IsRugged,
		pool.RugDate,
		pool.CreatedAt,
		pool.UpdatedAt,
		pool.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("upsert pool: %w", err)
	}
	return nil
}

// SaveToken inserts or updates a token.
func (s *Store) SaveToken(ctx context.Context, token model.Token) error {
	if token.ID == "" {
		return storage.ErrInvalidInput
	}
	if s.closed.Load() {
		return storage.ErrClosed
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (id, name, symbol, total_supply, decimals, created_at, schema_version)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			total_supply = EXCLUDED.total_supply,
			decimals = EXCLUDED.decimals,
			schema_version = EXCLUDED.schema_version
	`,
		token.ID,
		token.Name,
		token.Symbol,
		token.TotalSupply,
		int16(token.Decimals),
		token.CreatedAt,
		token.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// AppendTransaction inserts tx. A transaction that already exists is left untouched.
func (s *Store) AppendTransaction(ctx context.Context, tx model.Transaction) error {
	if tx.ID == "" {
		return storage.ErrInvalidInput
	}
	if s.closed.Load() {
		return storage.ErrClosed
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (
			id, pool_id, token_id, type, direction, amount_in, amount_out, token_amount, base_amount,
			price_impact, slippage, token_reserve_after, base_reserve_after, ts, schema_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		tx.ID,
		tx.PoolID,
		tx.TokenID,
		string(tx.Type),
		string(tx.Direction),
		tx.AmountIn,
		tx.AmountOut,
		tx.TokenAmount,
		tx.BaseAmount,
		tx.PriceImpact,
		tx.Slippage,
		tx.ReservesAfter.Token,
		tx.ReservesAfter.Base,
		tx.Timestamp,
		tx.SchemaVersion,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}
	return false
}

var _ storage.Storage = (*Store)(nil)
