package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"rugpullSim/internal/model"
	"rugpullSim/internal/storage"
)

const (
	poolsFile        = "pools.jsonl"
	tokensFile       = "tokens.jsonl"
	transactionsFile = "transactions.jsonl"
)

// Store keeps every record as a JSON line. Pools and tokens are appended on
// every save, so the files hold the full history; loading keeps the last line
// per id.
type Store struct {
	dir    string
	logger *zap.Logger

	mu     sync.Mutex
	seenTx map[string]struct{}
	closed bool
}

// NewStore creates dir if needed and returns a store rooted there.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}, nil
}

// LoadPools returns the latest version of every pool in first-seen order.
func (s *Store) LoadPools(ctx context.Context) ([]model.Pool, error) {
	var order []string
	latest := make(map[string]model.Pool)
	err := s.scan(ctx, poolsFile, func(line []byte) error {
		var pool model.Pool
		if err := json.Unmarshal(line, &pool); err != nil {
			return err
		}
		if _, ok := latest[pool.ID]; !ok {
			order = append(order, pool.ID)
		}
		latest[pool.ID] = pool
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]model.Pool, 0, len(order))
	for _, id := range order {
		result = append(result, latest[id])
	}
	return result, nil
}

// LoadTokens returns the latest version of every token in first-seen order.
func (s *Store) LoadTokens(ctx context.Context) ([]model.Token, error) {
	var order []string
	latest := make(map[string]model.Token)
	err := s.scan(ctx, tokensFile, func(line []byte) error {
		var token model.Token
		if err := json.Unmarshal(line, &token); err != nil {
			return err
		}
		if _, ok := latest[token.ID]; !ok {
			order = append(order, token.ID)
		}
		latest[token.ID] = token
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]model.Token, 0, len(order))
	for _, id := range order {
		result = append(result, latest[id])
	}
	return result, nil
}

// LoadTransactions returns up to limit transactions, most recent first.
func (s *Store) LoadTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	var all []model.Transaction
	seen := make(map[string]struct{})
	err := s.scan(ctx, transactionsFile, func(line []byte) error {
		var tx model.Transaction
		if err := json.Unmarshal(line, &tx); err != nil {
			return err
		}
		if _, ok := seen[tx.ID]; ok {
			return nil
		}
		seen[tx.ID] = struct{}{}
		all = append(all, tx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	n := len(all)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]model.Transaction, 0, n)
	for i := len(all) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, all[i])
	}
	return result, nil
}

// SavePool appends the current version of pool.
func (s *Store) SavePool(ctx context.Context, pool model.Pool) error {
	if pool.ID == "" {
		return storage.ErrInvalidInput
	}
	return s.appendLine(ctx, poolsFile, pool)
}

// SaveToken appends the current version of token.
func (s *Store) SaveToken(ctx context.Context, token model.Token) error {
	if token.ID == "" {
		return storage.ErrInvalidInput
	}
	return s.appendLine(ctx, tokensFile, token)
}

// AppendTransaction appends tx unless its ID was already written.
func (s *Store) AppendTransaction(ctx context.Context, tx model.Transaction) error {
	if tx.ID == "" {
		return storage.ErrInvalidInput
	}
	if err := s.loadSeen(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	_, dup := s.seenTx[tx.ID]
	s.mu.Unlock()
	if dup {
		s.logger.Debug("skip duplicate transaction", zap.String("tx", tx.ID))
		return nil
	}

	if err := s.appendLine(ctx, transactionsFile, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.seenTx[tx.ID] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Close marks the store closed. Files are opened per call, so nothing else is held.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Store) loadSeen(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.seenTx != nil
	s.mu.Unlock()
	if loaded {
		return nil
	}

	seen := make(map[string]struct{})
	err := s.scan(ctx, transactionsFile, func(line []byte) error {
		var ref struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(line, &ref); err != nil {
			return err
		}
		seen[ref.ID] = struct{}{}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.seenTx == nil {
		s.seenTx = seen
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) appendLine(ctx context.Context, name string, record any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}

	file, err := os.OpenFile(s.path(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	return nil
}

func (s *Store) scan(ctx context.Context, name string, fn func(line []byte) error) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return storage.ErrClosed
	}

	file, err := os.Open(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			s.logger.Warn("skip malformed line", zap.String("file", name), zap.Int("line", lineNo), zap.Error(err))
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", name, err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

var _ storage.Storage = (*Store)(nil)
