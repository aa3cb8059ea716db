package ledger

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"rugpullSim/internal/model"
)

// DefaultCapacity is the number of most recent transactions kept.
const DefaultCapacity = 1000

// Options configures a Ledger.
type Options struct {
	Capacity int
	Now      func() time.Time
	NewID    func() string
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	PoolID string
	Type   model.TxType
	Limit  int
}

// Ledger is an append-only, most-recent-first transaction log with a
// retention cap. Stored records are never modified.
type Ledger struct {
	mu       sync.RWMutex
	entries  []model.Transaction // oldest first; the head is the last element
	capacity int
	now      func() time.Time
	newID    func() string
}

// New builds an empty ledger.
func New(opts Options) *Ledger {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Ledger{
		entries:  make([]model.Transaction, 0, 64),
		capacity: opts.Capacity,
		now:      opts.Now,
		newID:    opts.NewID,
	}
}

// Prepare fills the ID and timestamp of tx the way Append would, without
// storing it. The timestamp never goes backwards relative to the head.
func (l *Ledger) Prepare(tx model.Transaction) model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.prepareLocked(tx)
}

func (l *Ledger) prepareLocked(tx model.Transaction) model.Transaction {
	if tx.ID == "" {
		tx.ID = l.newID()
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = l.now()
	}
	if n := len(l.entries); n > 0 {
		if head := l.entries[n-1].Timestamp; tx.Timestamp.Before(head) {
			tx.Timestamp = head
		}
	}
	if tx.SchemaVersion == 0 {
		tx.SchemaVersion = model.SchemaVersion
	}
	return tx
}

// Append stores tx at the head and returns the stored copy. Appending a
// transaction whose ID is already present is a no-op returning the stored record.
func (l *Ledger) Append(tx model.Transaction) model.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx.ID != "" {
		for i := len(l.entries) - 1; i >= 0; i-- {
			if l.entries[i].ID == tx.ID {
				return l.entries[i]
			}
		}
	}

	tx = l.prepareLocked(tx)
	l.entries = append(l.entries, tx)
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	return tx
}

// Load replaces the ledger contents with txs, listed most recent first the
// way storage returns them. Only the newest Capacity records are kept.
func (l *Ledger) Load(txs []model.Transaction) {
	sorted := model.Chronological(txs)
	if over := len(sorted) - l.capacity; over > 0 {
		sorted = sorted[over:]
	}

	l.mu.Lock()
	l.entries = sorted
	l.mu.Unlock()
}

// List returns a lazy most-recent-first sequence. Each iteration reads the
// ledger as it is when the iteration starts.
func (l *Ledger) List(filter Filter) iter.Seq[model.Transaction] {
	return func(yield func(model.Transaction) bool) {
		l.mu.RLock()
		snapshot := l.entries
		l.mu.RUnlock()

		emitted := 0
		for i := len(snapshot) - 1; i >= 0; i-- {
			tx := snapshot[i]
			if filter.PoolID != "" && tx.PoolID != filter.PoolID {
				continue
			}
			if filter.Type != "" && tx.Type != filter.Type {
				continue
			}
			if !yield(tx) {
				return
			}
			emitted++
			if filter.Limit > 0 && emitted >= filter.Limit {
				return
			}
		}
	}
}

// Collect materializes a listing.
func (l *Ledger) Collect(filter Filter) []model.Transaction {
	out := make([]model.Transaction, 0)
	for tx := range l.List(filter) {
		out = append(out, tx)
	}
	return out
}

// Latest returns the most recent transaction of a pool.
func (l *Ledger) Latest(poolID string) (model.Transaction, bool) {
	for tx := range l.List(Filter{PoolID: poolID, Limit: 1}) {
		return tx, true
	}
	return model.Transaction{}, false
}

// Len returns the number of retained transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Capacity returns the retention cap.
func (l *Ledger) Capacity() int {
	return l.capacity
}
