package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rugpullSim/internal/model"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestLedger(capacity int) *Ledger {
	clock := &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	seq := 0
	return New(Options{
		Capacity: capacity,
		Now:      clock.now,
		NewID: func() string {
			seq++
			return fmt.Sprintf("tx-%d", seq)
		},
	})
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	l := newTestLedger(10)

	stored := l.Append(model.Transaction{PoolID: "p1", Type: model.TxSwap, AmountIn: 5})
	assert.Equal(t, "tx-1", stored.ID)
	assert.False(t, stored.Timestamp.IsZero())
	assert.Equal(t, model.SchemaVersion, stored.SchemaVersion)

	explicit := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	kept := l.Append(model.Transaction{ID: "mine", PoolID: "p1", Timestamp: explicit})
	assert.Equal(t, "mine", kept.ID)
	assert.Equal(t, explicit, kept.Timestamp)
}

func TestListMostRecentFirst(t *testing.T) {
	l := newTestLedger(10)
	for i := 0; i < 5; i++ {
		l.Append(model.Transaction{PoolID: "p1", Type: model.TxSwap, AmountIn: float64(i)})
	}

	got := l.Collect(Filter{})
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.After(got[i-1].Timestamp), "entry %d is newer than its predecessor", i)
	}
	assert.Equal(t, 4.0, got[0].AmountIn)
	assert.Equal(t, 0.0, got[4].AmountIn)
}

func TestAppendClampsBackdatedTimestamp(t *testing.T) {
	l := newTestLedger(10)
	head := l.Append(model.Transaction{PoolID: "p1"})

	past := head.Timestamp.Add(-time.Hour)
	stored := l.Append(model.Transaction{PoolID: "p1", Timestamp: past})
	assert.Equal(t, head.Timestamp, stored.Timestamp)
}

func TestRetentionCap(t *testing.T) {
	l := newTestLedger(3)
	for i := 0; i < 5; i++ {
		l.Append(model.Transaction{PoolID: "p1", AmountIn: float64(i)})
	}

	require.Equal(t, 3, l.Len())
	got := l.Collect(Filter{})
	assert.Equal(t, []float64{4, 3, 2}, amounts(got))
}

func TestListFilterAndLimit(t *testing.T) {
	l := newTestLedger(10)
	l.Append(model.Transaction{PoolID: "p1", Type: model.TxCreatePool, AmountIn: 1})
	l.Append(model.Transaction{PoolID: "p2", Type: model.TxCreatePool, AmountIn: 2})
	l.Append(model.Transaction{PoolID: "p1", Type: model.TxSwap, AmountIn: 3})
	l.Append(model.Transaction{PoolID: "p1", Type: model.TxSwap, AmountIn: 4})

	assert.Equal(t, []float64{4, 3, 1}, amounts(l.Collect(Filter{PoolID: "p1"})))
	assert.Equal(t, []float64{4}, amounts(l.Collect(Filter{PoolID: "p1", Limit: 1})))
	assert.Equal(t, []float64{2, 1}, amounts(l.Collect(Filter{Type: model.TxCreatePool})))
	assert.Empty(t, l.Collect(Filter{PoolID: "missing"}))

	latest, ok := l.Latest("p2")
	require.True(t, ok)
	assert.Equal(t, 2.0, latest.AmountIn)

	_, ok = l.Latest("missing")
	assert.False(t, ok)
}

func TestListIsRestartable(t *testing.T) {
	l := newTestLedger(10)
	l.Append(model.Transaction{PoolID: "p1", AmountIn: 1})

	seq := l.List(Filter{})
	first := 0
	for range seq {
		first++
	}

	l.Append(model.Transaction{PoolID: "p1", AmountIn: 2})
	second := 0
	for range seq {
		second++
	}

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestListEarlyBreak(t *testing.T) {
	l := newTestLedger(10)
	for i := 0; i < 4; i++ {
		l.Append(model.Transaction{PoolID: "p1"})
	}

	seen := 0
	for range l.List(Filter{}) {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestAppendDuplicateIDIsNoop(t *testing.T) {
	l := newTestLedger(10)
	first := l.Append(model.Transaction{ID: "dup", PoolID: "p1", AmountIn: 1})
	second := l.Append(model.Transaction{ID: "dup", PoolID: "p1", AmountIn: 99})

	assert.Equal(t, first, second)
	assert.Equal(t, 1, l.Len())
}

func TestLoadKeepsNewest(t *testing.T) {
	l := newTestLedger(2)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Load([]model.Transaction{
		{ID: "b", Timestamp: base.Add(2 * time.Minute), AmountIn: 2},
		{ID: "a", Timestamp: base.Add(time.Minute), AmountIn: 1},
		{ID: "c", Timestamp: base.Add(3 * time.Minute), AmountIn: 3},
	})

	assert.Equal(t, []float64{3, 2}, amounts(l.Collect(Filter{})))
}

func TestLoadPreservesOrderOfEqualTimestamps(t *testing.T) {
	l := newTestLedger(10)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Load([]model.Transaction{
		{ID: "swap", PoolID: "p1", Timestamp: ts, AmountIn: 3},
		{ID: "create", PoolID: "p1", Timestamp: ts, AmountIn: 2},
		{ID: "mint", Timestamp: ts, AmountIn: 1},
	})

	assert.Equal(t, []float64{3, 2, 1}, amounts(l.Collect(Filter{})))
	latest, ok := l.Latest("p1")
	require.True(t, ok)
	assert.Equal(t, "swap", latest.ID)
}

func amounts(txs []model.Transaction) []float64 {
	out := make([]float64, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.AmountIn)
	}
	return out
}
