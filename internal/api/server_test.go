package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rugpullSim/internal/amm"
	"rugpullSim/internal/analytics"
	"rugpullSim/internal/model"
	"rugpullSim/internal/observability"
	"rugpullSim/internal/simulator"
	"rugpullSim/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	ctx := context.Background()
	metrics := observability.NewMetrics("")
	engine, err := amm.NewEngine(amm.Config{})
	require.NoError(t, err)
	session, err := simulator.New(simulator.Options{
		Engine:  engine,
		Storage: memory.NewStore(),
		Metrics: metrics,
	})
	require.NoError(t, err)

	minted, err := session.MintToken(ctx, simulator.MintRequest{Name: "Scam", Symbol: "SCAM"})
	require.NoError(t, err)
	created, err := session.CreatePool(ctx, minted.Token.ID, 1000, 10)
	require.NoError(t, err)
	_, err = session.Swap(ctx, created.Pool.ID, 1, model.BaseToToken)
	require.NoError(t, err)

	return NewServer(session, metrics.Handler(), time.Minute, nil), created.Pool.ID
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPoolsEndpoints(t *testing.T) {
	s, poolID := newTestServer(t)

	rec := get(t, s, "/api/pools")
	require.Equal(t, http.StatusOK, rec.Code)
	var pools []model.Pool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pools))
	require.Len(t, pools, 1)
	assert.Equal(t, poolID, pools[0].ID)

	rec = get(t, s, "/api/pools/"+poolID)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, s, "/api/pools/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsightsEndpoint(t *testing.T) {
	s, poolID := newTestServer(t)

	rec := get(t, s, "/api/pools/"+poolID+"/insights?window=1h")
	require.Equal(t, http.StatusOK, rec.Code)
	var insight analytics.PoolInsight
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insight))
	assert.Equal(t, 1, insight.TotalSwaps)
	assert.Len(t, insight.Points, 2)

	rec = get(t, s, "/api/pools/"+poolID+"/insights?window=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/analytics?timeframe=24h")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary analytics.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, analytics.LastDay, summary.Timeframe)
	assert.Equal(t, 3, summary.TotalTransactions)

	rec = get(t, s, "/api/analytics?timeframe=forever")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionsEndpoint(t *testing.T) {
	s, poolID := newTestServer(t)

	rec := get(t, s, "/api/transactions?pool="+poolID+"&type=swap")
	require.Equal(t, http.StatusOK, rec.Code)
	var txs []model.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, model.TxSwap, txs[0].Type)

	rec = get(t, s, "/api/transactions?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	var limited []model.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &limited))
	assert.Len(t, limited, 1)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/transactions?type=nope").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/transactions?limit=-2").Code)
}

func TestDashboardAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	var dash analytics.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, 1, dash.TokensCreated)
	assert.Equal(t, 1, dash.ActivePools)

	rec = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rugsim_ops_operations_total{type="swap"} 1`)

	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
