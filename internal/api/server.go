// Package api serves read-only JSON views of a simulation session.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"rugpullSim/internal/amm"
	"rugpullSim/internal/analytics"
	"rugpullSim/internal/ledger"
	"rugpullSim/internal/model"
	"rugpullSim/internal/simulator"
)

// Reader is the part of a session the API reads from.
type Reader interface {
	Pools() []model.Pool
	Pool(id string) (model.Pool, error)
	Tokens() []model.Token
	Transactions(filter ledger.Filter) []model.Transaction
	Analytics(timeframe analytics.Timeframe) analytics.Summary
	Insights(poolID string, window time.Duration) (analytics.PoolInsight, error)
	Dashboard() analytics.DashboardStats
}

// Server routes HTTP requests to a Reader.
type Server struct {
	router  *mux.Router
	reader  Reader
	logger  *zap.Logger
	window  time.Duration
	metrics http.Handler
}

// NewServer builds the router. metrics may be nil to omit /metrics.
func NewServer(reader Reader, metrics http.Handler, window time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	s := &Server{
		router:  mux.NewRouter(),
		reader:  reader,
		logger:  logger,
		window:  window,
		metrics: metrics,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods("GET")
	}
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/pools", s.handlePools).Methods("GET")
	api.HandleFunc("/pools/{id}", s.handlePool).Methods("GET")
	api.HandleFunc("/pools/{id}/insights", s.handleInsights).Methods("GET")
	api.HandleFunc("/tokens", s.handleTokens).Methods("GET")
	api.HandleFunc("/transactions", s.handleTransactions).Methods("GET")
	api.HandleFunc("/analytics", s.handleAnalytics).Methods("GET")
	api.HandleFunc("/dashboard", s.handleDashboard).Methods("GET")

	s.router.Use(s.loggingMiddleware)
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server start", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handlePools(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reader.Pools())
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	pool, err := s.reader.Pool(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pool)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	window := s.window
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid window")
			return
		}
		window = parsed
	}
	insight, err := s.reader.Insights(mux.Vars(r)["id"], window)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, insight)
}

func (s *Server) handleTokens(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reader.Tokens())
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.Filter{PoolID: q.Get("pool")}
	if raw := q.Get("type"); raw != "" {
		txType, err := model.ParseTxType(raw)
		if err != nil {
			s.writeErrorMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Type = txType
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeErrorMessage(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}
	s.writeJSON(w, http.StatusOK, s.reader.Transactions(filter))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	tf, err := analytics.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		s.writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.reader.Analytics(tf))
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.reader.Dashboard())
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, simulator.ErrPoolNotFound), errors.Is(err, simulator.ErrTokenNotFound):
		status = http.StatusNotFound
	case errors.Is(err, amm.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	s.writeErrorMessage(w, status, err.Error())
}

func (s *Server) writeErrorMessage(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, map[string]any{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapper.statusCode),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// responseWriterWrapper captures the status code for logging.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
