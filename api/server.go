package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server exposes the engine over HTTP
type Server struct {
	engine   WagerEngine
	queries  WagerQueries
	health   HealthFunc
	registry *prometheus.Registry
	metrics  *HTTPMetrics
}

// NewServer creates a server with its own metrics registry. health may be nil.
func NewServer(engine WagerEngine, queries WagerQueries, health HealthFunc) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Server{
		engine:   engine,
		queries:  queries,
		health:   health,
		registry: registry,
		metrics:  NewHTTPMetrics(registry),
	}
}

// Router returns the mux with every route registered
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.instrument(pattern, h))
	}

	handle("POST /wagers", withActor(s.createWager))
	handle("GET /wagers", s.listWagers)
	handle("GET /wagers/{id}", s.getWager)
	handle("POST /wagers/{id}/join", withActor(s.joinWager))
	handle("POST /wagers/{id}/leave", withActor(s.leaveWager))
	handle("POST /wagers/{id}/start", withActor(s.startWager))
	handle("POST /wagers/{id}/cancel", withActor(s.cancelWager))
	handle("POST /wagers/{id}/reports", withActor(s.submitReport))
	handle("POST /wagers/{id}/disputes", withActor(s.openDispute))
	handle("POST /wagers/{id}/settle", withActor(s.settleWager))

	handle("POST /admin/wagers/{id}/force-settle", withAdmin(s.forceSettle))
	handle("POST /admin/wagers/{id}/force-refund", withAdmin(s.forceRefund))
	handle("POST /admin/wagers/{id}/mark-dispute", withAdmin(s.markDispute))
	handle("POST /admin/wagers/{id}/force-split", withAdmin(s.forceSplit))
	handle("POST /admin/disputes/{id}/resolve", withAdmin(s.resolveDispute))

	handle("GET /wallets/{userID}", withActor(s.getWallet))
	handle("GET /wallets/{userID}/transactions", withActor(s.listTransactions))
	handle("POST /wallets/{userID}/deposit", withFundingActor(s.deposit))
	handle("POST /wallets/{userID}/withdraw", withFundingActor(s.withdraw))

	handle("GET /feed", s.feed)
	handle("GET /healthz", s.healthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return mux
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := s.health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ListenAndServe serves until ctx ends, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("HTTP API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("Shutting down HTTP API...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
