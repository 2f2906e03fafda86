// Package api implements the HTTP surface used to run single simulations
// and parameter sweeps on demand.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server wraps an *http.Server exposing the simulation endpoints plus
// health and metrics probes.
type Server struct {
	addr   string
	logger *logrus.Logger
	server *http.Server

	runsTotal     prometheus.Counter
	progressGauge prometheus.Gauge
}

// Config controls the HTTP server's listen address and timeouts.
type Config struct {
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sane timeouts for local and CI use.
func DefaultConfig(addr string) Config {
	return Config{
		ListenAddr:   addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer builds a Server with its own Prometheus registry so that
// repeated construction in tests does not panic on duplicate registration.
func NewServer(cfg Config, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	s := &Server{
		addr:   cfg.ListenAddr,
		logger: logger,
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "faas_sim_runs_total",
			Help: "Total number of simulation runs completed via the HTTP API.",
		}),
		progressGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "faas_sim_run_progress_ratio",
			Help: "Fraction of the configured horizon elapsed in the most recently started run.",
		}),
	}

	router := s.setupRoutes(registry)
	s.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes(registry *prometheus.Registry) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/sim/single", s.handleSingle).Methods(http.MethodPost)
	router.HandleFunc("/sim/overall", s.handleOverall).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return router
}

// Start begins serving. It blocks until the server stops; callers typically
// run it in a goroutine and call Shutdown from the main goroutine.
func (s *Server) Start() error {
	s.logger.Infof("starting HTTP server on %s", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving HTTP: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
