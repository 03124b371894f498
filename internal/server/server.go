// Package server exposes the metrics snapshot over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/gitlab-exporter/internal/config"
	"github.com/and161185/gitlab-exporter/internal/server/middleware"
	"github.com/and161185/gitlab-exporter/model"
)

const shutdownTimeout = 5 * time.Second

// Snapshot is the read side of the metrics store.
type Snapshot interface {
	GetAll(ctx context.Context) ([]model.Metric, error)
	Families() []model.Family
	Collector() prometheus.Collector
}

type Server struct {
	snapshot Snapshot
	config   *config.Config
	registry *prometheus.Registry
	logger   *zap.SugaredLogger
}

// NewServer registers the snapshot collector and the Go runtime and process
// collectors on a registry owned by the server.
func NewServer(snapshot Snapshot, cfg *config.Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(snapshot.Collector()); err != nil {
		return nil, fmt.Errorf("register snapshot collector: %w", err)
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		snapshot: snapshot,
		config:   cfg,
		registry: registry,
		logger:   logger,
	}, nil
}

func (srv *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.LogMiddleware(srv.logger))

	router.Handle("/metrics", srv.MetricsHandler())
	router.Get("/healthz", srv.HealthHandler)
	router.Get("/", srv.IndexHandler)

	return router
}

// Run serves until ctx is cancelled and then shuts the listener down.
func (srv *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              srv.config.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Infow("metrics endpoint listening", "addr", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics endpoint: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown metrics endpoint: %w", err)
	}
	srv.logger.Info("metrics endpoint stopped")
	return nil
}

func (srv *Server) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(srv.registry, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(srv.logger.Desugar()),
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func (srv *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := fmt.Fprintln(w, "ok"); err != nil {
		srv.logger.Debugw("failed to write health response", "error", err)
	}
}

// IndexHandler lists the metric families with their current series count.
func (srv *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	all, err := srv.snapshot.GetAll(r.Context())
	if err != nil {
		srv.logger.Errorw("failed to read metrics snapshot", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	series := make(map[string]int)
	for _, m := range all {
		series[m.Name]++
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err = fmt.Fprintln(w, `<html><head><title>GitLab exporter</title></head><body>`+
		`<h1>GitLab exporter</h1><p><a href="/metrics">Metrics</a></p><ul>`)
	if err != nil {
		srv.logger.Debugw("failed to start index response", "error", err)
		return
	}

	for _, f := range srv.snapshot.Families() {
		_, err = fmt.Fprintf(w, "<li>%s (%s): %d series. %s</li>\n",
			html.EscapeString(f.Name), f.Type, series[f.Name], html.EscapeString(f.Help))
		if err != nil {
			srv.logger.Debugw("failed to write index entry", "family", f.Name, "error", err)
			return
		}
	}

	if _, err = fmt.Fprintln(w, "</ul></body></html>"); err != nil {
		srv.logger.Debugw("failed to end index response", "error", err)
	}
}
