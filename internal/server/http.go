// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/session"
)

// ============================================================================
// ROUTES
// ============================================================================

// NewRouter builds the HTTP handler for the metrics listener.
func NewRouter(gatherer prometheus.Gatherer, manager *session.Manager, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(Chain(
		RecoveryMiddleware(logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(logger),
	))

	r.Get("/healthz", handleHealth(manager))
	r.Get("/sessions", handleSessions(manager))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}

// RegisterSessionGauge exports the live session count as
// wizard_sessions_live.
func RegisterSessionGauge(reg prometheus.Registerer, manager *session.Manager) error {
	return reg.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "wizard_sessions_live",
			Help: "Number of connected sessions",
		},
		func() float64 { return float64(manager.Count()) },
	))
}

// ============================================================================
// HANDLERS
// ============================================================================

// handleHealth handles GET /healthz.
func handleHealth(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeDocument(w, http.StatusOK, document.Mapping(
			document.Pair("status", document.String("ok")),
			document.Pair("sessions", document.Int(int64(manager.Count()))),
		))
	}
}

// handleSessions handles GET /sessions.
func handleSessions(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := manager.Statuses()
		items := make([]document.Value, 0, len(statuses))
		for _, st := range statuses {
			items = append(items, document.Mapping(
				document.Pair("id", document.String(st.SessionID)),
				document.Pair("started_at", document.String(st.StartTime.UTC().Format(time.RFC3339))),
				document.Pair("idle_secs", document.Int(int64(st.IdleTime/time.Second))),
			))
		}
		writeDocument(w, http.StatusOK, document.Sequence(items...))
	}
}

// writeDocument writes v as a JSON response.
func writeDocument(w http.ResponseWriter, status int, v document.Value) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintln(w, document.Serialize(v))
}

// ============================================================================
// HTTP LIFECYCLE
// ============================================================================

// ShutdownTimeout bounds graceful shutdown of the HTTP listener.
const ShutdownTimeout = 5 * time.Second

// ServeHTTP serves handler on addr until ctx is done, then shuts down
// gracefully within ShutdownTimeout.
func ServeHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", ShutdownTimeout, "error", err)
			return srv.Close()
		}
		return nil
	}
}
