// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/UnderscoreTud/skript-server-wizard/internal/server"
)

// serveFlags override the server config section.
type serveFlags struct {
	listen      string
	metrics     string
	maxSessions int
}

func newServeCmd(global *globalFlags, s streams) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one session per TCP connection",
		Long: `Starts wizard in server mode. Every TCP connection gets its own session with
its own history and variables. Prometheus metrics and a health check are
served on a separate HTTP address.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), global.options(s.err), flags)
		},
	}
	cmd.Flags().StringVarP(&flags.listen, "listen", "l", "", "TCP address for sessions (default: server.listen)")
	cmd.Flags().StringVar(&flags.metrics, "metrics", "", "HTTP address for /metrics, empty config value disables it (default: server.metrics)")
	cmd.Flags().IntVar(&flags.maxSessions, "max-sessions", -1, "maximum concurrent sessions, 0 for unlimited (default: server.max_sessions)")
	return cmd
}

// runServe runs the TCP server and the metrics listener until ctx is done.
func runServe(ctx context.Context, opts Options, flags *serveFlags) error {
	app, err := NewApp(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.Config()
	listen := cfg.Server.Listen
	if flags.listen != "" {
		listen = flags.listen
	}
	metricsAddr := cfg.Server.Metrics
	if flags.metrics != "" {
		metricsAddr = flags.metrics
	}
	maxSessions := cfg.Server.MaxSessions
	if flags.maxSessions >= 0 {
		maxSessions = flags.maxSessions
	}

	srv := server.New(app, server.Config{
		Addr:          listen,
		MaxSessions:   maxSessions,
		IdleTimeout:   time.Duration(cfg.Session.IdleTimeoutSecs) * time.Second,
		WarningBefore: time.Minute,
		Logger:        app.Logger,
	})
	if err := srv.Listen(); err != nil {
		return startupError(StageListen, err)
	}
	if err := server.RegisterSessionGauge(app.Prometheus, srv.Manager()); err != nil {
		return startupError(StageMetrics, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx) })
	if metricsAddr != "" {
		router := server.NewRouter(app.Prometheus, srv.Manager(), app.Logger)
		g.Go(func() error { return server.ServeHTTP(gctx, metricsAddr, router, app.Logger) })
	}
	g.Go(func() error {
		if err := app.WatchConfig(gctx); err != nil {
			app.Logger.Warn("config watcher stopped", "error", err)
		}
		return nil
	})
	return g.Wait()
}
