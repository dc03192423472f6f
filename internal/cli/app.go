// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/UnderscoreTud/skript-server-wizard/internal/commands"
	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
	"github.com/UnderscoreTud/skript-server-wizard/internal/remote"
	"github.com/UnderscoreTud/skript-server-wizard/internal/storage"
)

// =============================================================================
// APPLICATION SERVICES
// =============================================================================

// Options are the command line overrides applied while building an App.
type Options struct {
	// ConfigPath loads this file instead of searching the config directory.
	ConfigPath string

	// LogLevel overrides log.level when set.
	LogLevel string

	// Color overrides ui.color when set.
	Color string

	// LogWriter replaces stderr as the log destination when log.file is
	// not set.
	LogWriter io.Writer

	// Commands are registered after the builtins.
	Commands []*commands.Command
}

// App holds the services shared by every session of one process. The
// registry is frozen before NewApp returns and is safe to share.
type App struct {
	Logger     *slog.Logger
	Registry   *commands.Registry
	Store      storage.DocumentStore
	History    storage.PersistentHistory
	Paper      *remote.Paper
	GitHub     *remote.GitHub
	Downloader *remote.Downloader
	Metrics    *commands.Metrics
	Prometheus *prometheus.Registry

	opts       Options
	configPath string

	mu  sync.RWMutex
	cfg *config.Config

	closers []io.Closer
}

// NewApp loads configuration and opens every service. Any failure is a
// *StartupError and leaves nothing open.
func NewApp(ctx context.Context, opts Options) (_ *App, err error) {
	app := &App{opts: opts}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	cfg, err := app.loadConfig()
	if err != nil {
		return nil, startupError(StageConfig, err)
	}
	app.cfg = cfg
	config.SetGlobal(cfg)

	if opts.LogWriter != nil && cfg.Log.File == "" {
		level, lerr := logging.ParseLevel(cfg.Log.Level)
		if lerr != nil {
			return nil, startupError(StageLogging, lerr)
		}
		app.Logger = logging.New(level, opts.LogWriter)
	} else {
		logger, closer, lerr := logging.Open(cfg.Log.Level, cfg.Log.File)
		if lerr != nil {
			return nil, startupError(StageLogging, lerr)
		}
		app.Logger = logger
		app.closers = append(app.closers, closer)
	}

	app.Registry = commands.NewRegistry()
	if err := commands.RegisterBuiltins(app.Registry); err != nil {
		return nil, startupError(StageRegistry, err)
	}
	for _, cmd := range opts.Commands {
		if err := app.Registry.Register(cmd); err != nil {
			return nil, startupError(StageRegistry, err)
		}
	}
	app.Registry.Freeze()

	app.Prometheus = prometheus.NewRegistry()
	if err := app.Prometheus.Register(collectors.NewGoCollector()); err != nil {
		return nil, startupError(StageMetrics, err)
	}
	if app.Metrics, err = commands.NewMetrics(app.Prometheus); err != nil {
		return nil, startupError(StageMetrics, err)
	}

	if app.Store, err = storage.Open(ctx, cfg.Store); err != nil {
		return nil, startupError(StageStore, err)
	}
	app.closers = append(app.closers, app.Store)

	if app.History, err = storage.OpenHistory(cfg.Session); err != nil {
		return nil, startupError(StageHistory, err)
	}
	if app.History != nil {
		app.closers = append(app.closers, app.History)
	}

	ropts := remote.OptionsFromConfig(cfg.Remote, app.Logger)
	app.Paper = remote.NewPaper(cfg.Remote.PaperURL, ropts)
	app.GitHub = remote.NewGitHub(cfg.Remote.GitHubURL, cfg.Remote.GitHubToken, ropts)
	app.Downloader = remote.NewDownloader(ropts)

	app.Logger.Debug("app ready",
		"config", app.configPath,
		"store", cfg.Store.Backend,
		"history", cfg.Session.HistoryBackend,
		"commands", len(app.Registry.List()))
	return app, nil
}

// loadConfig reads the configured file (or searches for one) and applies
// the command line overrides.
func (a *App) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.opts.ConfigPath != "" {
		a.configPath = a.opts.ConfigPath
		cfg, err = config.LoadFromPath(a.opts.ConfigPath)
	} else {
		a.configPath, _ = config.FindConfigFile()
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	return a.applyOverrides(cfg)
}

func (a *App) applyOverrides(cfg *config.Config) (*config.Config, error) {
	if a.opts.LogLevel != "" {
		cfg.Log.Level = a.opts.LogLevel
	}
	if a.opts.Color != "" {
		cfg.UI.Color = a.opts.Color
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Config returns the current configuration. Callers must not modify it.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// =============================================================================
// PER-SESSION WIRING
// =============================================================================

// NewHistory returns a history for a new session, seeded from the
// persistent store when one is configured.
func (a *App) NewHistory(ctx context.Context) (*lineedit.History, error) {
	capacity := a.Config().Session.HistoryCapacity
	if a.History == nil {
		return lineedit.NewHistory(capacity), nil
	}
	return lineedit.LoadHistory(ctx, a.History, capacity)
}

// NewEnv returns handler services for a new session. The session gets its
// own copy of the configuration, so "config" changes stay local to it.
func (a *App) NewEnv() *commands.Env {
	env := &commands.Env{
		Registry: a.Registry,
		Config:   a.Config().Clone(),
		Store:    a.Store,
		Paper:    a.Paper,
		GitHub:   a.GitHub,
		Logger:   a.Logger,
	}
	// A typed nil would defeat the handlers' nil check.
	if a.Downloader != nil {
		env.Downloader = a.Downloader
	}
	return env
}

// NewDispatcher returns a dispatcher over the shared registry for env.
func (a *App) NewDispatcher(env *commands.Env) *commands.Dispatcher {
	return commands.NewDispatcher(a.Registry, env,
		commands.WithMetrics(a.Metrics),
		commands.WithLogger(a.Logger),
	)
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

// WatchConfig reloads the config file on change until ctx is done. Reloaded
// settings apply to sessions started afterwards. It returns immediately
// when no config file is in use.
func (a *App) WatchConfig(ctx context.Context) error {
	if a.configPath == "" {
		return nil
	}
	return config.Watch(ctx, a.configPath, config.DefaultDebounce, func(cfg *config.Config, err error) {
		if err == nil {
			cfg, err = a.applyOverrides(cfg)
		}
		if err != nil {
			a.Logger.Warn("config reload rejected", "path", a.configPath, "error", err)
			return
		}
		a.mu.Lock()
		a.cfg = cfg
		a.mu.Unlock()
		config.SetGlobal(cfg)
		a.Logger.Info("config reloaded", "path", a.configPath)
	})
}

// =============================================================================
// SHUTDOWN
// =============================================================================

// closeTimeout bounds how long Close waits on a single service.
const closeTimeout = 5 * time.Second

// Close releases every service in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := closeWithTimeout(a.closers[i], closeTimeout); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func closeWithTimeout(c io.Closer, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- c.Close() }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
