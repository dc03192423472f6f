// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
	"github.com/UnderscoreTud/skript-server-wizard/internal/server"
	"github.com/UnderscoreTud/skript-server-wizard/internal/session"
)

// =============================================================================
// LOCAL SESSION
// =============================================================================

// openLocal returns the line session for the process streams: liner on a
// real terminal, the stream engine without echo otherwise.
func (a *App) openLocal(in io.Reader, out io.Writer, history *lineedit.History) (lineedit.Session, bool) {
	cfg := a.Config().Session
	timeout := time.Duration(cfg.WriteTimeoutMs) * time.Millisecond

	stdin, inIsFile := in.(*os.File)
	stdout, outIsFile := out.(*os.File)
	if inIsFile && outIsFile && stdin == os.Stdin && stdout == os.Stdout && IsTTY() && IsStdoutTTY() {
		return lineedit.NewTerminalSession(lineedit.TerminalConfig{
			Prompt:       cfg.Prompt,
			History:      history,
			Completer:    a.Registry.Complete,
			QueueSize:    cfg.OutputQueue,
			WriteTimeout: timeout,
			Logger:       a.Logger,
		}), true
	}
	return lineedit.NewStreamSession(in, out, lineedit.StreamConfig{
		History:      history,
		Completer:    a.Registry.Complete,
		QueueSize:    cfg.OutputQueue,
		WriteTimeout: timeout,
		Logger:       a.Logger,
	}), false
}

// RunLocal runs one interactive session over in and out until it ends.
func (a *App) RunLocal(ctx context.Context, in io.Reader, out io.Writer, version string) error {
	history, err := a.NewHistory(ctx)
	if err != nil {
		return startupError(StageHistory, err)
	}
	st := session.NewState(history)
	env := a.NewEnv()

	sess, tty := a.openLocal(in, out, history)
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			a.Logger.Debug("session close failed", "error", cerr)
		}
	}()

	opts := RenderOptionsFrom(env.Config.UI, tty)
	opts.Logger = a.Logger
	if tty {
		opts.Width = GetTerminalWidth()
	}
	renderer := NewRenderer(out, opts)
	if tty {
		writeBanner(sess, renderer.Banner(version), a.Logger.With("session", st.ID()))
	}

	loop := &Loop{
		Session:    sess,
		Dispatcher: a.NewDispatcher(env),
		State:      st,
		Config:     env.Config,
		Renderer:   renderer,
		Logger:     a.Logger,
	}
	return loop.Run(ctx)
}

// writeBanner greets a local user. A lost banner is logged and the session
// still starts.
func writeBanner(sess lineedit.Session, banner string, logger *slog.Logger) {
	if err := sess.Write(banner); err != nil {
		logger.Warn("banner dropped", "error", err)
	}
}

// =============================================================================
// NETWORK SESSION
// =============================================================================

// connSession is a shell served over one TCP connection.
type connSession struct {
	stream   *lineedit.StreamSession
	loop     *Loop
	renderer *Renderer
	banner   string
}

// NewSession implements server.SessionFactory. Each connection gets its own
// history, state and config copy; the registry is shared.
func (a *App) NewSession(ctx context.Context, conn net.Conn) (server.Session, error) {
	history, err := a.NewHistory(ctx)
	if err != nil {
		return nil, err
	}
	cfg := a.Config()
	st := session.NewState(history)
	env := a.NewEnv()
	logger := a.Logger.With("session", st.ID())

	stream := lineedit.NewStreamSession(conn, conn, lineedit.StreamConfig{
		Prompt:       cfg.Session.Prompt,
		Echo:         true,
		History:      history,
		Completer:    a.Registry.Complete,
		QueueSize:    cfg.Session.OutputQueue,
		WriteTimeout: time.Duration(cfg.Session.WriteTimeoutMs) * time.Millisecond,
		Logger:       logger,
	})
	opts := RenderOptionsFrom(cfg.UI, false)
	opts.Logger = logger
	renderer := NewRenderer(conn, opts)

	return &connSession{
		stream:   stream,
		renderer: renderer,
		banner:   renderer.Banner(Version),
		loop: &Loop{
			Session:    stream,
			Dispatcher: a.NewDispatcher(env),
			State:      st,
			Config:     env.Config,
			Renderer:   renderer,
			Logger:     a.Logger,
		},
	}, nil
}

func (s *connSession) State() *session.State { return s.loop.State }

func (s *connSession) Run(ctx context.Context, touch func()) error {
	s.loop.OnLine = func(string) { touch() }
	if err := s.stream.Write(s.banner); err != nil {
		return err
	}
	return s.loop.Run(ctx)
}

func (s *connSession) Notify(msg string) error {
	return s.stream.Write(s.renderer.Notice(msg))
}

func (s *connSession) Close() error { return s.stream.Close() }
