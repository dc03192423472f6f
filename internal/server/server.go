// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
	"github.com/UnderscoreTud/skript-server-wizard/internal/session"
)

// ============================================================================
// SESSIONS
// ============================================================================

// Session is the shell running on one connection.
type Session interface {
	// State is the session's state; its ID keys the manager.
	State() *session.State

	// Run serves the connection until input ends, the user exits or ctx is
	// done. touch must be called on every line read.
	Run(ctx context.Context, touch func()) error

	// Notify writes an out-of-band message to the client.
	Notify(msg string) error

	// Close flushes output and closes the connection.
	Close() error
}

// SessionFactory creates the Session for an accepted connection.
type SessionFactory interface {
	NewSession(ctx context.Context, conn net.Conn) (Session, error)
}

// ============================================================================
// SERVER
// ============================================================================

// DefaultCheckInterval is how often idle sessions are looked for.
const DefaultCheckInterval = 5 * time.Second

// Config configures a Server.
type Config struct {
	// Addr is the TCP listen address (e.g., "127.0.0.1:7070").
	Addr string

	// MaxSessions caps concurrent connections. Zero means unlimited.
	MaxSessions int

	// IdleTimeout ends sessions without input for this long. Zero disables it.
	IdleTimeout time.Duration

	// WarningBefore is how long before expiry the client is warned.
	WarningBefore time.Duration

	// CheckInterval is how often idle sessions are checked.
	CheckInterval time.Duration

	Logger *slog.Logger
}

// Server accepts TCP connections and runs one Session per connection.
type Server struct {
	cfg     Config
	factory SessionFactory
	manager *session.Manager
	logger  *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	live     map[string]Session

	wg sync.WaitGroup
}

// New creates a server. Call Listen or Serve to start it.
func New(factory SessionFactory, cfg Config) *Server {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	s := &Server{
		cfg:     cfg,
		factory: factory,
		logger:  cfg.Logger,
		live:    make(map[string]Session),
		manager: session.NewManager(session.Config{
			IdleTimeout:   cfg.IdleTimeout,
			WarningBefore: cfg.WarningBefore,
			MaxSessions:   cfg.MaxSessions,
		}),
	}
	s.manager.SetWarningCallback(s.warnIdle)
	s.manager.SetTimeoutCallback(func(id string) {
		s.logger.Info("session expired", "session", id)
	})
	return s
}

// Manager returns the registry of live sessions.
func (s *Server) Manager() *session.Manager { return s.manager }

// Listen binds the configured address. Serve calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is done, then closes the listener and
// waits for every session to finish. Sessions see ctx cancelled too.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.manager.Run(ctx, s.cfg.CheckInterval)
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("server listening", "addr", ln.Addr().String())
	var err error
	for {
		conn, aerr := ln.Accept()
		if aerr != nil {
			if ctx.Err() != nil || errors.Is(aerr, net.ErrClosed) {
				break
			}
			var ne net.Error
			if errors.As(aerr, &ne) && ne.Timeout() {
				s.logger.Warn("accept failed", "error", aerr)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			err = fmt.Errorf("accept failed: %w", aerr)
			break
		}
		s.wg.Add(1)
		go s.handle(ctx, conn)
	}

	cancel()
	s.wg.Wait()
	s.logger.Info("server stopped")
	return err
}

// handle runs one connection to completion.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	remote := conn.RemoteAddr().String()

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess, err := s.factory.NewSession(sctx, conn)
	if err != nil {
		s.logger.Warn("session setup failed", "remote", remote, "error", err)
		conn.Close()
		return
	}
	id := sess.State().ID()

	if err := s.manager.Add(sess.State(), cancel); err != nil {
		s.logger.Warn("session rejected", "remote", remote, "error", err)
		sess.Notify(fmt.Sprintf("connection refused: %v", err))
		sess.Close()
		return
	}
	s.track(id, sess)
	defer s.untrack(id)

	s.logger.Info("session started", "session", id, "remote", remote)
	err = sess.Run(sctx, func() { s.manager.Touch(id) })
	s.manager.Remove(id)

	if ctx.Err() == nil && sctx.Err() != nil {
		sess.Notify("session expired after inactivity")
	}
	if cerr := sess.Close(); cerr != nil {
		s.logger.Debug("session close failed", "session", id, "error", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Debug("session ended with error", "session", id, "error", err)
	}
	s.logger.Info("session ended", "session", id, "remote", remote)
}

func (s *Server) track(id string, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[id] = sess
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, id)
}

// warnIdle tells a client its session is about to expire.
func (s *Server) warnIdle(id string, remaining time.Duration) {
	s.mu.Lock()
	sess := s.live[id]
	s.mu.Unlock()
	if sess == nil {
		return
	}
	msg := fmt.Sprintf("session idle, closing in %s", remaining.Round(time.Second))
	if err := sess.Notify(msg); err != nil {
		s.logger.Debug("idle warning dropped", "session", id, "error", err)
	}
}
