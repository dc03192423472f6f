// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
	"github.com/UnderscoreTud/skript-server-wizard/internal/session"
)

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome is the result of dispatching one line.
type Outcome struct {
	// Command is the resolved command; nil for a blank line.
	Command *Command

	// Value is the handler's result. The zero Value means nothing to show.
	Value document.Value
}

// Empty reports whether there is nothing to render.
func (o Outcome) Empty() bool { return !o.Value.IsValid() }

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher turns input lines into command invocations. It keeps no state
// between calls; everything mutable lives in the session.State passed in.
type Dispatcher struct {
	registry *Registry
	env      *Env
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetrics records every dispatch in m.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger sets the dispatch logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher over reg. env is handed to every
// handler and may be nil.
func NewDispatcher(reg *Registry, env *Env, opts ...Option) *Dispatcher {
	if env == nil {
		env = &Env{}
	}
	if env.Registry == nil {
		env.Registry = reg
	}
	d := &Dispatcher{registry: reg, env: env}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = env.Logger
	}
	if d.logger == nil {
		d.logger = logging.NewNop()
	}
	if env.Logger == nil {
		env.Logger = d.logger
	}
	return d
}

// Registry returns the registry commands are resolved against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch runs one line against st. A blank line is a no-op that performs
// no lookup. Errors from the handler are returned unchanged; a panicking
// handler yields a *PanicError. On success the state's last result is
// updated; failures leave the state untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, line string, st *session.State) (Outcome, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		d.metrics.observe("", err, 0)
		return Outcome{}, err
	}
	if len(tokens) == 0 {
		return Outcome{}, nil
	}

	name, args := tokens[0], tokens[1:]
	cmd, err := d.registry.Resolve(name)
	if err != nil {
		d.metrics.observe("", err, 0)
		return Outcome{}, err
	}

	if !cmd.Arity.Accepts(len(args)) {
		err := &ArityError{Command: cmd.Name, Arity: cmd.Arity, Got: len(args), Usage: cmd.Usage}
		d.metrics.observe(cmd.Name, err, 0)
		return Outcome{Command: cmd}, err
	}

	logger := d.logger
	if l, ok := logging.Lookup(ctx); ok {
		logger = l
	}
	logger = logger.With("command", cmd.Name)
	ctx = logging.WithLogger(ctx, logger)

	inv := &Invocation{Name: name, Command: cmd, Args: args, State: st, Env: d.env}
	start := time.Now()
	v, err := d.invoke(ctx, logger, inv)
	elapsed := time.Since(start)
	d.metrics.observe(cmd.Name, err, elapsed)

	if err != nil {
		logger.Debug("command failed", "kind", Kind(err), "error", err)
		return Outcome{Command: cmd}, err
	}
	logger.Debug("command done", "duration", elapsed)

	if st != nil {
		st.RecordResult(v)
	}
	return Outcome{Command: cmd, Value: v}, nil
}

// invoke calls the handler, converting a panic into a *PanicError.
// Handlers log through logging.FromContext(ctx).
func (d *Dispatcher) invoke(ctx context.Context, logger *slog.Logger, inv *Invocation) (v document.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("command panicked", "panic", r, "stack", string(stack))
			v = document.Value{}
			err = &PanicError{Command: inv.Command.Name, Value: r, Stack: stack}
		}
	}()
	return inv.Command.Handler(ctx, inv)
}
