// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/UnderscoreTud/skript-server-wizard/internal/commands"
	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
	"github.com/UnderscoreTud/skript-server-wizard/internal/session"
)

// =============================================================================
// SESSION LOOP
// =============================================================================

// Loop drives one session: read a line, dispatch it, render the outcome.
type Loop struct {
	Session    lineedit.Session
	Dispatcher *commands.Dispatcher
	State      *session.State
	Renderer   *Renderer
	Logger     *slog.Logger

	// Config is the session's settings. When set, rendering follows its ui
	// section, so "config ui.indent 4" affects the next outcome.
	Config *config.Config

	// OnLine runs after every line read, before dispatch.
	OnLine func(line string)
}

// Run loops until input ends, a command requests exit, or ctx is done.
// Dispatch errors are rendered and never end the loop. Pending output is
// flushed before Run returns. End of input and exit return nil; a
// cancelled ctx returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	logger := l.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	renderer := l.Renderer
	if renderer == nil {
		renderer = NewRenderer(io.Discard, RenderOptions{})
	}

	logger = logger.With("session", l.State.ID())
	ctx = logging.WithLogger(ctx, logger)

	err := l.run(ctx, logger, renderer)
	if ferr := l.Session.Flush(); ferr != nil {
		logger.Debug("flush on exit failed", "error", ferr)
		if err == nil {
			err = fmt.Errorf("failed to flush output: %w", ferr)
		}
	}
	return err
}

func (l *Loop) run(ctx context.Context, logger *slog.Logger, renderer *Renderer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := l.Session.ReadLine(ctx)
		if errors.Is(err, lineedit.ErrEndOfInput) {
			logger.Debug("end of input")
			return nil
		}
		if err != nil {
			return err
		}
		if l.OnLine != nil {
			l.OnLine(line)
		}

		out, err := l.Dispatcher.Dispatch(ctx, line, l.State)
		if l.Config != nil {
			renderer.Apply(l.Config.UI)
		}
		var text string
		if err != nil {
			text = renderer.Error(err)
		} else {
			text = renderer.Outcome(out)
		}
		if text != "" {
			if werr := l.Session.Write(text); werr != nil {
				if errors.Is(werr, lineedit.ErrOutputClosed) {
					return werr
				}
				logger.Warn("output dropped", "error", werr)
			}
		}

		if l.State.Exiting() {
			logger.Debug("exit requested")
			return nil
		}
	}
}
