// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lineedit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/peterh/liner"
)

// TerminalConfig configures a TerminalSession.
type TerminalConfig struct {
	Prompt       string
	History      *History
	Completer    Completer
	QueueSize    int
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// TerminalSession is the line session for an interactive TTY. Line editing
// is done by liner; its in-memory history mirrors the bounded History.
type TerminalSession struct {
	line    *liner.State
	history *History
	prompt  string
	out     *OutputWriter
	logger  *slog.Logger
}

// NewTerminalSession puts the terminal in raw mode for editing. Close must
// be called to restore it.
func NewTerminalSession(cfg TerminalConfig) *TerminalSession {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	history := cfg.History
	if history == nil {
		history = NewHistory(0)
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	if cfg.Completer != nil {
		completer := cfg.Completer
		line.SetCompleter(func(input string) []string {
			if strings.ContainsAny(input, " \t") {
				return nil
			}
			out := completer(input)
			sort.Strings(out)
			return out
		})
	}

	t := &TerminalSession{
		line:    line,
		history: history,
		prompt:  cfg.Prompt,
		out:     NewOutputWriter(os.Stdout, cfg.QueueSize, cfg.WriteTimeout),
		logger:  logger,
	}
	t.syncHistory()
	return t
}

// syncHistory re-seeds liner's history from the bounded History so evicted
// entries can no longer be recalled.
func (t *TerminalSession) syncHistory() {
	t.line.ClearHistory()
	for _, entry := range t.history.Entries() {
		t.line.AppendHistory(entry)
	}
}

// ReadLine prompts for a line. Ctrl+C discards the line and prompts again;
// Ctrl+D or a closed stdin ends input.
func (t *TerminalSession) ReadLine(ctx context.Context) (string, error) {
	// Output must be on screen before liner draws the prompt.
	if err := t.out.Flush(); err != nil {
		t.logger.Debug("flush before prompt failed", "error", err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		input, err := t.line.Prompt(t.prompt)
		switch {
		case err == nil:
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			return "", ErrEndOfInput
		default:
			return "", fmt.Errorf("failed to read line: %w", err)
		}

		full := t.history.Len() == t.history.Cap()
		if err := t.history.Append(input); err != nil {
			t.logger.Warn("history store failed", "error", err)
		}
		if strings.TrimSpace(input) != "" {
			if full {
				t.syncHistory()
			} else {
				t.line.AppendHistory(input)
			}
		}
		return input, nil
	}
}

// Write queues text for stdout.
func (t *TerminalSession) Write(text string) error {
	_, err := t.out.WriteString(text)
	return err
}

// Flush waits for queued output.
func (t *TerminalSession) Flush() error {
	return t.out.Flush()
}

// History returns the session history.
func (t *TerminalSession) History() *History {
	return t.history
}

// Close flushes output and restores the terminal.
func (t *TerminalSession) Close() error {
	err := t.out.Close()
	if cerr := t.line.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
