// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lineedit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// StreamConfig configures a StreamSession.
type StreamConfig struct {
	// Prompt is shown before each line when Echo is on.
	Prompt string

	// Echo redraws the edited line on the output, for raw terminals and
	// interactive sockets. Off for pipes.
	Echo bool

	// History records submitted lines. A fresh in-memory history is used
	// when nil.
	History *History

	// Completer completes command names on Tab.
	Completer Completer

	// QueueSize and WriteTimeout configure the OutputWriter.
	QueueSize    int
	WriteTimeout time.Duration

	// Logger receives history store failures. Defaults to slog.Default().
	Logger *slog.Logger
}

type keyEvent struct {
	key Key
	err error
}

// StreamSession is a line session over an arbitrary byte stream. Keys are
// decoded by a pump goroutine so ReadLine can honor context cancellation.
type StreamSession struct {
	decoder *KeyDecoder
	out     *OutputWriter
	editor  *Editor
	prompt  string
	echo    bool
	logger  *slog.Logger
	closer  io.Closer

	keys      chan keyEvent
	stop      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	ended     bool
}

// NewStreamSession creates a session reading keys from r and writing to w.
// If r implements io.Closer it is closed by Close.
func NewStreamSession(r io.Reader, w io.Writer, cfg StreamConfig) *StreamSession {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &StreamSession{
		decoder: NewKeyDecoder(r),
		out:     NewOutputWriter(w, cfg.QueueSize, cfg.WriteTimeout),
		editor:  NewEditor(cfg.History, cfg.Completer),
		prompt:  cfg.Prompt,
		echo:    cfg.Echo,
		logger:  logger,
		keys:    make(chan keyEvent),
		stop:    make(chan struct{}),
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *StreamSession) pump() {
	defer close(s.keys)
	for {
		k, err := s.decoder.Next()
		select {
		case s.keys <- keyEvent{key: k, err: err}:
		case <-s.stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// ReadLine blocks until Enter submits the buffer or the stream ends. When
// the stream ends with unsubmitted text, that text is returned as a final
// line and the next call reports ErrEndOfInput.
func (s *StreamSession) ReadLine(ctx context.Context) (string, error) {
	if s.ended {
		return "", ErrEndOfInput
	}
	s.startOnce.Do(func() { go s.pump() })

	if s.echo {
		s.redraw()
	}
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-s.keys:
			if !ok || ev.err != nil {
				return s.endOfStream(ev.err)
			}
			action, err := s.editor.Apply(ev.key)
			if err != nil {
				s.logger.Warn("history store failed", "error", err)
			}
			switch action {
			case ActionSubmit:
				if s.echo {
					s.write("\r\n")
				}
				return s.editor.Submitted(), nil
			case ActionEOF:
				s.ended = true
				if s.echo {
					s.write("\r\n")
				}
				return "", ErrEndOfInput
			case ActionInterrupt:
				if s.echo {
					s.write("^C\r\n")
					s.redraw()
				}
			default:
				if s.echo {
					s.redraw()
				}
			}
		}
	}
}

func (s *StreamSession) endOfStream(err error) (string, error) {
	s.ended = true
	if err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debug("input stream closed", "error", err)
	}
	if s.editor.Buffer().Len() == 0 {
		return "", ErrEndOfInput
	}
	if err := s.editor.Submit(); err != nil {
		s.logger.Warn("history store failed", "error", err)
	}
	return s.editor.Submitted(), nil
}

// redraw repaints the prompt and buffer and places the cursor.
func (s *StreamSession) redraw() {
	buf := s.editor.Buffer()
	var sb strings.Builder
	sb.WriteString("\r")
	sb.WriteString(s.prompt)
	sb.WriteString(buf.String())
	sb.WriteString("\x1b[K")
	if tail := buf.TailWidth(); tail > 0 {
		fmt.Fprintf(&sb, "\x1b[%dD", tail)
	}
	s.write(sb.String())
}

func (s *StreamSession) write(text string) {
	if _, err := s.out.WriteString(text); err != nil {
		s.logger.Debug("echo dropped", "error", err)
	}
}

// Write queues text. Bare newlines become CRLF when echoing to a raw stream.
func (s *StreamSession) Write(text string) error {
	if s.echo {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\n", "\r\n")
	}
	_, err := s.out.WriteString(text)
	return err
}

// Flush waits for queued output.
func (s *StreamSession) Flush() error {
	return s.out.Flush()
}

// History returns the session history.
func (s *StreamSession) History() *History {
	return s.editor.History()
}

// Close flushes output, stops the key pump and closes the input if it is
// closable.
func (s *StreamSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.out.Close()
		close(s.stop)
		if s.closer != nil {
			if cerr := s.closer.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}
