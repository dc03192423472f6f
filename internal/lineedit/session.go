// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lineedit

import (
	"context"
	"errors"
)

// ErrEndOfInput is returned by ReadLine once the input stream is exhausted
// or closed. It is a control signal, not a failure.
var ErrEndOfInput = errors.New("end of input")

// Session is one interactive input/output channel.
type Session interface {
	// ReadLine blocks until a line is submitted or input ends.
	ReadLine(ctx context.Context) (string, error)

	// Write queues text for output without blocking indefinitely.
	Write(text string) error

	// Flush waits (bounded) for queued output to reach the sink.
	Flush() error

	// History returns the session's line history.
	History() *History

	// Close flushes output and releases the underlying streams.
	Close() error
}
