// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrMalformedInput indicates a line that cannot be tokenized.
	ErrMalformedInput = errors.New("malformed input")

	// ErrDuplicateCommand indicates a name or alias registered twice.
	ErrDuplicateCommand = errors.New("duplicate command")

	// ErrUnknownCommand indicates a name that resolves to no command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrArityMismatch indicates the wrong number of arguments.
	ErrArityMismatch = errors.New("wrong number of arguments")

	// ErrInternalCommandFailure indicates a handler that panicked.
	ErrInternalCommandFailure = errors.New("internal command failure")

	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("registry is frozen")
)

// =============================================================================
// TYPED ERRORS
// =============================================================================

// CommandError attaches a command name to a failure.
type CommandError struct {
	Command string
	Err     error

	// Suggestion is a close registered name, shown as a hint only.
	Suggestion string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// ArityError reports an argument count the command does not accept.
type ArityError struct {
	Command string
	Arity   Arity
	Got     int
	Usage   string
}

func (e *ArityError) Error() string {
	msg := fmt.Sprintf("%s: expected %s, got %d", e.Command, e.Arity, e.Got)
	if e.Usage != "" {
		msg += "; usage: " + e.Usage
	}
	return msg
}

func (e *ArityError) Unwrap() error { return ErrArityMismatch }

// PanicError carries the value a handler panicked with.
type PanicError struct {
	Command string
	Value   interface{}
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: command panicked: %v", e.Command, e.Value)
}

func (e *PanicError) Unwrap() error { return ErrInternalCommandFailure }

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Error kinds returned by Kind.
const (
	KindOK                     = "OK"
	KindMalformedDocument      = "MalformedDocument"
	KindMalformedInput         = "MalformedInput"
	KindDuplicateCommand       = "DuplicateCommand"
	KindUnknownCommand         = "UnknownCommand"
	KindArityMismatch          = "ArityMismatch"
	KindInternalCommandFailure = "InternalCommandFailure"
	KindEndOfInput             = "EndOfInput"
	KindCanceled               = "Canceled"
	KindCommandFailed          = "CommandFailed"
)

// Kind maps err to its taxonomy label. Errors outside the taxonomy, such as
// a handler's own failures, are KindCommandFailed.
func Kind(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrInternalCommandFailure):
		return KindInternalCommandFailure
	case errors.Is(err, document.ErrMalformedDocument):
		return KindMalformedDocument
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrDuplicateCommand):
		return KindDuplicateCommand
	case errors.Is(err, ErrUnknownCommand):
		return KindUnknownCommand
	case errors.Is(err, ErrArityMismatch):
		return KindArityMismatch
	case errors.Is(err, lineedit.ErrEndOfInput):
		return KindEndOfInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindCommandFailed
	}
}
