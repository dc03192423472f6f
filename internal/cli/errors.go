// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Process exit codes and startup failures.
//
// Errors inside a session are rendered and the loop continues. Only
// failures before the loop starts, or of the process itself, reach
// ExitCode.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/UnderscoreTud/skript-server-wizard/internal/commands"
	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// Startup stages reported by StartupError.
const (
	StageConfig   = "config"
	StageLogging  = "logging"
	StageRegistry = "registry"
	StageStore    = "store"
	StageHistory  = "history"
	StageMetrics  = "metrics"
	StageListen   = "listen"
)

// StartupError is a failure while building the App, before any line is read.
type StartupError struct {
	Stage string
	Err   error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed at %s: %v", e.Stage, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

func startupError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StartupError{Stage: stage, Err: err}
}

// UsageError wraps flag and argument errors from the command line.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HANDLING
// =============================================================================

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	var verrs config.ValidateErrors
	if errors.As(err, &verrs) {
		return ExitConfigError
	}
	var startup *StartupError
	if errors.As(err, &startup) && startup.Stage == StageConfig {
		return ExitConfigError
	}
	return ExitGeneralError
}

// DisplayError writes err to w in the session error format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "[Error] %s: %v\n", commands.Kind(err), err)
}

// HandleError displays err and returns its exit code.
func HandleError(w io.Writer, err error) int {
	DisplayError(w, err)
	return ExitCode(err)
}
