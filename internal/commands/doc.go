// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command system of the shell.
//
// A Registry maps names and aliases to Commands. It is populated once at
// startup, frozen, and then shared read-only by every session. A Dispatcher
// turns one input line into one Outcome:
//
//	line -> Tokenize -> Resolve -> Arity check -> Handler -> Outcome
//
// Every failure is a typed error that matches one of the package sentinels
// with errors.Is, and Kind maps any error to the label used when rendering
// and in metrics.
//
// Usage:
//
//	reg := commands.NewRegistry()
//	if err := commands.RegisterBuiltins(reg); err != nil {
//		return err // duplicate command names are a startup failure
//	}
//	reg.Freeze()
//
//	d := commands.NewDispatcher(reg, env)
//	out, err := d.Dispatch(ctx, `say "hello world" now`, state)
package commands
