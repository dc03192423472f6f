// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the process entry point of wizard: the cobra command tree,
// the interactive session loop, rendering of command outcomes and the
// mapping of startup failures to exit codes.
//
// # Key Types
//
//   - App: the services built from configuration at startup
//   - Loop: reads lines, dispatches them and renders the outcome
//   - Renderer: turns document values and errors into terminal text
//
// # Usage
//
// The main package only calls Execute:
//
//	func main() {
//	    os.Exit(cli.Execute())
//	}
//
// # Commands Overview
//
//   - wizard: interactive session on stdin/stdout
//   - wizard serve: one session per TCP connection plus /metrics
//   - wizard version: build information
//   - wizard doctor: health checks of config, storage and remote APIs
package cli
