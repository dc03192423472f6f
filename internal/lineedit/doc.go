// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lineedit provides line-edited interactive sessions.
//
// A Session reads one submitted line at a time and writes rendered output
// back without blocking indefinitely on a slow sink.
//
// # Key Types
//
//   - Session: the interface consumed by the shell loop
//   - StreamSession: keystroke engine over any io.Reader / io.Writer pair
//   - TerminalSession: liner-backed session for a real TTY
//   - History: capacity bounded log of submitted lines
//   - Buffer / Editor: in-progress line and the key bindings applied to it
//   - OutputWriter: bounded asynchronous writer with a flow control timeout
//
// # Key Bindings
//
//   - Left / Right, Ctrl+B / Ctrl+F: move the cursor
//   - Home / End, Ctrl+A / Ctrl+E: jump to start or end
//   - Backspace / Delete: delete around the cursor
//   - Ctrl+K / Ctrl+U: kill to end or start of line
//   - Up / Down, Ctrl+P / Ctrl+N: recall history
//   - Tab: complete the command name
//   - Enter: submit
//   - Ctrl+C: discard the line
//   - Ctrl+D: end of input on an empty line
package lineedit
