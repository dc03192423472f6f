// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides per-session state and the live session manager.
//
// A State belongs to exactly one shell loop for the duration of one run:
// variables, the last result, the exit flag and a reference to the line
// history. Nothing in a State is shared with other sessions.
//
// # Key Types
//
//   - State: mutable session state owned by one loop
//   - Manager: registry of live sessions with idle timeout tracking
//
// # Usage
//
// Create state for a new session:
//
//	st := session.NewState(history)
//	st.SetVar("server", value)
//	if st.Exiting() {
//	    return
//	}
//
// Track sessions served over the network:
//
//	mgr := session.NewManager(session.DefaultConfig())
//	mgr.Add(st, cancel)
//	defer mgr.Remove(st.ID())
package session
