// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the mutable container of one session. It is owned by a single
// loop and is not safe for concurrent use.
type State struct {
	id         string
	startedAt  time.Time
	vars       map[string]document.Value
	last       document.Value
	exiting    bool
	dispatches int
	history    *lineedit.History
}

// NewState creates state for a new session. history may be nil.
func NewState(history *lineedit.History) *State {
	return &State{
		id:        generateSessionID(),
		startedAt: time.Now(),
		vars:      make(map[string]document.Value),
		history:   history,
	}
}

// generateSessionID returns a unique session identifier.
func generateSessionID() string {
	return "sess_" + uuid.NewString()
}

// ID returns the session identifier.
func (s *State) ID() string { return s.id }

// StartedAt returns when the session began.
func (s *State) StartedAt() time.Time { return s.startedAt }

// Uptime returns how long the session has been running.
func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

// History returns the line history of the session, or nil.
func (s *State) History() *lineedit.History { return s.history }

// =============================================================================
// VARIABLES
// =============================================================================

// Var returns the variable stored under name.
func (s *State) Var(name string) (document.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// SetVar stores v under name, replacing any previous value.
func (s *State) SetVar(name string, v document.Value) {
	s.vars[name] = v
}

// DeleteVar removes name. It reports whether the variable existed.
func (s *State) DeleteVar(name string) bool {
	_, ok := s.vars[name]
	delete(s.vars, name)
	return ok
}

// VarNames returns the variable names in lexicographic order.
func (s *State) VarNames() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Vars returns all variables as a mapping ordered by name.
func (s *State) Vars() document.Value {
	names := s.VarNames()
	members := make([]document.Member, 0, len(names))
	for _, name := range names {
		members = append(members, document.Pair(name, s.vars[name]))
	}
	return document.Mapping(members...)
}

// =============================================================================
// RESULTS AND LIFECYCLE
// =============================================================================

// Last returns the most recent successful result. The zero Value means none.
func (s *State) Last() document.Value { return s.last }

// RecordResult counts a successful dispatch and remembers its value.
// An invalid (empty) value leaves the last result unchanged.
func (s *State) RecordResult(v document.Value) {
	s.dispatches++
	if v.IsValid() {
		s.last = v
	}
}

// Dispatches returns the number of successful dispatches.
func (s *State) Dispatches() int { return s.dispatches }

// RequestExit sets the termination flag checked by the loop.
func (s *State) RequestExit() { s.exiting = true }

// Exiting reports whether an exit was requested.
func (s *State) Exiting() bool { return s.exiting }

// Snapshot describes the state as a document, for display and comparison.
func (s *State) Snapshot() document.Value {
	last := s.last
	if !last.IsValid() {
		last = document.Null()
	}
	return document.Mapping(
		document.Pair("id", document.String(s.id)),
		document.Pair("started_at", document.String(s.startedAt.UTC().Format(time.RFC3339))),
		document.Pair("dispatches", document.Int(int64(s.dispatches))),
		document.Pair("exiting", document.Bool(s.exiting)),
		document.Pair("vars", s.Vars()),
		document.Pair("last", last),
	)
}
