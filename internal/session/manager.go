// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// ErrSessionLimit is returned by Add when the manager is full.
var ErrSessionLimit = errors.New("session limit reached")

// Manager tracks the live sessions of a server and expires idle ones.
type Manager struct {
	mu sync.Mutex

	sessions map[string]*entry

	// Timeout configuration
	idleTimeout   time.Duration // zero disables expiry
	warningBefore time.Duration
	maxSessions   int // zero means unlimited

	// Callbacks
	onTimeout func(id string)
	onWarning func(id string, remaining time.Duration)
}

type entry struct {
	state        *State
	cancel       context.CancelFunc
	lastActivity time.Time
	warningShown bool
}

// Config holds configuration for the session manager.
type Config struct {
	// IdleTimeout ends a session after this much inactivity (default: 15 minutes).
	// Zero disables expiry.
	IdleTimeout time.Duration

	// WarningBefore is how long before expiry the warning callback fires (default: 1 minute).
	WarningBefore time.Duration

	// MaxSessions caps concurrent sessions. Zero means unlimited.
	MaxSessions int
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   15 * time.Minute,
		WarningBefore: time.Minute,
		MaxSessions:   64,
	}
}

// NewManager creates a new session manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		sessions:      make(map[string]*entry),
		idleTimeout:   cfg.IdleTimeout,
		warningBefore: cfg.WarningBefore,
		maxSessions:   cfg.MaxSessions,
	}
}

// =============================================================================
// REGISTRATION
// =============================================================================

// Add registers a live session. cancel is invoked when the session expires
// and may be nil.
func (m *Manager) Add(st *State, cancel context.CancelFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return ErrSessionLimit
	}
	m.sessions[st.ID()] = &entry{state: st, cancel: cancel, lastActivity: time.Now()}
	return nil
}

// Remove forgets a session. It reports whether the session was registered.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// IDs returns the live session IDs in lexicographic order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// Touch records activity for a session. It should be called on every line read.
func (m *Manager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		e.lastActivity = time.Now()
		e.warningShown = false
	}
}

// IdleTime returns how long since the session was last active.
func (m *Manager) IdleTime(id string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return 0, false
	}
	return time.Since(e.lastActivity), true
}

// SetTimeoutCallback sets the function called when a session expires.
func (m *Manager) SetTimeoutCallback(fn func(id string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTimeout = fn
}

// SetWarningCallback sets the function called when a session nears expiry.
func (m *Manager) SetWarningCallback(fn func(id string, remaining time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWarning = fn
}

// =============================================================================
// TIMEOUT CHECKING
// =============================================================================

// Check expires idle sessions and fires callbacks. Expired sessions are
// cancelled and removed. It returns the IDs that expired.
func (m *Manager) Check() []string {
	m.mu.Lock()
	if m.idleTimeout <= 0 {
		m.mu.Unlock()
		return nil
	}

	type warning struct {
		id        string
		remaining time.Duration
	}
	var expired []*entry
	var warnings []warning
	for id, e := range m.sessions {
		idle := time.Since(e.lastActivity)
		switch {
		case idle >= m.idleTimeout:
			expired = append(expired, e)
			delete(m.sessions, id)
		case !e.warningShown && idle >= m.idleTimeout-m.warningBefore:
			e.warningShown = true
			warnings = append(warnings, warning{id: id, remaining: m.idleTimeout - idle})
		}
	}
	onTimeout := m.onTimeout
	onWarning := m.onWarning
	m.mu.Unlock()

	// Execute callbacks outside lock
	if onWarning != nil {
		for _, w := range warnings {
			onWarning(w.id, w.remaining)
		}
	}

	ids := make([]string, 0, len(expired))
	for _, e := range expired {
		if e.cancel != nil {
			e.cancel()
		}
		ids = append(ids, e.state.ID())
		if onTimeout != nil {
			onTimeout(e.state.ID())
		}
	}
	sort.Strings(ids)
	return ids
}

// Run calls Check every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check()
		}
	}
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status describes one live session.
type Status struct {
	SessionID string
	StartTime time.Time
	Duration  time.Duration
	IdleTime  time.Duration
}

// Statuses returns the status of every live session ordered by ID.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.sessions))
	for id, e := range m.sessions {
		out = append(out, Status{
			SessionID: id,
			StartTime: e.state.StartedAt(),
			Duration:  e.state.Uptime(),
			IdleTime:  time.Since(e.lastActivity),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}
