// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lineedit

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DefaultHistoryCapacity is used when a non-positive capacity is requested.
const DefaultHistoryCapacity = 500

// HistoryStore persists submitted lines across sessions.
type HistoryStore interface {
	// Recent returns up to limit of the newest lines, oldest first.
	Recent(ctx context.Context, limit int) ([]string, error)

	// Append records a submitted line.
	Append(ctx context.Context, line string) error

	// Trim drops everything but the newest keep lines.
	Trim(ctx context.Context, keep int) error
}

// =============================================================================
// HISTORY
// =============================================================================

// History is an append-only, capacity bounded log of submitted lines.
// Once full, each append evicts the oldest entry. A navigation cursor walks
// the entries for recall; walking past either end is a no-op.
type History struct {
	mu       sync.Mutex
	ring     []string
	start    int
	count    int
	cursor   int // index into the logical entries; == count when not navigating
	capacity int
	store    HistoryStore
}

// NewHistory creates an in-memory history with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		ring:     make([]string, capacity),
		capacity: capacity,
	}
}

// LoadHistory creates a history backed by store, seeded with the newest
// capacity entries the store holds.
func LoadHistory(ctx context.Context, store HistoryStore, capacity int) (*History, error) {
	h := NewHistory(capacity)
	if store == nil {
		return h, nil
	}
	lines, err := store.Recent(ctx, h.capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	for _, line := range lines {
		h.push(line)
	}
	h.store = store
	return h, nil
}

// Append records line and resets navigation. Blank lines are ignored.
// The in-memory append always happens; a store failure is returned after.
func (h *History) Append(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	h.mu.Lock()
	h.push(line)
	h.cursor = h.count
	store := h.store
	capacity := h.capacity
	h.mu.Unlock()

	if store == nil {
		return nil
	}
	ctx := context.Background()
	if err := store.Append(ctx, line); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	if err := store.Trim(ctx, capacity); err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}
	return nil
}

// push adds a line, evicting the oldest when full. Caller holds mu or owns h.
func (h *History) push(line string) {
	if h.count < h.capacity {
		h.ring[(h.start+h.count)%h.capacity] = line
		h.count++
	} else {
		h.ring[h.start] = line
		h.start = (h.start + 1) % h.capacity
	}
	h.cursor = h.count
}

func (h *History) at(i int) string {
	return h.ring[(h.start+i)%h.capacity]
}

// Entries returns the retained lines, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.at(i)
	}
	return out
}

// Len returns the number of retained lines.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Cap returns the capacity.
func (h *History) Cap() int {
	return h.capacity
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Navigating reports whether the cursor is on a recalled entry.
func (h *History) Navigating() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < h.count
}

// Prev moves to the previous (older) entry. At the oldest entry, or with an
// empty history, it does nothing and returns false.
func (h *History) Prev() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor == 0 {
		return "", false
	}
	h.cursor--
	return h.at(h.cursor), true
}

// Next moves to the next (newer) entry. Stepping past the newest entry ends
// navigation and returns false; so does calling Next when not navigating.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor >= h.count {
		return "", false
	}
	h.cursor++
	if h.cursor == h.count {
		return "", false
	}
	return h.at(h.cursor), true
}

// ResetCursor ends navigation.
func (h *History) ResetCursor() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor = h.count
}
