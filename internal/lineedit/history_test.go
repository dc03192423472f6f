// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lineedit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an unbounded HistoryStore used to check eviction across sessions.
type memStore struct {
	lines   []string
	failing bool
}

func (m *memStore) Recent(_ context.Context, limit int) ([]string, error) {
	if len(m.lines) <= limit {
		return append([]string(nil), m.lines...), nil
	}
	return append([]string(nil), m.lines[len(m.lines)-limit:]...), nil
}

func (m *memStore) Append(_ context.Context, line string) error {
	if m.failing {
		return errors.New("disk full")
	}
	m.lines = append(m.lines, line)
	return nil
}

func (m *memStore) Trim(_ context.Context, keep int) error {
	if len(m.lines) > keep {
		m.lines = m.lines[len(m.lines)-keep:]
	}
	return nil
}

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, line := range []string{"one", "two", "three", "four"} {
		require.NoError(t, h.Append(line))
	}
	assert.Equal(t, []string{"two", "three", "four"}, h.Entries())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 3, h.Cap())
}

func TestHistory_IgnoresBlankLines(t *testing.T) {
	h := NewHistory(3)
	require.NoError(t, h.Append("   "))
	require.NoError(t, h.Append(""))
	assert.Equal(t, 0, h.Len())
}

func TestHistory_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultHistoryCapacity, NewHistory(0).Cap())
	assert.Equal(t, DefaultHistoryCapacity, NewHistory(-4).Cap())
}

func TestHistory_NavigationEndsAreNoOps(t *testing.T) {
	h := NewHistory(5)

	_, ok := h.Prev()
	assert.False(t, ok, "Prev on empty history")
	_, ok = h.Next()
	assert.False(t, ok, "Next on empty history")

	require.NoError(t, h.Append("a"))
	require.NoError(t, h.Append("b"))

	line, ok := h.Prev()
	assert.True(t, ok)
	assert.Equal(t, "b", line)
	line, ok = h.Prev()
	assert.True(t, ok)
	assert.Equal(t, "a", line)

	_, ok = h.Prev()
	assert.False(t, ok, "Prev at oldest")
	assert.True(t, h.Navigating())

	line, ok = h.Next()
	assert.True(t, ok)
	assert.Equal(t, "b", line)

	_, ok = h.Next()
	assert.False(t, ok, "Next past newest ends navigation")
	assert.False(t, h.Navigating())

	_, ok = h.Next()
	assert.False(t, ok)
}

func TestHistory_EvictedEntryNeverRecalledInFreshSession(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}

	first, err := LoadHistory(ctx, store, 2)
	require.NoError(t, err)
	for _, line := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, first.Append(line))
	}

	fresh, err := LoadHistory(ctx, store, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"middle", "newest"}, fresh.Entries())

	var recalled []string
	for {
		line, ok := fresh.Prev()
		if !ok {
			break
		}
		recalled = append(recalled, line)
	}
	assert.Equal(t, []string{"newest", "middle"}, recalled)
	assert.NotContains(t, recalled, "oldest")
}

func TestHistory_StoreFailureKeepsMemoryEntry(t *testing.T) {
	store := &memStore{failing: true}
	h, err := LoadHistory(context.Background(), store, 4)
	require.NoError(t, err)

	err = h.Append("kept")
	assert.Error(t, err)
	assert.Equal(t, []string{"kept"}, h.Entries())
}
