// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
)

// =============================================================================
// STATE TESTS
// =============================================================================

func TestNewState(t *testing.T) {
	h := lineedit.NewHistory(4)
	st := NewState(h)

	assert.True(t, strings.HasPrefix(st.ID(), "sess_"), "got %q", st.ID())
	assert.NotEqual(t, st.ID(), NewState(nil).ID())
	assert.False(t, st.StartedAt().IsZero())
	assert.Same(t, h, st.History())
	assert.False(t, st.Last().IsValid())
	assert.False(t, st.Exiting())
}

func TestState_Variables(t *testing.T) {
	st := NewState(nil)
	st.SetVar("b", document.Int(2))
	st.SetVar("a", document.String("x"))
	st.SetVar("b", document.Int(3))

	v, ok := st.Var("b")
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.Equal(t, int64(3), n)

	assert.Equal(t, []string{"a", "b"}, st.VarNames())
	assert.Equal(t, `{"a":"x","b":3}`, document.Serialize(st.Vars()))

	assert.True(t, st.DeleteVar("a"))
	assert.False(t, st.DeleteVar("a"))
	_, ok = st.Var("a")
	assert.False(t, ok)
}

func TestState_RecordResult(t *testing.T) {
	st := NewState(nil)
	st.RecordResult(document.String("one"))
	st.RecordResult(document.Value{})

	assert.Equal(t, 2, st.Dispatches())
	last, _ := st.Last().AsString()
	assert.Equal(t, "one", last, "an empty result keeps the previous one")
}

func TestState_Snapshot(t *testing.T) {
	st := NewState(nil)
	snap := st.Snapshot()
	id, _ := snap.Get("id")
	assert.Equal(t, document.String(st.ID()), id)
	last, _ := snap.Get("last")
	assert.True(t, last.IsNull())

	st.RequestExit()
	assert.True(t, st.Exiting())
	exiting, _ := st.Snapshot().Get("exiting")
	assert.Equal(t, document.Bool(true), exiting)
}

// =============================================================================
// MANAGER TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.WarningBefore)
	assert.Equal(t, 64, cfg.MaxSessions)
}

func TestManager_AddRemove(t *testing.T) {
	m := NewManager(DefaultConfig())
	a, b := NewState(nil), NewState(nil)

	require.NoError(t, m.Add(a, nil))
	require.NoError(t, m.Add(b, nil))
	assert.Equal(t, 2, m.Count())
	assert.Len(t, m.IDs(), 2)
	assert.Len(t, m.Statuses(), 2)

	assert.True(t, m.Remove(a.ID()))
	assert.False(t, m.Remove(a.ID()))
	assert.Equal(t, []string{b.ID()}, m.IDs())
}

func TestManager_SessionLimit(t *testing.T) {
	m := NewManager(Config{MaxSessions: 1})
	require.NoError(t, m.Add(NewState(nil), nil))
	assert.ErrorIs(t, m.Add(NewState(nil), nil), ErrSessionLimit)
}

func TestManager_CheckExpiresIdleSessions(t *testing.T) {
	m := NewManager(Config{IdleTimeout: 20 * time.Millisecond})
	st := NewState(nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, m.Add(st, cancel))

	var timedOut []string
	m.SetTimeoutCallback(func(id string) { timedOut = append(timedOut, id) })

	assert.Empty(t, m.Check())
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, []string{st.ID()}, m.Check())
	assert.Equal(t, []string{st.ID()}, timedOut)
	assert.Equal(t, 0, m.Count())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestManager_TouchDefersExpiry(t *testing.T) {
	m := NewManager(Config{IdleTimeout: 50 * time.Millisecond, WarningBefore: 40 * time.Millisecond})
	st := NewState(nil)
	require.NoError(t, m.Add(st, nil))

	var warned int
	m.SetWarningCallback(func(string, time.Duration) { warned++ })

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, m.Check())
	assert.Equal(t, 1, warned)
	assert.Empty(t, m.Check())
	assert.Equal(t, 1, warned, "warning fires once per idle period")

	m.Touch(st.ID())
	idle, ok := m.IdleTime(st.ID())
	require.True(t, ok)
	assert.Less(t, idle, 20*time.Millisecond)
	assert.Equal(t, 1, m.Count())
}

func TestManager_ZeroTimeoutNeverExpires(t *testing.T) {
	m := NewManager(Config{})
	require.NoError(t, m.Add(NewState(nil), nil))
	assert.Nil(t, m.Check())
	assert.Equal(t, 1, m.Count())
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager(Config{IdleTimeout: time.Hour})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st := NewState(nil)
			if err := m.Add(st, nil); err != nil {
				t.Error(err)
				return
			}
			m.Touch(st.ID())
			m.Check()
			m.Remove(st.ID())
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Count())
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m := NewManager(Config{IdleTimeout: time.Millisecond})
	require.NoError(t, m.Add(NewState(nil), nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.Count() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
