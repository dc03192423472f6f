// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
	"github.com/UnderscoreTud/skript-server-wizard/internal/session"
)

var errDiskFull = errors.New("disk full")

// newTestDispatcher registers a few test commands. calls counts handler
// invocations by command name.
func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, map[string]int) {
	t.Helper()
	calls := make(map[string]int)
	r := NewRegistry()
	r.MustRegister(&Command{
		Name:  "say",
		Arity: AtLeast(1),
		Handler: func(_ context.Context, inv *Invocation) (document.Value, error) {
			calls["say"]++
			return document.Strings(inv.Args), nil
		},
	})
	r.MustRegister(&Command{
		Name:  "fail",
		Arity: None(),
		Handler: func(context.Context, *Invocation) (document.Value, error) {
			calls["fail"]++
			return document.Value{}, errDiskFull
		},
	})
	r.MustRegister(&Command{
		Name:  "boom",
		Arity: None(),
		Handler: func(context.Context, *Invocation) (document.Value, error) {
			calls["boom"]++
			var m map[string]int
			m["x"] = 1
			return document.Value{}, nil
		},
	})
	r.MustRegister(&Command{
		Name:  "pair",
		Arity: Exactly(2),
		Handler: func(context.Context, *Invocation) (document.Value, error) {
			calls["pair"]++
			return document.Int(2), nil
		},
	})
	r.Freeze()
	return NewDispatcher(r, nil, opts...), calls
}

func TestDispatch_Success(t *testing.T) {
	d, calls := newTestDispatcher(t)
	st := session.NewState(nil)

	out, err := d.Dispatch(context.Background(), `say "hello world" now`, st)
	require.NoError(t, err)
	require.NotNil(t, out.Command)
	assert.Equal(t, "say", out.Command.Name)
	assert.Equal(t, `["hello world","now"]`, document.Serialize(out.Value))
	assert.Equal(t, 1, calls["say"])

	assert.True(t, document.Equal(out.Value, st.Last()))
	assert.Equal(t, 1, st.Dispatches())
}

func TestDispatch_BlankLineIsNoop(t *testing.T) {
	// A nil registry would panic on lookup.
	d := NewDispatcher(nil, nil)
	st := session.NewState(nil)

	for _, line := range []string{"", "   ", "\t"} {
		out, err := d.Dispatch(context.Background(), line, st)
		require.NoError(t, err)
		assert.Nil(t, out.Command)
		assert.True(t, out.Empty())
	}
	assert.Equal(t, 0, st.Dispatches())
}

func TestDispatch_FailuresLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"unknown command", "frobnicate", ErrUnknownCommand},
		{"case sensitive", "SAY x", ErrUnknownCommand},
		{"malformed input", `say "unterminated`, ErrMalformedInput},
		{"too few arguments", "say", ErrArityMismatch},
		{"too many arguments", "pair a b c", ErrArityMismatch},
		{"handler error", "fail", errDiskFull},
		{"handler panic", "boom", ErrInternalCommandFailure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := newTestDispatcher(t)
			st := session.NewState(nil)
			_, err := d.Dispatch(context.Background(), "say seed", st)
			require.NoError(t, err)
			before := st.Snapshot()

			out, err := d.Dispatch(context.Background(), tc.line, st)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, out.Empty())

			assert.True(t, document.Equal(before, st.Snapshot()), "state changed: %s", st.Snapshot())
		})
	}
}

func TestDispatch_ArityCheckedBeforeHandler(t *testing.T) {
	d, calls := newTestDispatcher(t)
	_, err := d.Dispatch(context.Background(), "pair one", session.NewState(nil))

	var aerr *ArityError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "pair", aerr.Command)
	assert.Equal(t, 1, aerr.Got)
	assert.Zero(t, calls["pair"])
}

func TestDispatch_HandlerErrorUnchanged(t *testing.T) {
	d, _ := newTestDispatcher(t)
	_, err := d.Dispatch(context.Background(), "fail", session.NewState(nil))
	assert.Same(t, errDiskFull, err)
}

func TestDispatch_PanicBecomesInternalFailure(t *testing.T) {
	d, calls := newTestDispatcher(t)
	st := session.NewState(nil)

	_, err := d.Dispatch(context.Background(), "boom", st)
	var perr *PanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "boom", perr.Command)
	assert.NotEmpty(t, perr.Stack)
	assert.Equal(t, 1, calls["boom"])

	// The session survives and keeps working.
	_, err = d.Dispatch(context.Background(), "say still here", st)
	assert.NoError(t, err)
}

func TestDispatch_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	d, _ := newTestDispatcher(t, WithMetrics(m))
	st := session.NewState(nil)
	ctx := context.Background()

	_, _ = d.Dispatch(ctx, "say a", st)
	_, _ = d.Dispatch(ctx, "say b", st)
	_, _ = d.Dispatch(ctx, "say", st)
	_, _ = d.Dispatch(ctx, "nope", st)
	_, _ = d.Dispatch(ctx, "", st)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatches.WithLabelValues("say", KindOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("say", KindArityMismatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("-", KindUnknownCommand)))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "collectors register once per registry")
}

func TestDispatch_HandlersLogThroughContext(t *testing.T) {
	var buf bytes.Buffer
	r := NewRegistry()
	r.MustRegister(&Command{
		Name:  "note",
		Arity: None(),
		Handler: func(ctx context.Context, _ *Invocation) (document.Value, error) {
			logging.FromContext(ctx).Info("noted")
			return document.Value{}, nil
		},
	})
	r.Freeze()
	d := NewDispatcher(r, &Env{}, WithLogger(logging.NewNop()))

	ctx := logging.WithLogger(context.Background(), logging.New(slog.LevelInfo, &buf).With("session", "s1"))
	_, err := d.Dispatch(ctx, "note", session.NewState(nil))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "msg=noted")
	assert.Contains(t, buf.String(), "session=s1")
	assert.Contains(t, buf.String(), "command=note")
}
