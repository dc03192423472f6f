// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
)

func noop(context.Context, *Invocation) (document.Value, error) { return document.Value{}, nil }

// =============================================================================
// TOKENIZER TESTS
// =============================================================================

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"blank", " \t  ", nil},
		{"single word", "help", []string{"help"}},
		{"collapses whitespace", "  set   a\t1 ", []string{"set", "a", "1"}},
		{"double quotes", `say "hello world" now`, []string{"say", "hello world", "now"}},
		{"single quotes", `parse '{"a": 1}'`, []string{"parse", `{"a": 1}`}},
		{"empty quoted token", `say "" x`, []string{"say", "", "x"}},
		{"adjacent quoted and bare text", `say ab"c d"e`, []string{"say", "abc de"}},
		{"escaped quote", `say "a \"b\" c"`, []string{"say", `a "b" c`}},
		{"escaped backslash", `say "a\\b"`, []string{"say", `a\b`}},
		{"backslash is literal outside quotes", `say a\b`, []string{"say", `a\b`}},
		{"no escapes in single quotes", `say 'a\b'`, []string{"say", `a\b`}},
		{"unicode", `say "héllo 世界"`, []string{"say", "héllo 世界"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tokenize(tc.input)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tc.input, diff)
			}
		})
	}
}

func TestTokenize_UnterminatedQuote(t *testing.T) {
	for _, input := range []string{`say "hello`, `say 'x`, `"`, `say "a\"`} {
		_, err := Tokenize(input)
		assert.ErrorIs(t, err, ErrMalformedInput, input)
	}
}

// quoteWord renders s so that Tokenize reads it back as a single word.
func quoteWord(s string) string {
	if s != "" && !strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '"' || r == '\'' || r == '\\'
	}) {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func TestTokenize_QuotedWordsRoundTrip(t *testing.T) {
	words := []string{"plain", "", "two words", `with "quotes"`, `back\slash`, "it's", "tab\there"}
	for _, w := range words {
		tokens, err := Tokenize("say " + quoteWord(w))
		require.NoError(t, err, w)
		assert.Equal(t, []string{"say", w}, tokens)
	}
}

// =============================================================================
// ARITY TESTS
// =============================================================================

func TestArity(t *testing.T) {
	tests := []struct {
		arity  Arity
		n      int
		accept bool
		text   string
	}{
		{None(), 0, true, "no arguments"},
		{None(), 1, false, "no arguments"},
		{Exactly(1), 1, true, "exactly 1 argument"},
		{Exactly(2), 1, false, "exactly 2 arguments"},
		{AtLeast(1), 0, false, "at least 1 argument"},
		{AtLeast(1), 9, true, "at least 1 argument"},
		{Between(1, 2), 2, true, "1 to 2 arguments"},
		{Between(1, 2), 3, false, "1 to 2 arguments"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.accept, tc.arity.Accepts(tc.n), "%s with %d", tc.arity, tc.n)
		assert.Equal(t, tc.text, tc.arity.String())
		if tc.accept {
			assert.NoError(t, tc.arity.Check(tc.n))
		} else {
			assert.ErrorIs(t, tc.arity.Check(tc.n), ErrArityMismatch)
		}
	}
	assert.Equal(t, None(), Arity{}, "zero value takes no arguments")
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Command{Name: "say", Aliases: []string{"echo"}, Handler: noop}))

	tests := []struct {
		name string
		cmd  *Command
	}{
		{"same name", &Command{Name: "say", Handler: noop}},
		{"name taken by alias", &Command{Name: "echo", Handler: noop}},
		{"alias taken by name", &Command{Name: "print", Aliases: []string{"say"}, Handler: noop}},
		{"alias repeated within command", &Command{Name: "print", Aliases: []string{"p", "p"}, Handler: noop}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := r.Register(tc.cmd)
			assert.ErrorIs(t, err, ErrDuplicateCommand)
			assert.Equal(t, KindDuplicateCommand, Kind(err))
		})
	}
	assert.Equal(t, []string{"say"}, r.List(), "failed registrations leave the registry unchanged")

	assert.Error(t, r.Register(&Command{Name: "nohandler"}))
	assert.Error(t, r.Register(&Command{Name: "two words", Handler: noop}))
	assert.Error(t, r.Register(&Command{Name: "", Handler: noop}))
}

func TestRegistry_DuplicateWithSameHandler(t *testing.T) {
	r := NewRegistry()
	cmd := &Command{Name: "x", Handler: noop}
	require.NoError(t, r.Register(cmd))
	assert.ErrorIs(t, r.Register(cmd), ErrDuplicateCommand)
}

func TestRegistry_Freeze(t *testing.T) {
	r := NewRegistry()
	r.Freeze()
	assert.True(t, r.Frozen())
	assert.ErrorIs(t, r.Register(&Command{Name: "x", Handler: noop}), ErrRegistryFrozen)
}

func TestRegistry_ResolveIsExact(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(&Command{Name: "say", Aliases: []string{"echo"}, Handler: noop})

	cmd, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, "say", cmd.Name)

	for _, name := range []string{"Say", "sa", "says", "sai"} {
		_, err := r.Resolve(name)
		assert.ErrorIs(t, err, ErrUnknownCommand, name)
	}

	_, err = r.Resolve("sai")
	var cerr *CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "say", cerr.Suggestion)
	assert.Contains(t, err.Error(), `did you mean "say"?`)
}

func TestRegistry_ListAndComplete(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"set", "say", "help", "secret"} {
		r.MustRegister(&Command{Name: name, Hidden: name == "secret", Handler: noop})
	}
	r.MustRegister(&Command{Name: "sum", Aliases: []string{"sigma"}, Handler: noop})

	assert.Equal(t, []string{"help", "say", "secret", "set", "sum"}, r.List())
	assert.Len(t, r.Commands(), 5)
	assert.Equal(t, []string{"say", "set", "sigma", "sum"}, r.Complete("s"))
	assert.Equal(t, []string{"set"}, r.Complete("se"))
	assert.Empty(t, r.Complete("x"))

	var completer lineedit.Completer = r.Complete
	assert.NotNil(t, completer)
}

// =============================================================================
// KIND TESTS
// =============================================================================

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, KindOK},
		{fmt.Errorf("x: %w", document.ErrMalformedDocument), KindMalformedDocument},
		{fmt.Errorf("%w: bad", ErrMalformedInput), KindMalformedInput},
		{&CommandError{Command: "x", Err: ErrUnknownCommand}, KindUnknownCommand},
		{&ArityError{Command: "x"}, KindArityMismatch},
		{&PanicError{Command: "x", Value: "boom"}, KindInternalCommandFailure},
		{lineedit.ErrEndOfInput, KindEndOfInput},
		{context.Canceled, KindCanceled},
		{errors.New("disk full"), KindCommandFailed},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Kind(tc.err), "%v", tc.err)
	}
}
