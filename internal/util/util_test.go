// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, AtomicWriteFile(path, []byte(`{"a":1}`), 0600))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(content))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "deep", "doc.json")
	require.NoError(t, AtomicWriteFile(path, []byte("null"), 0644))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0644))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0644))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are renamed or removed")
}

func TestAtomicWriteFile_FailedReplaceRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "doc.json")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0755))

	assert.Error(t, AtomicWriteFile(target, []byte("x"), 0644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.json", entries[0].Name())
	assert.True(t, entries[0].IsDir())
}

func TestAtomicWriteFileWithDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "private", "config.toml")
	require.NoError(t, AtomicWriteFileWithDir(path, nil, 0600, 0700))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestAtomicWriteReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugins", "Skript-2.9.jar")
	n, err := AtomicWriteReader(path, strings.NewReader("jar bytes"), 0644)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jar bytes", string(content))
}

func TestAtomicWriteReader_FailedReadKeepsOldContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.jar")
	require.NoError(t, AtomicWriteFile(path, []byte("old"), 0644))

	broken := io.MultiReader(strings.NewReader("half"), iotest.ErrReader(errors.New("connection reset")))
	_, err := AtomicWriteReader(path, broken, 0644)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging file is removed")
}

// =============================================================================
// DISTANCE TESTS
// =============================================================================

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"skript", "skript", 0},
		{"héllo", "hello", 1},
		{"中文", "中", 1},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Distance(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
		assert.Equal(t, tc.want, Distance(tc.b, tc.a), "symmetric for %q vs %q", tc.a, tc.b)
	}
}

func TestSuggest(t *testing.T) {
	names := []string{"exit", "help", "history", "parse", "query", "say"}
	tests := []struct {
		input string
		want  string
	}{
		{"hlep", "help"},
		{"HELP", ""},
		{"histroy", "history"},
		{"prase", "parse"},
		{"sai", "say"},
		{"x", ""},
		{"completely", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Suggest(tc.input, names), "input %q", tc.input)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, Fold("skript"), Fold("SKRIPT"))
	assert.Equal(t, Fold("strasse"), Fold("STRASSE"))
}

// =============================================================================
// STRING WIDTH TESTS
// =============================================================================

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"中文字符", 6, "中..."},
	}
	for _, tc := range tests {
		got := TruncateWidth(tc.input, tc.width)
		assert.Equal(t, tc.want, got, "TruncateWidth(%q, %d)", tc.input, tc.width)
		assert.LessOrEqual(t, StringWidth(got), tc.width)
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "中 ", PadRight("中", 3))
	assert.Equal(t, "abcdef", PadRight("abcdef", 3))
	assert.Equal(t, 2, StringWidth("中"))
	assert.False(t, strings.Contains(PadRight("x", 0), " "))
}
