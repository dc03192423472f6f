// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
)

type historyOpener func(path string) (PersistentHistory, error)

func historyBackends() map[string]historyOpener {
	return map[string]historyOpener{
		"sqlite": func(p string) (PersistentHistory, error) { return OpenSQLiteHistory(p) },
		"bolt":   func(p string) (PersistentHistory, error) { return OpenBoltHistory(p) },
	}
}

func TestHistoryStore_AppendRecentTrim(t *testing.T) {
	ctx := context.Background()
	for name, open := range historyBackends() {
		t.Run(name, func(t *testing.T) {
			h, err := open(filepath.Join(t.TempDir(), "history.db"))
			require.NoError(t, err)
			defer h.Close()

			lines, err := h.Recent(ctx, 10)
			require.NoError(t, err)
			assert.Empty(t, lines)

			for i := 1; i <= 5; i++ {
				require.NoError(t, h.Append(ctx, fmt.Sprintf("cmd %d", i)))
			}

			lines, err = h.Recent(ctx, 3)
			require.NoError(t, err)
			assert.Equal(t, []string{"cmd 3", "cmd 4", "cmd 5"}, lines)

			require.NoError(t, h.Trim(ctx, 2))
			lines, err = h.Recent(ctx, 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"cmd 4", "cmd 5"}, lines)

			require.NoError(t, h.Trim(ctx, 10))
			lines, err = h.Recent(ctx, 10)
			require.NoError(t, err)
			assert.Len(t, lines, 2)
		})
	}
}

func TestHistoryStore_EvictionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	for name, open := range historyBackends() {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history.db")

			store, err := open(path)
			require.NoError(t, err)
			hist, err := lineedit.LoadHistory(ctx, store, 3)
			require.NoError(t, err)
			for _, line := range []string{"a", "b", "c", "d"} {
				require.NoError(t, hist.Append(line))
			}
			assert.Equal(t, []string{"b", "c", "d"}, hist.Entries())
			require.NoError(t, store.Close())

			store, err = open(path)
			require.NoError(t, err)
			defer store.Close()
			hist, err = lineedit.LoadHistory(ctx, store, 3)
			require.NoError(t, err)
			assert.Equal(t, []string{"b", "c", "d"}, hist.Entries())
		})
	}
}

func TestOpenHistory(t *testing.T) {
	dir := t.TempDir()

	h, err := OpenHistory(config.SessionConfig{HistoryBackend: "memory"})
	require.NoError(t, err)
	assert.Nil(t, h)

	for _, backend := range []string{"sqlite", "bolt"} {
		h, err := OpenHistory(config.SessionConfig{
			HistoryBackend: backend,
			HistoryPath:    filepath.Join(dir, backend+".db"),
		})
		require.NoError(t, err, backend)
		require.NoError(t, h.Append(context.Background(), "x"))
		require.NoError(t, h.Close())
	}

	_, err = OpenHistory(config.SessionConfig{HistoryBackend: "tape", HistoryPath: filepath.Join(dir, "x")})
	assert.Error(t, err)
}
