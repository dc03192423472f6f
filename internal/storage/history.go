// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/lineedit"
)

// PersistentHistory is a lineedit.HistoryStore that holds an open database.
type PersistentHistory interface {
	lineedit.HistoryStore
	io.Closer
}

// OpenHistory opens the history backend selected by cfg.HistoryBackend.
// The memory backend returns nil: the History keeps lines only in memory.
func OpenHistory(cfg config.SessionConfig) (PersistentHistory, error) {
	backend := strings.ToLower(cfg.HistoryBackend)
	if backend == "memory" {
		return nil, nil
	}

	path := cfg.HistoryPath
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		name := "history.db"
		if backend == "bolt" {
			name = "history.bolt"
		}
		path = filepath.Join(dir, name)
	}

	switch backend {
	case "sqlite", "":
		h, err := OpenSQLiteHistory(path)
		if err != nil {
			return nil, err
		}
		return h, nil
	case "bolt":
		h, err := OpenBoltHistory(path)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}
