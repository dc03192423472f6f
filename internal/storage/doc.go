// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides persistence for saved documents and line history.
//
// # Key Types
//
//   - DocumentStore: named document persistence (memory, file, redis)
//   - SQLiteHistory, BoltHistory: lineedit.HistoryStore implementations
//
// # Usage
//
// Open the configured document store:
//
//	store, err := storage.Open(ctx, cfg.Store)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	err = store.Put(ctx, "server", value)
//
// Open a persistent history:
//
//	hs, err := storage.OpenHistory(cfg.Session)
//	history, err := lineedit.LoadHistory(ctx, hs, cfg.Session.HistoryCapacity)
//
// # Storage Location
//
// Files live under ~/.skript-wizard/ unless the configuration says otherwise.
package storage
