// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SQLITE HISTORY
// =============================================================================

// SQLiteHistory stores history lines in a sqlite table ordered by rowid.
type SQLiteHistory struct {
	db *sql.DB
}

// OpenSQLiteHistory opens (creating if needed) the database at path.
func OpenSQLiteHistory(path string) (*SQLiteHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS history (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		line TEXT NOT NULL,
		at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteHistory{db: db}, nil
}

// Recent returns up to limit of the newest lines, oldest first.
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]string, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT line FROM (SELECT id, line FROM history ORDER BY id DESC LIMIT ?) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Append records a line.
func (h *SQLiteHistory) Append(ctx context.Context, line string) error {
	if _, err := h.db.ExecContext(ctx, `INSERT INTO history (line) VALUES (?)`, line); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// Trim drops everything but the newest keep lines.
func (h *SQLiteHistory) Trim(ctx context.Context, keep int) error {
	_, err := h.db.ExecContext(ctx,
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}
	return nil
}

// Close closes the database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
