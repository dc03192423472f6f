// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// =============================================================================
// BOLT HISTORY
// =============================================================================

const bucketHistory = "history"

// BoltHistory stores history lines in a bbolt bucket keyed by a big-endian
// sequence number, so cursor order is insertion order.
type BoltHistory struct {
	db *bolt.DB
}

// OpenBoltHistory opens (creating if needed) the database at path. Opening
// waits at most one second for another process holding the file lock.
func OpenBoltHistory(path string) (*BoltHistory, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketHistory))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history bucket: %w", err)
	}
	return &BoltHistory{db: db}, nil
}

// Recent returns up to limit of the newest lines, oldest first.
func (h *BoltHistory) Recent(_ context.Context, limit int) ([]string, error) {
	var lines []string
	err := h.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketHistory)).Cursor()
		for k, v := c.Last(); k != nil && len(lines) < limit; k, v = c.Prev() {
			lines = append(lines, string(v))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}

// Append records a line under the next sequence number.
func (h *BoltHistory) Append(_ context.Context, line string) error {
	return h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(marshalSeq(seq), []byte(line))
	})
}

// Trim drops everything but the newest keep lines.
func (h *BoltHistory) Trim(_ context.Context, keep int) error {
	return h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketHistory))
		n := b.Stats().KeyN
		if n <= keep {
			return nil
		}
		var stale [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && len(stale) < n-keep; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (h *BoltHistory) Close() error {
	return h.db.Close()
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
