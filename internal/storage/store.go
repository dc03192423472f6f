// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	backend "github.com/redis/go-redis/v9"

	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
)

// =============================================================================
// DOCUMENT STORE
// =============================================================================

// ErrNotFound is returned when a named document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrInvalidName is returned for document names that cannot be stored.
var ErrInvalidName = errors.New("invalid document name")

// MaxNameLength bounds document names.
const MaxNameLength = 64

// DocumentStore persists documents by name.
type DocumentStore interface {
	Put(ctx context.Context, name string, v document.Value) error
	Get(ctx context.Context, name string) (document.Value, error)
	Delete(ctx context.Context, name string) error
	// List returns the stored names in lexicographic order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// ValidateName checks that name is usable as a file name and a redis key
// suffix: letters, digits, '-', '_' and '.', not starting with '.'.
func ValidateName(name string) error {
	if name == "" || len(name) > MaxNameLength || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.') {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// Open returns the document store selected by cfg.Backend. The redis backend
// is pinged so that an unreachable server fails at startup.
func Open(ctx context.Context, cfg config.StoreConfig) (DocumentStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		dir := cfg.Dir
		if dir == "" {
			base, err := config.ConfigDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(base, "docs")
		}
		return NewFileStore(dir)
	case "redis":
		client := backend.NewClient(&backend.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return NewRedisStore(client,
			WithPrefix(cfg.RedisPrefix),
			WithTTL(time.Duration(cfg.TTLSecs)*time.Second),
		), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
