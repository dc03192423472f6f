// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/util"
)

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps one indented JSON file per document in a directory.
type FileStore struct {
	// BaseDir is the directory holding <name>.json files.
	BaseDir string
}

// NewFileStore creates a store rooted at dir, creating the directory.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document directory: %w", err)
	}
	return &FileStore{BaseDir: dir}, nil
}

func (s *FileStore) filePath(name string) string {
	return filepath.Join(s.BaseDir, name+".json")
}

// Put writes v atomically.
func (s *FileStore) Put(_ context.Context, name string, v document.Value) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data := document.Indent(v, "", "  ") + "\n"
	if err := util.AtomicWriteFile(s.filePath(name), []byte(data), 0644); err != nil {
		return fmt.Errorf("failed to save document %s: %w", name, err)
	}
	return nil
}

// Get reads and parses the document. A file that no longer parses fails
// with document.ErrMalformedDocument.
func (s *FileStore) Get(_ context.Context, name string) (document.Value, error) {
	if err := ValidateName(name); err != nil {
		return document.Value{}, err
	}
	data, err := os.ReadFile(s.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return document.Value{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return document.Value{}, err
	}
	v, err := document.Parse(string(data))
	if err != nil {
		return document.Value{}, fmt.Errorf("document %s: %w", name, err)
	}
	return v, nil
}

// Delete removes the document file.
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.filePath(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	return nil
}

// List returns the names of all stored documents.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
