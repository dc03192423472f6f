// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
)

// MemoryStore keeps documents in process memory. Values are immutable, so
// they are shared without copying.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]document.Value
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]document.Value)}
}

// Put stores v under name.
func (s *MemoryStore) Put(_ context.Context, name string, v document.Value) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = v
	return nil
}

// Get returns the document stored under name.
func (s *MemoryStore) Get(_ context.Context, name string) (document.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.docs[name]
	if !ok {
		return document.Value{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return v, nil
}

// Delete removes name.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.docs, name)
	return nil
}

// List returns the stored names in lexicographic order.
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
