// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
	"github.com/UnderscoreTud/skript-server-wizard/internal/storage"
)

// ErrNoStore is returned by store commands when no document store is open.
var ErrNoStore = errors.New("no document store configured")

func store(inv *Invocation) (storage.DocumentStore, error) {
	if inv.Env.Store == nil {
		return nil, fail(inv, ErrNoStore)
	}
	return inv.Env.Store, nil
}

// handleSave stores a variable, or the last result when no name is given.
func handleSave(ctx context.Context, inv *Invocation) (document.Value, error) {
	s, err := store(inv)
	if err != nil {
		return none, err
	}
	doc := inv.Args[0]

	var v document.Value
	if len(inv.Args) == 2 {
		if v, err = variable(inv, inv.Args[1]); err != nil {
			return none, err
		}
	} else {
		v = inv.State.Last()
		if !v.IsValid() {
			return none, fail(inv, ErrNoResult)
		}
	}

	if err := s.Put(ctx, doc, v); err != nil {
		return none, fail(inv, err)
	}
	logging.FromContext(ctx).Info("document saved", "doc", doc)
	return document.String(fmt.Sprintf("saved %s", doc)), nil
}

// handleLoad reads a stored document into a variable named after the
// document unless a name is given.
func handleLoad(ctx context.Context, inv *Invocation) (document.Value, error) {
	s, err := store(inv)
	if err != nil {
		return none, err
	}
	doc := inv.Args[0]
	name := doc
	if len(inv.Args) == 2 {
		name = inv.Args[1]
	}

	v, err := s.Get(ctx, doc)
	if err != nil {
		return none, fail(inv, err)
	}
	inv.State.SetVar(name, v)
	return v, nil
}

func handleDocs(ctx context.Context, inv *Invocation) (document.Value, error) {
	s, err := store(inv)
	if err != nil {
		return none, err
	}
	names, err := s.List(ctx)
	if err != nil {
		return none, fail(inv, err)
	}
	return document.Strings(names), nil
}

func handleDrop(ctx context.Context, inv *Invocation) (document.Value, error) {
	s, err := store(inv)
	if err != nil {
		return none, err
	}
	if err := s.Delete(ctx, inv.Args[0]); err != nil {
		return none, fail(inv, err)
	}
	return none, nil
}
