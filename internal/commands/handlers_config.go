// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
)

// ErrStartupSetting is returned when a session tries to change a setting
// that is only read when the wizard starts.
var ErrStartupSetting = errors.New("setting is read at startup")

// liveSections are the config sections read on every use.
var liveSections = map[string]bool{"ui": true, "setup": true}

func liveKey(key string) bool {
	section, _, _ := strings.Cut(key, ".")
	section = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(section)), "-", "_")
	return liveSections[section]
}

// handleConfig shows the session's settings, one key, or changes a key.
// Changes apply to this session only and must leave the settings valid.
func handleConfig(ctx context.Context, inv *Invocation) (document.Value, error) {
	cfg := inv.Env.Config
	if cfg == nil {
		return none, fail(inv, errors.New("no configuration loaded"))
	}

	switch len(inv.Args) {
	case 0:
		return cfg.Redacted().Document(), nil
	case 1:
		v, err := cfg.Redacted().Get(inv.Args[0])
		if err != nil {
			return none, fail(inv, err)
		}
		return v, nil
	}

	key, value := inv.Args[0], inv.Args[1]
	if !liveKey(key) {
		return none, fail(inv, fmt.Errorf("%w: %s; change it in the config file", ErrStartupSetting, key))
	}
	candidate := cfg.Clone()
	if err := candidate.Set(key, value); err != nil {
		return none, fail(inv, err)
	}
	if err := candidate.Validate(); err != nil {
		return none, fail(inv, err)
	}
	*cfg = *candidate
	logging.FromContext(ctx).Debug("config changed", "key", key)
	return cfg.Redacted().Get(key)
}

func handleSchema(_ context.Context, inv *Invocation) (document.Value, error) {
	s, err := config.Schema()
	if err != nil {
		return none, fail(inv, err)
	}
	return s, nil
}
