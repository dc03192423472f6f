// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the wizard.
//
// TOML, JSON and YAML files are supported, with defaults, environment
// variable overrides and validation. JSON files are parsed with the document
// model, so a malformed config document fails the same way a malformed
// command argument does.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (WIZARD_*)
//   - ~/.skript-wizard/config.toml
//   - ~/.skript-wizard/config.json
//   - ~/.skript-wizard/config.yaml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Read and change settings by dotted key:
//
//	v, _ := cfg.Get("ui.indent")
//	_ = cfg.Set("session.prompt", "> ")
//
// Reload on change:
//
//	go config.Watch(ctx, path, 0, func(cfg *config.Config, err error) { ... })
package config
