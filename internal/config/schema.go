// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
)

// Schema returns the JSON schema describing the configuration document.
func Schema() (document.Value, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	s := r.Reflect(&Config{})
	s.Title = "skript-wizard configuration"

	// jsonschema.Schema only knows how to marshal itself through encoding/json.
	data, err := json.Marshal(s)
	if err != nil {
		return document.Value{}, fmt.Errorf("failed to encode schema: %w", err)
	}
	return document.Parse(string(data))
}
