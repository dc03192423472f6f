// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package setup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"
)

// SkriptConfigEntry is the jar entry holding Skript's default config.
const SkriptConfigEntry = "config.sk"

// maxConfigSize bounds the config.sk read out of a jar.
const maxConfigSize = 4 * 1024 * 1024

// ErrNoSkriptConfig is returned when a Skript jar has no config.sk.
var ErrNoSkriptConfig = errors.New("skript jar has no " + SkriptConfigEntry)

// testServerSettings turns on effect commands for ops and keeps variables
// whose names start with "-" out of the variable database.
var testServerSettings = strings.NewReplacer(
	"enable effect commands: false", "enable effect commands: true",
	"allow ops to use effect commands: false", "allow ops to use effect commands: true",
	"pattern: .*", "pattern: (?!-).*",
)

// PatchSkriptConfig applies the test server settings to a config.sk.
func PatchSkriptConfig(content string) string {
	return testServerSettings.Replace(content)
}

// ReadSkriptConfig returns the config.sk packed in the jar at path.
func ReadSkriptConfig(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != SkriptConfigEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s in %s: %w", SkriptConfigEntry, path, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, maxConfigSize))
		if err != nil {
			return "", fmt.Errorf("read %s in %s: %w", SkriptConfigEntry, path, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoSkriptConfig, path)
}
