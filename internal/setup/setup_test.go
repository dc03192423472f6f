// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package setup

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnderscoreTud/skript-server-wizard/internal/remote"
)

const defaultSkriptConfig = `effect commands:
	enable effect commands: false
	allow ops to use effect commands: false
databases:
	default:
		type: CSV
		pattern: .*
		file: ./plugins/Skript/variables.csv
`

// jar builds a zip archive holding the given entries.
func jar(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newJarServer(t *testing.T, skript []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/paper.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("paper"))
	})
	mux.HandleFunc("/Skript.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Write(skript)
	})
	mux.HandleFunc("/skript-reflect.jar", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("reflect"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testPlan(dir, base string) Plan {
	return Plan{
		Dir:          dir,
		PaperVersion: "1.21",
		PaperBuild:   130,
		PaperURL:     base + "/paper.jar",
		Skript:       Plugin{Name: "Skript", Version: "2.9.0", URL: base + "/Skript.jar"},
		Addons: []Plugin{
			{Name: "skript-reflect", Version: "2.5", URL: base + "/skript-reflect.jar"},
		},
		Memory: "4G",
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// =============================================================================
// INSTALL
// =============================================================================

func TestInstall_WritesServerFolder(t *testing.T) {
	srv := newJarServer(t, jar(t, map[string]string{"config.sk": defaultSkriptConfig, "plugin.yml": "name: Skript"}))
	dir := filepath.Join(t.TempDir(), "test")
	in := &Installer{Downloader: remote.NewDownloader(remote.Options{}), Timeout: 5 * time.Second}

	res, err := in.Install(context.Background(), testPlan(dir, srv.URL))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.ElementsMatch(t, []string{
		"server.jar",
		"plugins/Skript-2.9.0.jar",
		"plugins/skript-reflect-2.5.jar",
		"plugins/Skript/config.sk",
		"eula.txt", "run.bat", "run.sh",
	}, res.Files)

	assert.Equal(t, "paper", readFile(t, filepath.Join(dir, "server.jar")))
	assert.Equal(t, "reflect", readFile(t, filepath.Join(dir, "plugins", "skript-reflect-2.5.jar")))
	assert.Equal(t, "eula=true", readFile(t, filepath.Join(dir, "eula.txt")))
	assert.Equal(t,
		"java -Xmx4G -agentlib:jdwp=transport=dt_socket,server=y,suspend=n,address=*:5005 -jar server.jar nogui\nPAUSE",
		readFile(t, filepath.Join(dir, "run.bat")))

	config := readFile(t, filepath.Join(dir, "plugins", "Skript", "config.sk"))
	assert.Contains(t, config, "enable effect commands: true")
	assert.Contains(t, config, "allow ops to use effect commands: true")
	assert.Contains(t, config, "pattern: (?!-).*")
	assert.NotContains(t, config, ": false")
}

func TestInstall_MissingSkriptConfigIsWarning(t *testing.T) {
	srv := newJarServer(t, jar(t, map[string]string{"plugin.yml": "name: Skript"}))
	dir := filepath.Join(t.TempDir(), "test")
	in := &Installer{Downloader: remote.NewDownloader(remote.Options{})}

	res, err := in.Install(context.Background(), testPlan(dir, srv.URL))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "config.sk")

	_, err = os.Stat(filepath.Join(dir, "plugins", "Skript", "config.sk"))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(dir, "eula.txt"))
}

func TestInstall_FailureRemovesFolder(t *testing.T) {
	srv := newJarServer(t, jar(t, map[string]string{"config.sk": defaultSkriptConfig}))
	dir := filepath.Join(t.TempDir(), "test")
	plan := testPlan(dir, srv.URL)
	plan.Addons = append(plan.Addons, Plugin{Name: "missing", Version: "1.0", URL: srv.URL + "/missing.jar"})

	_, err := (&Installer{Downloader: remote.NewDownloader(remote.Options{})}).Install(context.Background(), plan)
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrNotFound)
	assert.NoDirExists(t, dir)
}

func TestInstall_CorruptSkriptJarFails(t *testing.T) {
	srv := newJarServer(t, []byte("not a zip"))
	dir := filepath.Join(t.TempDir(), "test")

	_, err := (&Installer{Downloader: remote.NewDownloader(remote.Options{})}).Install(context.Background(), testPlan(dir, srv.URL))
	require.Error(t, err)
	assert.NoDirExists(t, dir)
}

func TestInstall_ExistingFolderIsKept(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "test")
	require.NoError(t, os.Mkdir(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "world.dat"), []byte("keep"), 0644))

	_, err := (&Installer{Downloader: remote.NewDownloader(remote.Options{})}).Install(context.Background(), testPlan(dir, "http://unused"))
	assert.ErrorIs(t, err, ErrServerExists)
	assert.Equal(t, "keep", readFile(t, filepath.Join(dir, "world.dat")))
}

func TestInstall_DuplicateAddonsSkipped(t *testing.T) {
	srv := newJarServer(t, jar(t, map[string]string{"config.sk": defaultSkriptConfig}))
	dir := filepath.Join(t.TempDir(), "test")
	plan := testPlan(dir, srv.URL)
	plan.Addons = append(plan.Addons, Plugin{Name: "Skript-Reflect", Version: "2.4", URL: srv.URL + "/skript-reflect.jar"})

	res, err := (&Installer{Downloader: remote.NewDownloader(remote.Options{})}).Install(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"duplicate plugin Skript-Reflect skipped"}, res.Warnings)
	assert.NoFileExists(t, filepath.Join(dir, "plugins", "Skript-Reflect-2.4.jar"))
}

// =============================================================================
// HELPERS
// =============================================================================

func TestValidName(t *testing.T) {
	for _, name := range []string{"test", "my-server", "Server 1"} {
		assert.NoError(t, ValidName(name), name)
	}
	for _, name := range []string{"", "  ", "..", "../up", "a/b", `a\b`, "/abs"} {
		assert.ErrorIs(t, ValidName(name), ErrInvalidName, name)
	}
}

func TestPatchSkriptConfig(t *testing.T) {
	got := PatchSkriptConfig(defaultSkriptConfig)
	assert.Equal(t, `effect commands:
	enable effect commands: true
	allow ops to use effect commands: true
databases:
	default:
		type: CSV
		pattern: (?!-).*
		file: ./plugins/Skript/variables.csv
`, got)
	assert.Equal(t, got, PatchSkriptConfig(got), "patching twice changes nothing")
}

func TestScripts(t *testing.T) {
	assert.Equal(t,
		"java -Xmx2G -agentlib:jdwp=transport=dt_socket,server=y,suspend=n,address=*:5005 -jar server.jar nogui\nPAUSE",
		RunScript(""))
	assert.Contains(t, ShellScript("1G"), "exec java -Xmx1G ")
}
