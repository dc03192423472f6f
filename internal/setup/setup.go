// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
	"github.com/UnderscoreTud/skript-server-wizard/internal/util"
)

// Files written into every server folder.
const (
	ServerJar  = "server.jar"
	EulaFile   = "eula.txt"
	RunBatch   = "run.bat"
	RunShell   = "run.sh"
	PluginsDir = "plugins"

	// DefaultMemory is the heap size used when a plan leaves it empty.
	DefaultMemory = "2G"

	// DebugPort is where the run scripts expose the JDWP agent.
	DebugPort = 5005
)

// maxParallelDownloads bounds concurrent jar downloads.
const maxParallelDownloads = 4

var (
	// ErrServerExists is returned when the server folder already exists.
	ErrServerExists = errors.New("server folder already exists")

	// ErrInvalidName is returned for server names that are not a single
	// local path element.
	ErrInvalidName = errors.New("invalid server name")
)

// ValidName checks that name can be used as a server folder name.
func ValidName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if !filepath.IsLocal(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q must be a plain folder name", ErrInvalidName, name)
	}
	return nil
}

// =============================================================================
// PLAN
// =============================================================================

// Plugin is a jar dropped into plugins/.
type Plugin struct {
	Name    string
	Version string
	URL     string
}

// FileName returns "<name>-<version>.jar".
func (p Plugin) FileName() string {
	return p.Name + "-" + p.Version + ".jar"
}

// Plan describes one server folder.
type Plan struct {
	// Dir is the server folder. It must not exist yet.
	Dir string

	PaperVersion string
	PaperBuild   int64
	PaperURL     string

	Skript Plugin
	Addons []Plugin

	// Memory is the -Xmx value for the run scripts.
	Memory string
}

// plugins returns Skript followed by the addons, first occurrence of each
// name winning.
func (p Plan) plugins() (kept []Plugin, dropped []string) {
	seen := make(map[string]bool, len(p.Addons)+1)
	for _, pl := range append([]Plugin{p.Skript}, p.Addons...) {
		key := strings.ToLower(pl.Name)
		if seen[key] {
			dropped = append(dropped, pl.Name)
			continue
		}
		seen[key] = true
		kept = append(kept, pl)
	}
	return kept, dropped
}

// RunScript returns the Windows start script.
func RunScript(memory string) string {
	return javaCommand(memory) + "\nPAUSE"
}

// ShellScript returns the POSIX start script.
func ShellScript(memory string) string {
	return "#!/bin/sh\ncd \"$(dirname \"$0\")\"\nexec " + javaCommand(memory) + "\n"
}

func javaCommand(memory string) string {
	if memory == "" {
		memory = DefaultMemory
	}
	return fmt.Sprintf("java -Xmx%s -agentlib:jdwp=transport=dt_socket,server=y,suspend=n,address=*:%d -jar %s nogui",
		memory, DebugPort, ServerJar)
}

// =============================================================================
// INSTALLER
// =============================================================================

// Downloader fetches url into path.
type Downloader interface {
	Download(ctx context.Context, url, path string) (int64, error)
}

// Installer carries out plans.
type Installer struct {
	Downloader Downloader

	// Timeout bounds each download. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Result reports what Install wrote.
type Result struct {
	Dir          string
	PaperVersion string
	PaperBuild   int64
	Plugins      []Plugin
	Files        []string
	Warnings     []string
}

// Value returns the result as a mapping.
func (r Result) Value() document.Value {
	plugins := make([]document.Value, len(r.Plugins))
	for i, p := range r.Plugins {
		plugins[i] = document.Mapping(
			document.Pair("name", document.String(p.Name)),
			document.Pair("version", document.String(p.Version)),
			document.Pair("file", document.String(p.FileName())),
		)
	}
	return document.Mapping(
		document.Pair("dir", document.String(r.Dir)),
		document.Pair("paper", document.Mapping(
			document.Pair("version", document.String(r.PaperVersion)),
			document.Pair("build", document.Int(r.PaperBuild)),
		)),
		document.Pair("plugins", document.Sequence(plugins...)),
		document.Pair("files", document.Strings(r.Files)),
		document.Pair("warnings", document.Strings(r.Warnings)),
	)
}

// Install creates the server folder described by plan. If any step fails
// the folder is removed again, so a failed install leaves nothing behind.
func (in *Installer) Install(ctx context.Context, plan Plan) (res Result, err error) {
	logger := logging.FromContext(ctx).With("server", plan.Dir)
	if in.Downloader == nil {
		return Result{}, errors.New("no downloader configured")
	}

	if err := os.MkdirAll(filepath.Dir(plan.Dir), 0755); err != nil {
		return Result{}, fmt.Errorf("create parent of %s: %w", plan.Dir, err)
	}
	if err := os.Mkdir(plan.Dir, 0755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrServerExists, plan.Dir)
		}
		return Result{}, fmt.Errorf("create server folder: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		logger.Warn("setup failed, removing server folder", "error", err)
		if rmErr := os.RemoveAll(plan.Dir); rmErr != nil {
			err = errors.Join(err, fmt.Errorf("clean up %s: %w", plan.Dir, rmErr))
		}
		res = Result{}
	}()

	res.Dir = plan.Dir
	res.PaperVersion, res.PaperBuild = plan.PaperVersion, plan.PaperBuild
	plugins := filepath.Join(plan.Dir, PluginsDir)
	if err := os.Mkdir(plugins, 0755); err != nil {
		return res, fmt.Errorf("create plugins folder: %w", err)
	}
	logger.Info("server folder created")

	kept, dropped := plan.plugins()
	res.Plugins = kept
	for _, name := range dropped {
		res.Warnings = append(res.Warnings, fmt.Sprintf("duplicate plugin %s skipped", name))
	}

	jobs := []struct{ url, rel string }{{plan.PaperURL, ServerJar}}
	for _, pl := range kept {
		jobs = append(jobs, struct{ url, rel string }{pl.URL, filepath.Join(PluginsDir, pl.FileName())})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDownloads)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			dctx, cancel := in.downloadContext(gctx)
			defer cancel()
			n, err := in.Downloader.Download(dctx, job.url, filepath.Join(plan.Dir, job.rel))
			if err != nil {
				return fmt.Errorf("%s: %w", job.rel, err)
			}
			logger.Info("downloaded", "file", job.rel, "bytes", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	for _, job := range jobs {
		res.Files = append(res.Files, filepath.ToSlash(job.rel))
	}

	warning, err := in.configureSkript(plugins, plan.Skript)
	if err != nil {
		return res, err
	}
	if warning != "" {
		logger.Warn(warning)
		res.Warnings = append(res.Warnings, warning)
	} else {
		res.Files = append(res.Files, PluginsDir+"/Skript/"+SkriptConfigEntry)
	}

	scripts := []struct {
		name    string
		content string
		perm    os.FileMode
	}{
		{EulaFile, "eula=true", 0644},
		{RunBatch, RunScript(plan.Memory), 0644},
		{RunShell, ShellScript(plan.Memory), 0755},
	}
	for _, s := range scripts {
		if err := util.AtomicWriteFile(filepath.Join(plan.Dir, s.name), []byte(s.content), s.perm); err != nil {
			return res, err
		}
		res.Files = append(res.Files, s.name)
	}

	logger.Info("server setup complete", "files", len(res.Files))
	return res, nil
}

// configureSkript writes the patched config.sk. A jar without one is not
// fatal; Skript writes its own default on first start.
func (in *Installer) configureSkript(plugins string, skript Plugin) (string, error) {
	content, err := ReadSkriptConfig(filepath.Join(plugins, skript.FileName()))
	if errors.Is(err, ErrNoSkriptConfig) {
		return fmt.Sprintf("%s not found in %s, effect commands stay disabled", SkriptConfigEntry, skript.FileName()), nil
	}
	if err != nil {
		return "", err
	}
	target := filepath.Join(plugins, "Skript", SkriptConfigEntry)
	if err := util.AtomicWriteFile(target, []byte(PatchSkriptConfig(content)), 0644); err != nil {
		return "", err
	}
	return "", nil
}

func (in *Installer) downloadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if in.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, in.Timeout)
}
