// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
	"github.com/UnderscoreTud/skript-server-wizard/internal/remote"
	"github.com/UnderscoreTud/skript-server-wizard/internal/setup"
)

// latestVersion stands in for an omitted Paper version or Skript tag when
// later arguments follow.
const latestVersion = "latest"

// ErrNoJarAsset is returned when a release has nothing to install.
var ErrNoJarAsset = errors.New("release has no jar asset")

// handleSetup builds a server folder:
//
//	setup <name> [paper-version] [skript-tag] [owner/repo[@tag]...]
func handleSetup(ctx context.Context, inv *Invocation) (document.Value, error) {
	env := inv.Env
	switch {
	case env.Paper == nil:
		return none, fail(inv, errors.New("paper client not configured"))
	case env.GitHub == nil:
		return none, fail(inv, errors.New("github client not configured"))
	case env.Downloader == nil:
		return none, fail(inv, errors.New("downloader not configured"))
	}
	settings := config.Default().Setup
	if env.Config != nil {
		settings = env.Config.Setup
	}

	name := inv.Args[0]
	if err := setup.ValidName(name); err != nil {
		return none, fail(inv, err)
	}

	skriptRepo, err := remote.ParseRepository(settings.SkriptRepo)
	if err != nil {
		return none, fail(inv, fmt.Errorf("setup.skript_repo: %w", err))
	}
	type addonRef struct {
		repo remote.Repository
		tag  string
	}
	var refs []addonRef
	if len(inv.Args) > 3 {
		for _, arg := range inv.Args[3:] {
			fullName, tag, _ := strings.Cut(arg, "@")
			repo, err := remote.ParseRepository(fullName)
			if err != nil {
				return none, fail(inv, err)
			}
			refs = append(refs, addonRef{repo, tag})
		}
	}

	paperVersion := inv.Arg(1)
	if paperVersion == latestVersion {
		paperVersion = ""
	}
	paper, err := env.Paper.LatestDownload(ctx, paperVersion)
	if err != nil {
		return none, fail(inv, err)
	}

	skript, err := resolvePlugin(ctx, env.GitHub, skriptRepo, inv.Arg(2))
	if err != nil {
		return none, fail(inv, err)
	}
	addons := make([]setup.Plugin, len(refs))
	for i, ref := range refs {
		if addons[i], err = resolvePlugin(ctx, env.GitHub, ref.repo, ref.tag); err != nil {
			return none, fail(inv, err)
		}
	}

	plan := setup.Plan{
		Dir:          filepath.Join(settings.Dir, name),
		PaperVersion: paper.Version,
		PaperBuild:   paper.Build,
		PaperURL:     paper.URL,
		Skript:       skript,
		Addons:       addons,
		Memory:       settings.Memory,
	}
	logging.FromContext(ctx).Info("setting up server",
		"dir", plan.Dir, "paper", paper.Version, "skript", skript.Version, "addons", len(addons))

	installer := &setup.Installer{
		Downloader: env.Downloader,
		Timeout:    time.Duration(settings.DownloadTimeoutSecs) * time.Second,
	}
	res, err := installer.Install(ctx, plan)
	if err != nil {
		return none, fail(inv, err)
	}
	return res.Value(), nil
}

// resolvePlugin picks the release named by tag, or the latest stable one,
// and its first jar asset.
func resolvePlugin(ctx context.Context, gh *remote.GitHub, repo remote.Repository, tag string) (setup.Plugin, error) {
	release, err := findRelease(ctx, gh, repo, tag)
	if err != nil {
		return setup.Plugin{}, err
	}
	assets, err := gh.JarAssets(ctx, repo, release.ID)
	if err != nil {
		return setup.Plugin{}, err
	}
	if len(assets) == 0 {
		return setup.Plugin{}, fmt.Errorf("%w: %s %s", ErrNoJarAsset, repo.FullName(), release.TagName)
	}
	return setup.Plugin{Name: repo.Name, Version: release.TagName, URL: assets[0].DownloadURL}, nil
}

func findRelease(ctx context.Context, gh *remote.GitHub, repo remote.Repository, tag string) (remote.Release, error) {
	if tag == "" || tag == latestVersion {
		return gh.LatestRelease(ctx, repo)
	}
	return gh.ReleaseByTag(ctx, repo, tag)
}
