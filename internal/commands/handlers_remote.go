// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/remote"
)

// ErrUnknownSubcommand is returned for an unrecognized first argument of a
// command with subcommands.
var ErrUnknownSubcommand = errors.New("unknown subcommand")

// subArity checks the argument count of a subcommand, counting the
// subcommand itself.
func subArity(inv *Invocation, arity Arity, usage string) error {
	n := len(inv.Args) - 1
	if arity.Accepts(n) {
		return nil
	}
	return &ArityError{
		Command: inv.Command.Name + " " + inv.Args[0],
		Arity:   arity,
		Got:     n,
		Usage:   usage,
	}
}

// =============================================================================
// PAPER
// =============================================================================

func handlePaper(ctx context.Context, inv *Invocation) (document.Value, error) {
	paper := inv.Env.Paper
	if paper == nil {
		return none, fail(inv, errors.New("paper client not configured"))
	}

	switch sub := inv.Args[0]; sub {
	case "versions":
		if err := subArity(inv, None(), "paper versions"); err != nil {
			return none, err
		}
		versions, err := paper.Versions(ctx)
		if err != nil {
			return none, fail(inv, err)
		}
		return document.Strings(versions), nil

	case "builds":
		if err := subArity(inv, Exactly(1), "paper builds <version>"); err != nil {
			return none, err
		}
		builds, err := paper.Builds(ctx, inv.Args[1])
		if err != nil {
			return none, fail(inv, err)
		}
		seq := make([]document.Value, len(builds))
		for i, b := range builds {
			seq[i] = document.Int(b)
		}
		return document.Sequence(seq...), nil

	case "latest":
		d, err := paper.LatestDownload(ctx, inv.Arg(1))
		if err != nil {
			return none, fail(inv, err)
		}
		return d.Value(), nil

	default:
		return none, fail(inv, fmt.Errorf("%w %q", ErrUnknownSubcommand, sub))
	}
}

// =============================================================================
// GITHUB
// =============================================================================

func handleGitHub(ctx context.Context, inv *Invocation) (document.Value, error) {
	gh := inv.Env.GitHub
	if gh == nil {
		return none, fail(inv, errors.New("github client not configured"))
	}

	sub := inv.Args[0]
	switch sub {
	case "search":
		if err := subArity(inv, Exactly(1), "github search <name>"); err != nil {
			return none, err
		}
		repos, err := gh.Search(ctx, inv.Args[1])
		if err != nil {
			return none, fail(inv, err)
		}
		seq := make([]document.Value, len(repos))
		for i, r := range repos {
			seq[i] = r.Value()
		}
		return document.Sequence(seq...), nil
	case "releases", "latest", "tag", "assets":
	default:
		return none, fail(inv, fmt.Errorf("%w %q", ErrUnknownSubcommand, sub))
	}

	repo, err := remote.ParseRepository(inv.Args[1])
	if err != nil {
		return none, fail(inv, err)
	}

	switch sub {
	case "releases":
		if err := subArity(inv, Exactly(1), "github releases <owner/repo>"); err != nil {
			return none, err
		}
		releases, err := gh.Releases(ctx, repo)
		if err != nil {
			return none, fail(inv, err)
		}
		seq := make([]document.Value, len(releases))
		for i, r := range releases {
			seq[i] = r.Value()
		}
		return document.Sequence(seq...), nil

	case "latest":
		if err := subArity(inv, Exactly(1), "github latest <owner/repo>"); err != nil {
			return none, err
		}
		release, err := gh.LatestRelease(ctx, repo)
		if err != nil {
			return none, fail(inv, err)
		}
		return release.Value(), nil

	case "tag":
		if err := subArity(inv, Exactly(2), "github tag <owner/repo> <tag>"); err != nil {
			return none, err
		}
		release, err := gh.ReleaseByTag(ctx, repo, inv.Args[2])
		if err != nil {
			return none, fail(inv, err)
		}
		return release.Value(), nil

	default: // assets
		if err := subArity(inv, Exactly(2), "github assets <owner/repo> <release-id|tag>"); err != nil {
			return none, err
		}
		id, err := strconv.ParseInt(inv.Args[2], 10, 64)
		if err != nil {
			release, tagErr := gh.ReleaseByTag(ctx, repo, inv.Args[2])
			if tagErr != nil {
				return none, fail(inv, tagErr)
			}
			id = release.ID
		}
		assets, err := gh.JarAssets(ctx, repo, id)
		if err != nil {
			return none, fail(inv, err)
		}
		seq := make([]document.Value, len(assets))
		for i, a := range assets {
			seq[i] = a.Value()
		}
		return document.Sequence(seq...), nil
	}
}
