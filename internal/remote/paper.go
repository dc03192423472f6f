// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
)

// DefaultPaperURL is the PaperMC v2 project endpoint.
const DefaultPaperURL = "https://papermc.io/api/v2/projects/paper"

// ErrNoVersions is returned when the project lists no versions.
var ErrNoVersions = errors.New("no paper versions available")

// ErrNoBuilds is returned when a version has no builds.
var ErrNoBuilds = errors.New("version has no builds")

// =============================================================================
// PAPER CLIENT
// =============================================================================

// Paper talks to the PaperMC downloads API. The version list is fetched once
// and cached for the life of the client.
type Paper struct {
	base string
	c    *client

	mu       sync.Mutex
	versions []string
}

// NewPaper creates a client for the project at base.
func NewPaper(base string, opts Options) *Paper {
	return &Paper{
		base: strings.TrimRight(base, "/"),
		c:    newClient(opts, nil),
	}
}

// Versions returns every published version, oldest first.
func (p *Paper) Versions(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	cached := p.versions
	p.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	doc, err := p.c.getDocument(ctx, p.base)
	if err != nil {
		return nil, fmt.Errorf("failed to get versions: %w", err)
	}
	list, ok := doc.Get("versions")
	if !ok || list.Kind() != document.KindSequence {
		return nil, fmt.Errorf("failed to get versions: response has no versions array")
	}
	versions := make([]string, 0, list.Len())
	for _, e := range list.Elements() {
		if s, ok := e.AsString(); ok {
			versions = append(versions, s)
		}
	}

	p.mu.Lock()
	p.versions = versions
	p.mu.Unlock()
	return versions, nil
}

// LatestVersion returns the last listed version.
func (p *Paper) LatestVersion(ctx context.Context) (string, error) {
	versions, err := p.Versions(ctx)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", ErrNoVersions
	}
	return versions[len(versions)-1], nil
}

// Builds returns the build numbers of version, oldest first. An unknown
// version has no builds.
func (p *Paper) Builds(ctx context.Context, version string) ([]int64, error) {
	doc, err := p.c.getDocument(ctx, p.versionURL(version))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get builds of %s: %w", version, err)
	}
	list, _ := doc.Get("builds")
	builds := make([]int64, 0, list.Len())
	for _, e := range list.Elements() {
		if n, ok := e.AsInt(); ok {
			builds = append(builds, n)
		}
	}
	return builds, nil
}

// Valid reports whether version has at least one build.
func (p *Paper) Valid(ctx context.Context, version string) (bool, error) {
	builds, err := p.Builds(ctx, version)
	if err != nil {
		return false, err
	}
	return len(builds) > 0, nil
}

// Download describes the newest jar of a version.
type Download struct {
	Version string
	Build   int64
	URL     string
}

// Value returns the download as a mapping.
func (d Download) Value() document.Value {
	return document.Mapping(
		document.Pair("version", document.String(d.Version)),
		document.Pair("build", document.Int(d.Build)),
		document.Pair("url", document.String(d.URL)),
	)
}

// LatestDownload resolves the newest build of version. An empty version
// means the latest version.
func (p *Paper) LatestDownload(ctx context.Context, version string) (Download, error) {
	if version == "" {
		v, err := p.LatestVersion(ctx)
		if err != nil {
			return Download{}, err
		}
		version = v
	}
	builds, err := p.Builds(ctx, version)
	if err != nil {
		return Download{}, err
	}
	if len(builds) == 0 {
		return Download{}, fmt.Errorf("%w: %s", ErrNoBuilds, version)
	}
	build := builds[len(builds)-1]
	return Download{
		Version: version,
		Build:   build,
		URL:     p.DownloadURL(version, build),
	}, nil
}

// DownloadURL returns the jar URL of a build.
func (p *Paper) DownloadURL(version string, build int64) string {
	name := fmt.Sprintf("paper-%s-%d.jar", version, build)
	return fmt.Sprintf("%s/builds/%d/downloads/%s", p.versionURL(version), build, name)
}

func (p *Paper) versionURL(version string) string {
	return p.base + "/versions/" + url.PathEscape(version)
}
