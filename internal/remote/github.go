// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/util"
)

// DefaultGitHubURL is the GitHub REST API root.
const DefaultGitHubURL = "https://api.github.com"

// Search results further than this edit distance from the query are dropped.
const maxSearchDistance = 3

// JarContentType is the content type of plugin assets.
const JarContentType = "application/java-archive"

// ErrNoRelease is returned when a repository has no stable release.
var ErrNoRelease = errors.New("no stable release")

// ErrUnknownTag is returned when no release carries the requested tag.
var ErrUnknownTag = errors.New("no release with that tag")

// ErrInvalidRepository is returned for malformed owner/name strings.
var ErrInvalidRepository = errors.New("repository must be owner/name")

// =============================================================================
// TYPES
// =============================================================================

// Repository identifies a GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

// ParseRepository parses "owner/name".
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

// FullName returns "owner/name".
func (r Repository) FullName() string { return r.Owner + "/" + r.Name }

// URL returns the repository web page.
func (r Repository) URL() string { return "https://github.com/" + r.FullName() }

// Value returns the repository as a mapping.
func (r Repository) Value() document.Value {
	return document.Mapping(
		document.Pair("full_name", document.String(r.FullName())),
		document.Pair("url", document.String(r.URL())),
	)
}

// Release is a published release of a repository.
type Release struct {
	ID         int64
	Name       string
	TagName    string
	URL        string
	Draft      bool
	Prerelease bool
}

func releaseFrom(v document.Value) Release {
	return Release{
		ID:         intField(v, "id"),
		Name:       stringField(v, "name"),
		TagName:    stringField(v, "tag_name"),
		URL:        stringField(v, "html_url"),
		Draft:      boolField(v, "draft"),
		Prerelease: boolField(v, "prerelease"),
	}
}

// Value returns the release as a mapping.
func (r Release) Value() document.Value {
	return document.Mapping(
		document.Pair("id", document.Int(r.ID)),
		document.Pair("name", document.String(r.Name)),
		document.Pair("tag_name", document.String(r.TagName)),
		document.Pair("html_url", document.String(r.URL)),
		document.Pair("draft", document.Bool(r.Draft)),
		document.Pair("prerelease", document.Bool(r.Prerelease)),
	)
}

// Asset is a downloadable jar attached to a release.
type Asset struct {
	Name        string
	ContentType string
	DownloadURL string
}

// Value returns the asset as a mapping.
func (a Asset) Value() document.Value {
	return document.Mapping(
		document.Pair("name", document.String(a.Name)),
		document.Pair("content_type", document.String(a.ContentType)),
		document.Pair("browser_download_url", document.String(a.DownloadURL)),
	)
}

// =============================================================================
// GITHUB CLIENT
// =============================================================================

// GitHub talks to the GitHub REST API.
type GitHub struct {
	base string
	c    *client
}

// NewGitHub creates a client. token may be empty for anonymous access.
func NewGitHub(base, token string, opts Options) *GitHub {
	header := make(http.Header)
	header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &GitHub{
		base: strings.TrimRight(base, "/"),
		c:    newClient(opts, header),
	}
}

// Search finds Java repositories whose name is close to name.
func (g *GitHub) Search(ctx context.Context, name string) ([]Repository, error) {
	query := util.Fold(name)
	u := g.base + "/search/repositories?q=" + url.QueryEscape(query) + "+language:java"
	doc, err := g.c.getDocument(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to search repositories: %w", err)
	}

	items, _ := doc.Get("items")
	var repos []Repository
	for _, item := range items.Elements() {
		owner, _ := item.Get("owner")
		repo := Repository{Owner: stringField(owner, "login"), Name: stringField(item, "name")}
		if util.Distance(query, util.Fold(repo.Name)) < maxSearchDistance {
			repos = append(repos, repo)
		}
	}
	return repos, nil
}

// Releases lists the releases of repo, newest first. A missing repository
// has no releases.
func (g *GitHub) Releases(ctx context.Context, repo Repository) ([]Release, error) {
	doc, err := g.c.getDocument(ctx, g.repoURL(repo)+"/releases")
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list releases of %s: %w", repo.FullName(), err)
	}
	releases := make([]Release, 0, doc.Len())
	for _, e := range doc.Elements() {
		releases = append(releases, releaseFrom(e))
	}
	return releases, nil
}

// LatestRelease returns the first release that is neither a draft nor a
// prerelease.
func (g *GitHub) LatestRelease(ctx context.Context, repo Repository) (Release, error) {
	releases, err := g.Releases(ctx, repo)
	if err != nil {
		return Release{}, err
	}
	for _, r := range releases {
		if !r.Draft && !r.Prerelease {
			return r, nil
		}
	}
	return Release{}, fmt.Errorf("%w: %s", ErrNoRelease, repo.FullName())
}

// ReleaseByTag returns the release tagged tag. Drafts and prereleases
// count, so a tag always selects exactly what it names.
func (g *GitHub) ReleaseByTag(ctx context.Context, repo Repository, tag string) (Release, error) {
	u := g.repoURL(repo) + "/releases/tags/" + url.PathEscape(tag)
	doc, err := g.c.getDocument(ctx, u)
	if errors.Is(err, ErrNotFound) {
		return Release{}, fmt.Errorf("%w: %s@%s", ErrUnknownTag, repo.FullName(), tag)
	}
	if err != nil {
		return Release{}, fmt.Errorf("failed to get release %s of %s: %w", tag, repo.FullName(), err)
	}
	return releaseFrom(doc), nil
}

// JarAssets lists the jar assets of a release.
func (g *GitHub) JarAssets(ctx context.Context, repo Repository, releaseID int64) ([]Asset, error) {
	u := fmt.Sprintf("%s/releases/%d/assets", g.repoURL(repo), releaseID)
	doc, err := g.c.getDocument(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}
	var assets []Asset
	for _, e := range doc.Elements() {
		if stringField(e, "content_type") != JarContentType {
			continue
		}
		assets = append(assets, Asset{
			Name:        stringField(e, "name"),
			ContentType: JarContentType,
			DownloadURL: stringField(e, "browser_download_url"),
		})
	}
	return assets, nil
}

func (g *GitHub) repoURL(repo Repository) string {
	return g.base + "/repos/" + url.PathEscape(repo.Owner) + "/" + url.PathEscape(repo.Name)
}
