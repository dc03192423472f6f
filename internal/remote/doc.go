// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package remote provides rate limited clients for the PaperMC downloads API
// and the GitHub REST API.
//
// Responses are parsed with the document package, so every value a client
// returns can be handed straight back to the shell as a document.Value.
//
// Usage:
//
//	paper := remote.NewPaper(remote.DefaultPaperURL, remote.Options{RequestsPerSecond: 2})
//	versions, err := paper.Versions(ctx)
//
//	gh := remote.NewGitHub(remote.DefaultGitHubURL, token, remote.Options{})
//	repos, err := gh.Search(ctx, "skript")
package remote
