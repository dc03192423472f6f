// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Health checks for a wizard installation.
//
// Command: doctor
// Short:   Run health checks and diagnostics
//
// Health Checks Performed:
//   1. Config Valid      - the config file loads and validates
//   2. Config Directory  - ~/.skript-wizard is writable
//   3. Document Store    - the configured store opens and lists
//   4. History Backend   - the configured history database opens
//   5. Paper API         - the Paper API answers with a version list
//   6. GitHub Token      - a token is configured (optional)
//
// Exit Codes:
//   0   All checks passed (warnings allowed)
//   1   One or more checks failed

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/UnderscoreTud/skript-server-wizard/internal/config"
	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/logging"
	"github.com/UnderscoreTud/skript-server-wizard/internal/remote"
	"github.com/UnderscoreTud/skript-server-wizard/internal/storage"
	"github.com/UnderscoreTud/skript-server-wizard/internal/util"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the lower-case name of the status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // Suggested fix
}

// Render formats the check with styles, padding the name to nameWidth
// columns and truncating the message to fit width.
func (c *HealthCheck) Render(st Styles, nameWidth, width int) string {
	var symbol string
	switch c.Status {
	case CheckPass:
		symbol = st.Success.Render("[OK]")
	case CheckWarn:
		symbol = st.Warning.Render("[!!]")
	default:
		symbol = st.Error.Render("[FAIL]")
	}
	name := util.PadRight(c.Name+":", nameWidth+1)
	message := c.Message
	if room := width - nameWidth - 8; room > 0 {
		message = util.TruncateWidth(message, room)
	}
	result := fmt.Sprintf("%s %s %s", symbol, name, message)
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n     " + st.Dim.Render("-> "+c.Fix)
	}
	return result
}

// Value describes the check as a document.
func (c *HealthCheck) Value() document.Value {
	return document.Mapping(
		document.Pair("name", document.String(c.Name)),
		document.Pair("status", document.String(c.Status.String())),
		document.Pair("message", document.String(c.Message)),
		document.Pair("fix", document.String(c.Fix)),
	)
}

// =============================================================================
// DOCTOR COMMAND
// =============================================================================

// remoteCheckTimeout bounds the Paper API check.
const remoteCheckTimeout = 5 * time.Second

func newDoctorCmd(global *globalFlags, s streams) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag"},
		Short:   "Run health checks and diagnostics",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := RunChecks(cmd.Context(), global.options(io.Discard))
			return reportChecks(s.out, checks, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

// reportChecks prints checks and returns an error if any failed.
func reportChecks(w io.Writer, checks []*HealthCheck, asJSON bool) error {
	passed, warned, failed := 0, 0, 0
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		default:
			failed++
		}
	}

	if asJSON {
		items := make([]document.Value, len(checks))
		for i, check := range checks {
			items[i] = check.Value()
		}
		fmt.Fprintln(w, document.Indent(document.Mapping(
			document.Pair("checks", document.Sequence(items...)),
			document.Pair("summary", document.Mapping(
				document.Pair("passed", document.Int(int64(passed))),
				document.Pair("warned", document.Int(int64(warned))),
				document.Pair("failed", document.Int(int64(failed))),
				document.Pair("healthy", document.Bool(failed == 0)),
			)),
		), "", "  "))
	} else {
		st := NewStyles(w, GetColorProfile())
		separator := strings.Repeat("=", 41)
		fmt.Fprintln(w, st.Title.Render("wizard doctor"))
		fmt.Fprintln(w, st.Dim.Render(separator))
		nameWidth := 0
		for _, check := range checks {
			nameWidth = max(nameWidth, util.StringWidth(check.Name))
		}
		width := GetTerminalWidth()
		for _, check := range checks {
			fmt.Fprintln(w, check.Render(st, nameWidth, width))
		}
		fmt.Fprintln(w, st.Dim.Render(strings.Repeat("-", 41)))
		summary := []string{fmt.Sprintf("%d passed", passed)}
		if warned > 0 {
			summary = append(summary, st.Warning.Render(fmt.Sprintf("%d warning", warned)))
		}
		if failed > 0 {
			summary = append(summary, st.Error.Render(fmt.Sprintf("%d failed", failed)))
		}
		fmt.Fprintln(w, strings.Join(summary, ", "))
	}

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

// RunChecks runs every health check. Later checks are skipped when the
// configuration cannot be loaded.
func RunChecks(ctx context.Context, opts Options) []*HealthCheck {
	cfg, check := checkConfigValid(opts)
	checks := []*HealthCheck{check}
	if cfg == nil {
		return checks
	}
	return append(checks,
		checkConfigDir(),
		checkStore(ctx, cfg.Store),
		checkHistory(ctx, cfg.Session),
		checkPaper(ctx, cfg.Remote),
		checkGitHubToken(cfg.Remote),
	)
}

func checkConfigValid(opts Options) (*config.Config, *HealthCheck) {
	check := &HealthCheck{Name: "Config Valid"}
	app := &App{opts: opts}
	cfg, err := app.loadConfig()
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "Fix the reported keys, or move the file away to use defaults"
		return nil, check
	}
	check.Status = CheckPass
	if app.configPath == "" {
		check.Message = "using defaults"
	} else {
		check.Message = app.configPath
	}
	return cfg, check
}

func checkConfigDir() *HealthCheck {
	check := &HealthCheck{Name: "Config Directory"}
	dir, err := config.ConfigDir()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("could not determine config directory: %v", err)
		return check
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("could not create %s: %v", dir, err)
		check.Fix = fmt.Sprintf("mkdir -p %s", dir)
		return check
	}
	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0600); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("%s is not writable: %v", dir, err)
		check.Fix = fmt.Sprintf("chmod 700 %s", dir)
		return check
	}
	os.Remove(testFile)
	check.Status = CheckPass
	check.Message = dir
	return check
}

func checkStore(ctx context.Context, cfg config.StoreConfig) *HealthCheck {
	check := &HealthCheck{Name: "Document Store"}
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "Check store.backend and store.redis_addr, or set store.backend = \"memory\""
		return check
	}
	defer store.Close()
	names, err := store.List(ctx)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		return check
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("%s backend, %d document(s)", cfg.Backend, len(names))
	return check
}

func checkHistory(ctx context.Context, cfg config.SessionConfig) *HealthCheck {
	check := &HealthCheck{Name: "History Backend"}
	h, err := storage.OpenHistory(cfg)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		check.Fix = "Close other wizard processes or set session.history_backend = \"memory\""
		return check
	}
	if h == nil {
		check.Status = CheckWarn
		check.Message = "history is not persisted"
		return check
	}
	defer h.Close()
	lines, err := h.Recent(ctx, cfg.HistoryCapacity)
	if err != nil {
		check.Status = CheckFail
		check.Message = err.Error()
		return check
	}
	check.Status = CheckPass
	check.Message = fmt.Sprintf("%s backend, %d line(s)", cfg.HistoryBackend, len(lines))
	return check
}

func checkPaper(ctx context.Context, cfg config.RemoteConfig) *HealthCheck {
	check := &HealthCheck{Name: "Paper API"}
	ctx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	paper := remote.NewPaper(cfg.PaperURL, remote.OptionsFromConfig(cfg, logging.NewNop()))
	latest, err := paper.LatestVersion(ctx)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("unreachable: %v", err)
		check.Fix = "paper commands need network access to " + cfg.PaperURL
		return check
	}
	check.Status = CheckPass
	check.Message = "latest version " + latest
	return check
}

func checkGitHubToken(cfg config.RemoteConfig) *HealthCheck {
	check := &HealthCheck{Name: "GitHub Token"}
	if cfg.GitHubToken == "" {
		check.Status = CheckWarn
		check.Message = "not configured, unauthenticated requests are heavily rate limited"
		check.Fix = "export WIZARD_GITHUB_TOKEN=<token>"
		return check
	}
	check.Status = CheckPass
	check.Message = "configured"
	return check
}
