// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
)

func doctorEnv(t *testing.T, paperUp bool) string {
	t.Helper()
	path := testEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !paperUp {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"project_id":"paper","versions":["1.20.4","1.21"]}`)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("WIZARD_GITHUB_TOKEN", "")
	content := fmt.Sprintf("[session]\nhistory_backend = \"memory\"\n[store]\nbackend = \"memory\"\n"+
		"[remote]\npaper_url = %q\n", srv.URL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func checkStatuses(t *testing.T, out string) map[string]string {
	t.Helper()
	doc, err := document.Parse(out)
	require.NoError(t, err, out)
	checks, err := document.Lookup(doc, "checks")
	require.NoError(t, err)
	statuses := make(map[string]string)
	for _, c := range checks.Elements() {
		name, _ := c.Get("name")
		status, _ := c.Get("status")
		n, _ := name.AsString()
		s, _ := status.AsString()
		statuses[n] = s
	}
	return statuses
}

func TestDoctor_Healthy(t *testing.T) {
	cfg := doctorEnv(t, true)
	res := runWizard(t, "", "--config", cfg, "doctor", "--json")
	require.Equal(t, ExitSuccess, res.code, res.err)

	assert.Equal(t, map[string]string{
		"Config Valid":     "pass",
		"Config Directory": "pass",
		"Document Store":   "pass",
		"History Backend":  "warn",
		"Paper API":        "pass",
		"GitHub Token":     "warn",
	}, checkStatuses(t, res.out))

	healthy, err := document.Lookup(document.MustParse(res.out), "summary.healthy")
	require.NoError(t, err)
	assert.Equal(t, document.Bool(true), healthy)
}

func TestDoctor_UnreachablePaperIsAWarning(t *testing.T) {
	cfg := doctorEnv(t, false)
	res := runWizard(t, "", "--config", cfg, "doctor", "--json")
	require.Equal(t, ExitSuccess, res.code, res.err)
	assert.Equal(t, "warn", checkStatuses(t, res.out)["Paper API"])
}

func TestDoctor_InvalidConfigFails(t *testing.T) {
	path := testEnv(t)
	require.NoError(t, os.WriteFile(path, []byte("[ui]\nindent = 42\n"), 0600))

	res := runWizard(t, "", "--config", path, "doctor", "--json")
	assert.Equal(t, ExitGeneralError, res.code)
	statuses := checkStatuses(t, res.out)
	assert.Equal(t, map[string]string{"Config Valid": "fail"}, statuses, "later checks are skipped")
	assert.Contains(t, res.err, "health check(s) failed")
}

func TestDoctor_PersistentHistoryPasses(t *testing.T) {
	cfg := doctorEnv(t, true)
	home := filepath.Dir(cfg)
	content := fmt.Sprintf("[session]\nhistory_backend = \"bolt\"\nhistory_path = %q\n[store]\nbackend = \"memory\"\n",
		filepath.Join(home, "history.db"))
	require.NoError(t, os.WriteFile(cfg, []byte(content), 0600))

	checks := RunChecks(context.Background(), Options{ConfigPath: cfg})
	var history *HealthCheck
	for _, c := range checks {
		if c.Name == "History Backend" {
			history = c
		}
	}
	require.NotNil(t, history)
	assert.Equal(t, CheckPass, history.Status, history.Message)
	assert.Contains(t, history.Message, "bolt backend")
}

func TestReportChecks_Text(t *testing.T) {
	var out bytes.Buffer
	err := reportChecks(&out, []*HealthCheck{
		{Name: "One", Status: CheckPass, Message: "fine"},
		{Name: "Two", Status: CheckFail, Message: "broken", Fix: "repair it"},
		{Name: "Longer", Status: CheckWarn, Message: "ok"},
	}, false)
	require.Error(t, err)
	assert.Contains(t, out.String(), "Two:    broken")
	assert.Contains(t, out.String(), "Longer: ok")
	assert.Contains(t, out.String(), "One:    fine", "names are padded to a column")
	assert.Contains(t, out.String(), "-> repair it")
	assert.Contains(t, out.String(), "1 passed")
}
