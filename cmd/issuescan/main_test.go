package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/agusespa/issuescan/internal/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
security_patterns:
  code_security_patterns:
    enabled: true
    patterns:
      - name: Eval Usage
        regex: 'eval\('
        severity: high
code_patterns:
  todo_comments:
    enabled: true
    patterns: [TODO]
dependency_patterns:
  vulnerable_dependencies:
    enabled: true
exclusions:
  excluded_directories: [.git, generated_issues]
issue_settings:
  max_issues_per_run: 10
  default_labels: [automated]
github:
  owner: acme
  repo: engine
`

func setupRepo(t *testing.T, extraConfig string) (repo, configPath string) {
	t.Helper()
	repo = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "app.js"), []byte("eval(input)\n// TODO: sanitize input\n"), 0o644))

	configPath = filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfigYAML+extraConfig), 0o644))
	return repo, configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScanDryRun(t *testing.T) {
	repo, cfg := setupRepo(t, "")

	out, err := execute(t, "scan", "--config", cfg, "--repo-path", repo, "--dry-run", "--create-issues")
	require.NoError(t, err)

	assert.Contains(t, out, "Found 1 security issues\n")
	assert.Contains(t, out, "Found 1 code pattern issues\n")
	assert.Contains(t, out, "Found 0 dependency issues\n")
	assert.Contains(t, out, "Total issues found: 2\n")
	assert.Contains(t, out, "DRY RUN: Would create 2 issues:\n")
	assert.Contains(t, out, "1. [SECURITY] Eval Usage: app.js:1\n")
	assert.Contains(t, out, "2. [CODE-PATTERN] TODO Comment: app.js:2\n")
}

func TestScanMaxIssuesOverridesConfig(t *testing.T) {
	repo, cfg := setupRepo(t, "")

	out, err := execute(t, "scan", "--config", cfg, "--repo-path", repo, "--dry-run", "--max-issues", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "DRY RUN: Would create 1 issues:\n")
	assert.NotContains(t, out, "2. ")
}

func TestScanConfigZeroMaxIssuesPublishesNothing(t *testing.T) {
	repo, _ := setupRepo(t, "")
	cfg := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
security_patterns:
  code_security_patterns:
    enabled: true
    patterns:
      - name: Eval Usage
        regex: 'eval\('
issue_settings:
  max_issues_per_run: 0
`), 0o644))
	outDir := filepath.Join(t.TempDir(), "issues")

	out, err := execute(t, "scan", "--config", cfg, "--repo-path", repo, "--create-issues", "--output-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Creating 0 issues...\n")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScanWritesFiles(t *testing.T) {
	repo, cfg := setupRepo(t, "")
	outDir := filepath.Join(t.TempDir(), "issues")

	out, err := execute(t, "scan", "--config", cfg, "--repo-path", repo, "--create-issues", "--output-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Creating 2 issues...\n")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestScanWithoutPublishingPrintsSummary(t *testing.T) {
	repo, cfg := setupRepo(t, "")

	out, err := execute(t, "scan", "--config", cfg, "--repo-path", repo, "--scan-type", "security")
	require.NoError(t, err)
	assert.Contains(t, out, "   ✓ security (1 issues)")
	assert.NotContains(t, out, "Scanning for code patterns...")
}

func TestScanNoIssues(t *testing.T) {
	_, cfg := setupRepo(t, "")

	out, err := execute(t, "scan", "--config", cfg, "--repo-path", t.TempDir(), "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "No issues to create.\n")
}

func TestScanRejectsUnknownScanType(t *testing.T) {
	_, err := execute(t, "scan", "--scan-type", "secrets")
	assert.Error(t, err)
}

func TestScanInvalidConfigIsFatal(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("security_patterns: [unterminated"), 0o644))

	_, err := execute(t, "scan", "--config", cfg, "--repo-path", t.TempDir(), "--dry-run")
	assert.Error(t, err)
}

func TestScanManifestErrorFailsRun(t *testing.T) {
	repo, cfg := setupRepo(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(repo, "pom.xml"), []byte("<project"), 0o644))

	out, err := execute(t, "scan", "--config", cfg, "--repo-path", repo, "--dry-run")
	require.Error(t, err)
	assert.Contains(t, out, "DRY RUN: Would create 2 issues:\n")
}

func TestScanRemoteRequiresToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	repo, cfg := setupRepo(t, "")

	_, err := execute(t, "scan", "--config", cfg, "--repo-path", repo, "--create-issues", "--remote")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
}

func TestScanRemotePublishes(t *testing.T) {
	var created []github.IssueRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/engine/issues", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode([]github.Issue{{Number: 1, Title: "[SECURITY] Eval Usage: app.js:1"}})
		case http.MethodPost:
			var req github.IssueRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			created = append(created, req)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(github.Issue{Number: 2, Title: req.Title})
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Setenv("GITHUB_TOKEN", "s3cret")
	repo, cfg := setupRepo(t, "  base_url: "+srv.URL+"\n")

	out, err := execute(t, "scan", "--config", cfg, "--repo-path", repo, "--create-issues", "--remote")
	require.NoError(t, err)

	require.Len(t, created, 1)
	assert.Equal(t, "[CODE-PATTERN] TODO Comment: app.js:2", created[0].Title)
	assert.Contains(t, out, "   ✓ #2 [CODE-PATTERN] TODO Comment: app.js:2\n")
	assert.Contains(t, out, "(already open)")
}

func TestDispatch(t *testing.T) {
	var got github.DispatchRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/engine/actions/workflows/copilot-issue-creator.yml/dispatches", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token s3cret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Setenv("GITHUB_TOKEN", "s3cret")
	_, cfg := setupRepo(t, "  base_url: "+srv.URL+"\n")

	out, err := execute(t, "dispatch", "--config", cfg, "--scan-type", "security", "--create-issues")
	require.NoError(t, err)

	assert.Equal(t, "main", got.Ref)
	assert.Equal(t, map[string]string{
		"scan_type":     "security",
		"create_issues": "true",
		"max_issues":    "5",
	}, got.Inputs)
	assert.Contains(t, out, "✓ Dispatched copilot-issue-creator.yml on main")
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "issuescan version dev")
}
