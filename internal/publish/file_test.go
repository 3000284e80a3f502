package publish

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agusespa/issuescan/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestFileWriterWritesMarkdown(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "generated_issues")
	fw := FileWriter{Dir: dir, Now: fixedClock}

	paths, err := fw.Write(sampleIssues(1))
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "20250314_092653_automated-vulnerability.md"), paths[0])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	expected := "# [SECURITY] Eval: app.js:1\n\n" +
		"**Labels:** security, vulnerability, automated\n" +
		"**Template:** automated-vulnerability\n" +
		"**Severity:** high\n\n" +
		"## Issue Body\n\n" +
		"body"
	assert.Equal(t, expected, string(data))
}

func TestFileWriterNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "20250314_092653_automated-vulnerability.md")
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0o644))

	fw := FileWriter{Dir: dir, Now: fixedClock}
	paths, err := fw.Write(sampleIssues(3))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "20250314_092653_automated-vulnerability_2.md"),
		filepath.Join(dir, "20250314_092653_automated-vulnerability_3.md"),
		filepath.Join(dir, "20250314_092653_automated-vulnerability_4.md"),
	}, paths)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestMarkdownIncludesAssignees(t *testing.T) {
	iss := types.Issue{
		Title:     "t",
		Body:      "b",
		Labels:    []string{"automated"},
		Severity:  types.SeverityLow,
		Template:  types.TemplateCodePattern,
		Assignees: []string{"octocat", "hubot"},
	}
	assert.Contains(t, Markdown(iss), "**Assignees:** octocat, hubot\n")
}
