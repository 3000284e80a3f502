package types

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Finding is a single pattern match at a file and line
type Finding struct {
	Path        string   `json:"path"`
	Line        int      `json:"line"`
	Text        string   `json:"text"`
	PatternID   string   `json:"pattern_id"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
	Description string   `json:"description,omitempty"`
}

// Location renders path:line as used in issue titles
func (f Finding) Location() string {
	return fmt.Sprintf("%s:%d", f.Path, f.Line)
}

// DependencyRecord is a declared dependency with known vulnerabilities
type DependencyRecord struct {
	Group            string   `json:"group"`
	Artifact         string   `json:"artifact"`
	Version          string   `json:"version"`
	Severity         Severity `json:"severity"`
	VulnerabilityIDs []string `json:"vulnerability_ids"`
}

// Name returns the group:artifact coordinate
func (d DependencyRecord) Name() string {
	return d.Group + ":" + d.Artifact
}

// Issue is a fully rendered problem report ready to be published
type Issue struct {
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Labels    []string    `json:"labels"`
	Severity  Severity    `json:"severity"`
	Template  TemplateTag `json:"template"`
	Assignees []string    `json:"assignees,omitempty"`
}

func (i Issue) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return errors.New("issue title is empty")
	}
	if strings.TrimSpace(i.Body) == "" {
		return fmt.Errorf("issue %q has an empty body", i.Title)
	}
	if !i.Severity.Valid() {
		return fmt.Errorf("issue %q has unknown severity %q", i.Title, i.Severity)
	}
	return nil
}

// LabelSet merges label groups in order, dropping blanks and duplicates
func LabelSet(groups ...[]string) []string {
	var out []string
	for _, group := range groups {
		for _, label := range group {
			label = strings.TrimSpace(label)
			if label == "" || slices.Contains(out, label) {
				continue
			}
			out = append(out, label)
		}
	}
	return out
}
