package publish

import (
	"fmt"
	"io"
	"strings"

	"github.com/agusespa/issuescan/internal/types"
)

// Truncate keeps the first max issues; a non-positive max keeps none
func Truncate(issues []types.Issue, max int) []types.Issue {
	if max <= 0 {
		return nil
	}
	if len(issues) <= max {
		return issues
	}
	return issues[:max]
}

// DryRun prints what would be created without touching disk or network
func DryRun(w io.Writer, issues []types.Issue) error {
	var b strings.Builder
	fmt.Fprintf(&b, "DRY RUN: Would create %d issues:\n", len(issues))
	for i, iss := range issues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, iss.Title)
		fmt.Fprintf(&b, "   Labels: %s\n", strings.Join(iss.Labels, ", "))
		fmt.Fprintf(&b, "   Template: %s\n", iss.Template)
		fmt.Fprintf(&b, "   Severity: %s\n\n", iss.Severity)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
