package agent

import (
	"fmt"
	"io"

	"github.com/agusespa/issuescan/internal/types"
	"go.uber.org/multierr"
)

// PassResult is the outcome of one scan pass
type PassResult struct {
	Type   ScanType
	Issues []types.Issue
	Err    error
}

type Report struct {
	Passes []PassResult
}

// Issues concatenates pass results in the order the passes ran
func (r Report) Issues() []types.Issue {
	var all []types.Issue
	for _, p := range r.Passes {
		all = append(all, p.Issues...)
	}
	return all
}

func (r Report) Err() error {
	var err error
	for _, p := range r.Passes {
		if p.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", p.Type, p.Err))
		}
	}
	return err
}

// PrintSummary writes one ✓/✕ line per pass plus the severity breakdown
func PrintSummary(w io.Writer, r Report) {
	counts := make(map[types.Severity]int)
	fmt.Fprint(w, "Scan summary:")
	for _, p := range r.Passes {
		for _, iss := range p.Issues {
			counts[iss.Severity]++
		}
		if p.Err != nil {
			fmt.Fprintf(w, "\n   ✕ %s (failed)", p.Type)
			continue
		}
		fmt.Fprintf(w, "\n   ✓ %s (%d issues)", p.Type, len(p.Issues))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "%d high, %d medium and %d low severity issues were found\n",
		counts[types.SeverityHigh], counts[types.SeverityMedium], counts[types.SeverityLow])
}
