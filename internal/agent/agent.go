package agent

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agusespa/issuescan/internal/audit"
	"github.com/agusespa/issuescan/internal/diffscope"
	"github.com/agusespa/issuescan/internal/issue"
	"github.com/agusespa/issuescan/internal/logging"
	"github.com/agusespa/issuescan/internal/matcher"
	"github.com/agusespa/issuescan/internal/scanner"
	"github.com/agusespa/issuescan/internal/types"
	"github.com/agusespa/issuescan/pkg/config"
	"github.com/agusespa/issuescan/pkg/spinner"
	"go.uber.org/zap"
)

// CommentFilter reports which lines of a file are comments
type CommentFilter interface {
	Supports(path string) bool
	CommentLines(path string, content []byte) (map[int]bool, error)
}

type Agent struct {
	cfg      *config.Config
	scanner  *scanner.Scanner
	builder  *issue.Builder
	auditor  *audit.Auditor
	comments CommentFilter
	scope    *diffscope.Scope
	out      io.Writer
	spin     bool
	logger   *zap.SugaredLogger
}

type Option func(*Agent)

// WithDiffScope keeps only security and code pattern findings on added lines
func WithDiffScope(scope *diffscope.Scope) Option {
	return func(a *Agent) { a.scope = scope }
}

// WithCommentFilter enables syntax-aware marker detection when the config asks for it
func WithCommentFilter(f CommentFilter) Option {
	return func(a *Agent) { a.comments = f }
}

func WithDatabase(db audit.VulnerabilityDatabase) Option {
	return func(a *Agent) { a.auditor = audit.NewAuditor(db) }
}

// WithProgress sends progress lines to w, with a spinner while a pass runs
func WithProgress(w io.Writer, spin bool) Option {
	return func(a *Agent) {
		a.out = w
		a.spin = spin
	}
}

func New(root string, cfg *config.Config, logger *zap.SugaredLogger, opts ...Option) *Agent {
	logger = logging.OrNop(logger)
	a := &Agent{
		cfg:     cfg,
		scanner: scanner.New(root, cfg.Exclusions, logger),
		builder: issue.NewBuilder(cfg.IssueSettings.DefaultLabels, cfg.IssueSettings.Assignees).
			WithManifest(cfg.DependencyPatterns.VulnerableDependencies.Manifest),
		auditor: audit.NewAuditor(nil),
		out:     io.Discard,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes each pass in order. A failing pass is recorded in the report
// and does not stop the ones after it.
func (a *Agent) Run(scanTypes []ScanType) Report {
	var report Report
	for _, t := range scanTypes {
		scanning, found := t.progress()
		fmt.Fprintln(a.out, scanning)

		issues, err := a.runPass(t, scanning)
		if err != nil {
			fmt.Fprintf(a.out, "   ✕ %v\n", err)
			a.logger.Debugw("scan pass failed", "type", t, "error", err)
		}
		fmt.Fprintf(a.out, "Found %d %s issues\n", len(issues), found)

		report.Passes = append(report.Passes, PassResult{Type: t, Issues: issues, Err: err})
	}
	fmt.Fprintf(a.out, "\nTotal issues found: %d\n", len(report.Issues()))
	return report
}

func (a *Agent) runPass(t ScanType, message string) ([]types.Issue, error) {
	if a.spin {
		sp := spinner.New(a.out, message)
		sp.Start()
		defer sp.Stop()
	}

	switch t {
	case ScanSecurity:
		return a.ScanSecurity()
	case ScanCodePatterns:
		return a.ScanCodePatterns()
	case ScanDependencies:
		return a.ScanDependencies()
	default:
		return nil, fmt.Errorf("unknown scan type %q", t)
	}
}

func (a *Agent) ScanSecurity() ([]types.Issue, error) {
	group := a.cfg.SecurityPatterns.CodeSecurityPatterns
	if !group.Enabled {
		return nil, nil
	}

	var findings []types.Finding
	for _, p := range group.Patterns {
		pattern, err := matcher.Compile(p.Name, p.Regex, matcher.Options{CaseInsensitive: p.CaseInsensitive})
		if err != nil {
			return nil, fmt.Errorf("security scan: %w", err)
		}
		hits, err := a.scanner.Scan(pattern)
		if err != nil {
			return nil, fmt.Errorf("security scan: %w", err)
		}
		for _, hit := range a.inScope(hits) {
			findings = append(findings, types.Finding{
				Path:        hit.Path,
				Line:        hit.Line,
				Text:        hit.Text,
				PatternID:   p.Name,
				Severity:    p.Severity,
				Category:    types.CategorySecurity,
				Description: p.Description,
			})
		}
	}

	return a.build(findings)
}

func (a *Agent) ScanCodePatterns() ([]types.Issue, error) {
	todo := a.cfg.CodePatterns.TodoComments
	if !todo.Enabled {
		return nil, nil
	}

	// per pass, so passes share nothing
	commentLines := make(map[string]map[int]bool)

	var findings []types.Finding
	for _, marker := range todo.Patterns {
		pattern, err := matcher.TodoPattern(marker)
		if err != nil {
			return nil, fmt.Errorf("code pattern scan: %w", err)
		}
		hits, err := a.scanner.Scan(pattern)
		if err != nil {
			return nil, fmt.Errorf("code pattern scan: %w", err)
		}
		for _, hit := range a.inScope(hits) {
			if todo.SyntaxAware && !a.inComment(hit, commentLines) {
				continue
			}
			findings = append(findings, types.Finding{
				Path:      hit.Path,
				Line:      hit.Line,
				Text:      hit.Text,
				PatternID: marker,
				Severity:  todo.Priority(marker),
				Category:  types.CategoryCodePattern,
			})
		}
	}

	return a.build(findings)
}

func (a *Agent) ScanDependencies() ([]types.Issue, error) {
	deps := a.cfg.DependencyPatterns.VulnerableDependencies
	if !deps.Enabled {
		return nil, nil
	}

	manifest := filepath.Join(a.scanner.Root(), filepath.FromSlash(deps.Manifest))
	if _, err := os.Stat(manifest); errors.Is(err, fs.ErrNotExist) {
		a.logger.Debugw("no manifest found, skipping dependency audit", "path", manifest)
		return nil, nil
	}

	records, err := a.auditor.AuditFile(manifest)
	if err != nil {
		return nil, fmt.Errorf("dependency scan: %w", err)
	}

	issues := make([]types.Issue, 0, len(records))
	for _, rec := range records {
		iss, err := a.builder.Dependency(rec)
		if err != nil {
			return nil, fmt.Errorf("dependency scan: %w", err)
		}
		issues = append(issues, iss)
	}
	return issues, nil
}

func (a *Agent) inScope(hits []scanner.Hit) []scanner.Hit {
	if a.scope == nil {
		return hits
	}
	var kept []scanner.Hit
	for _, hit := range hits {
		if a.scope.Contains(hit.Path, hit.Line) {
			kept = append(kept, hit)
		}
	}
	return kept
}

// inComment keeps hits in files without a grammar; the regex match stands
func (a *Agent) inComment(hit scanner.Hit, cache map[string]map[int]bool) bool {
	if a.comments == nil || !a.comments.Supports(hit.Path) {
		return true
	}

	lines, ok := cache[hit.Path]
	if !ok {
		content, err := os.ReadFile(filepath.Join(a.scanner.Root(), filepath.FromSlash(hit.Path)))
		if err == nil {
			lines, err = a.comments.CommentLines(hit.Path, content)
		}
		if err != nil {
			a.logger.Debugw("comment index unavailable, keeping regex matches", "path", hit.Path, "error", err)
			lines = nil
		}
		cache[hit.Path] = lines
	}
	if lines == nil {
		return true
	}
	return lines[hit.Line]
}

func (a *Agent) build(findings []types.Finding) ([]types.Issue, error) {
	slices.SortStableFunc(findings, func(x, y types.Finding) int {
		if c := strings.Compare(x.Path, y.Path); c != 0 {
			return c
		}
		return x.Line - y.Line
	})

	issues := make([]types.Issue, 0, len(findings))
	for _, f := range findings {
		iss, err := a.builder.FromFinding(f)
		if err != nil {
			return nil, err
		}
		issues = append(issues, iss)
	}
	return issues, nil
}
