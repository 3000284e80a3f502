package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/agusespa/issuescan/internal/agent"
	"github.com/agusespa/issuescan/internal/diffscope"
	"github.com/agusespa/issuescan/internal/github"
	"github.com/agusespa/issuescan/internal/logging"
	"github.com/agusespa/issuescan/internal/publish"
	"github.com/agusespa/issuescan/internal/syntax"
	"github.com/agusespa/issuescan/internal/types"
	"github.com/agusespa/issuescan/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"
)

type scanOptions struct {
	*rootOptions
	scanType     string
	repoPath     string
	dryRun       bool
	createIssues bool
	remote       bool
	outputDir    string
	maxIssues    int
	diffPath     string
	staged       bool
}

func newScanCmd(root *rootOptions) *cobra.Command {
	opts := &scanOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the repository and report, write or publish issues",
		Example: `  issuescan scan --dry-run
  issuescan scan --scan-type security --create-issues
  issuescan scan --create-issues --remote --max-issues 5
  issuescan scan --diff changes.patch --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.scanType, "scan-type", string(agent.ScanAll), "Type of scan: security, code-patterns, dependencies or all")
	f.StringVar(&opts.repoPath, "repo-path", ".", "Path to repository to scan")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Show what issues would be created without creating them")
	f.BoolVar(&opts.createIssues, "create-issues", false, "Create the issues (as files, or on GitHub with --remote)")
	f.BoolVar(&opts.remote, "remote", false, "Publish to GitHub instead of writing files (requires GITHUB_TOKEN)")
	f.StringVar(&opts.outputDir, "output-dir", "", "Directory for generated issue files (overrides config)")
	f.IntVar(&opts.maxIssues, "max-issues", 0, "Maximum issues per run (overrides config)")
	f.StringVar(&opts.diffPath, "diff", "", "Unified diff file; only lines it adds are scanned for patterns")
	f.BoolVar(&opts.staged, "staged", false, "Only scan lines added by staged git changes")
	cmd.MarkFlagsMutuallyExclusive("diff", "staged")
	return cmd
}

func runScan(cmd *cobra.Command, opts *scanOptions) error {
	out := cmd.OutOrStdout()

	logger, err := logging.New(opts.debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	scanTypes, err := agent.ParseScanType(opts.scanType)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath, logger)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-issues") {
		if opts.maxIssues < 0 {
			return fmt.Errorf("--max-issues must not be negative, got %d", opts.maxIssues)
		}
		cfg.IssueSettings.MaxIssuesPerRun = opts.maxIssues
	}
	if opts.outputDir != "" {
		cfg.IssueSettings.OutputDir = opts.outputDir
	}

	agentOpts := []agent.Option{agent.WithProgress(out, isTerminal(out))}
	scope, err := loadScope(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if scope != nil {
		logger.Debugw("scan limited to diff", "files", scope.Files())
		agentOpts = append(agentOpts, agent.WithDiffScope(scope))
	}
	if cfg.CodePatterns.TodoComments.SyntaxAware {
		idx, err := syntax.NewCommentIndex()
		if err != nil {
			return err
		}
		defer idx.Close()
		agentOpts = append(agentOpts, agent.WithCommentFilter(idx))
	}

	report := agent.New(opts.repoPath, cfg, logger, agentOpts...).Run(scanTypes)
	scanErr := report.Err()

	issues := report.Issues()
	if !opts.dryRun && !opts.createIssues {
		fmt.Fprintln(out)
		agent.PrintSummary(out, report)
		return scanErr
	}
	if len(issues) == 0 {
		fmt.Fprintln(out, "No issues to create.")
		return scanErr
	}

	batch := publish.Truncate(issues, cfg.IssueSettings.MaxIssuesPerRun)
	var publishErr error
	switch {
	case opts.dryRun:
		publishErr = publish.DryRun(out, batch)
	case opts.remote:
		publishErr = publishRemote(cmd.Context(), out, cfg, batch, logger)
	default:
		publishErr = writeFiles(out, cfg.IssueSettings.OutputDir, batch, logger)
	}

	return multierr.Combine(scanErr, publishErr)
}

func loadScope(ctx context.Context, opts *scanOptions) (*diffscope.Scope, error) {
	switch {
	case opts.diffPath != "":
		return diffscope.Load(opts.diffPath)
	case opts.staged:
		return diffscope.Staged(ctx, opts.repoPath)
	default:
		return nil, nil
	}
}

func loadConfig(path string, logger *zap.SugaredLogger) (*config.Config, error) {
	cfg, usedDefault, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if usedDefault {
		logger.Infow("config file not found, using defaults", "path", path)
	}
	return cfg, nil
}

func writeFiles(out io.Writer, dir string, batch []types.Issue, logger *zap.SugaredLogger) error {
	fmt.Fprintf(out, "Creating %d issues...\n", len(batch))
	paths, err := publish.FileWriter{Dir: dir, Logger: logger}.Write(batch)
	for _, p := range paths {
		fmt.Fprintf(out, "Issue written to: %s\n", p)
	}
	return err
}

func publishRemote(ctx context.Context, out io.Writer, cfg *config.Config, batch []types.Issue, logger *zap.SugaredLogger) error {
	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Creating %d issues...\n", len(batch))
	res, err := publish.Remote{
		Tracker:       client,
		ReservedLabel: cfg.IssueSettings.ReservedLabel,
		Logger:        logger,
	}.Publish(ctx, batch)

	for _, created := range res.Created {
		fmt.Fprintf(out, "   ✓ #%d %s\n", created.Number, created.Title)
	}
	for _, title := range res.Skipped {
		fmt.Fprintf(out, "   - %s (already open)\n", title)
	}
	for _, title := range res.Failed {
		fmt.Fprintf(out, "   ✕ %s\n", title)
	}
	return err
}

func newGitHubClient(cfg *config.Config) (*github.Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, errors.New("GITHUB_TOKEN must be set for remote operations")
	}
	owner, repo, err := cfg.GitHub.Repository()
	if err != nil {
		return nil, err
	}
	return github.New(token, owner, repo).WithBaseURL(cfg.GitHub.BaseURL), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
