package main

import (
	"fmt"

	"github.com/agusespa/issuescan/internal/agent"
	"github.com/agusespa/issuescan/internal/github"
	"github.com/agusespa/issuescan/internal/logging"
	"github.com/agusespa/issuescan/pkg/config"
	"github.com/spf13/cobra"
)

type dispatchOptions struct {
	*rootOptions
	scanType     string
	createIssues bool
	maxIssues    int
	workflow     string
	ref          string
}

func newDispatchCmd(root *rootOptions) *cobra.Command {
	opts := &dispatchOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Trigger the scan workflow on GitHub Actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDispatch(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.scanType, "scan-type", string(agent.ScanAll), "Type of scan: security, code-patterns, dependencies or all")
	f.BoolVar(&opts.createIssues, "create-issues", false, "Let the workflow create issues")
	f.IntVar(&opts.maxIssues, "max-issues", 5, "Maximum issues the workflow may create")
	f.StringVar(&opts.workflow, "workflow", config.DefaultWorkflow, "Workflow file name")
	f.StringVar(&opts.ref, "ref", config.DefaultRef, "Git ref to run the workflow on")
	return cmd
}

func runDispatch(cmd *cobra.Command, opts *dispatchOptions) error {
	out := cmd.OutOrStdout()

	logger, err := logging.New(opts.debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if _, err := agent.ParseScanType(opts.scanType); err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath, logger)
	if err != nil {
		return err
	}
	workflow, ref := opts.workflow, opts.ref
	if !cmd.Flags().Changed("workflow") {
		workflow = cfg.GitHub.Workflow
	}
	if !cmd.Flags().Changed("ref") {
		ref = cfg.GitHub.Ref
	}

	client, err := newGitHubClient(cfg)
	if err != nil {
		return err
	}

	err = client.DispatchWorkflow(cmd.Context(), workflow, github.DispatchRequest{
		Ref:    ref,
		Inputs: github.ScanInputs(opts.scanType, opts.createIssues, opts.maxIssues),
	})
	if err != nil {
		fmt.Fprintf(out, "✕ Failed to dispatch %s\n", workflow)
		return err
	}

	fmt.Fprintf(out, "✓ Dispatched %s on %s (scan type: %s)\n", workflow, ref, opts.scanType)
	return nil
}
