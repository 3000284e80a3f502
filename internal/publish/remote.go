package publish

import (
	"context"
	"fmt"

	"github.com/agusespa/issuescan/internal/github"
	"github.com/agusespa/issuescan/internal/logging"
	"github.com/agusespa/issuescan/internal/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Tracker is the subset of the GitHub client Remote needs
type Tracker interface {
	CreateIssue(ctx context.Context, issue github.IssueRequest) (*github.Issue, error)
	ListIssues(ctx context.Context, opts github.ListOptions) ([]github.Issue, error)
}

type Remote struct {
	Tracker       Tracker
	ReservedLabel string
	Logger        *zap.SugaredLogger
}

// Result reports what a Publish call did with each issue
type Result struct {
	Created []*github.Issue
	Skipped []string
	Failed  []string
}

// Publish creates every issue whose title is not already open under the
// reserved label. Per-issue failures do not stop the batch and are returned
// together; a failed listing aborts before anything is created.
func (r Remote) Publish(ctx context.Context, issues []types.Issue) (Result, error) {
	var res Result
	logger := logging.OrNop(r.Logger)

	existing, err := r.Tracker.ListIssues(ctx, github.ListOptions{
		State:  "open",
		Labels: []string{r.ReservedLabel},
	})
	if err != nil {
		return res, fmt.Errorf("failed to list existing issues: %w", err)
	}

	seen := make(map[string]bool, len(existing)+len(issues))
	for _, iss := range existing {
		seen[iss.Title] = true
	}

	var errs error
	for _, iss := range issues {
		if seen[iss.Title] {
			logger.Infow("issue already open, skipping", "title", iss.Title)
			res.Skipped = append(res.Skipped, iss.Title)
			continue
		}

		created, err := r.Tracker.CreateIssue(ctx, github.IssueRequest{
			Title:     iss.Title,
			Body:      iss.Body,
			Labels:    iss.Labels,
			Assignees: iss.Assignees,
		})
		if err != nil {
			logger.Warnw("failed to create issue", "title", iss.Title, "error", err)
			res.Failed = append(res.Failed, iss.Title)
			errs = multierr.Append(errs, fmt.Errorf("create %q: %w", iss.Title, err))
			continue
		}

		seen[iss.Title] = true
		res.Created = append(res.Created, created)
		logger.Debugw("created issue", "number", created.Number, "title", iss.Title)
	}
	return res, errs
}
