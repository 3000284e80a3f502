package diffscope

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Staged builds a scope from the changes staged in the git work tree at dir.
// Paths are relative to dir, matching what the file scanner reports.
func Staged(ctx context.Context, dir string) (*Scope, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "diff", "--staged", "--relative", "--no-color", "--no-ext-diff")
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("failed to get staged diff: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("failed to get staged diff: %w", err)
	}
	return Parse(output)
}
