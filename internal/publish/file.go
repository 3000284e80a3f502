package publish

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agusespa/issuescan/internal/logging"
	"github.com/agusespa/issuescan/internal/types"
	"go.uber.org/zap"
)

const timestampLayout = "20060102_150405"

// FileWriter renders each issue as a markdown file under Dir. Existing files
// are never overwritten.
type FileWriter struct {
	Dir    string
	Now    func() time.Time
	Logger *zap.SugaredLogger
}

// Write returns the paths it created, in issue order
func (fw FileWriter) Write(issues []types.Issue) ([]string, error) {
	if err := os.MkdirAll(fw.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logger := logging.OrNop(fw.Logger)
	now := time.Now
	if fw.Now != nil {
		now = fw.Now
	}

	var paths []string
	for _, iss := range issues {
		prefix := fmt.Sprintf("%s_%s", now().Format(timestampLayout), iss.Template)
		f, path, err := createUnique(fw.Dir, prefix)
		if err != nil {
			return paths, fmt.Errorf("failed to create issue file for %q: %w", iss.Title, err)
		}

		_, werr := f.WriteString(Markdown(iss))
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}

		logger.Debugw("wrote issue file", "path", path, "title", iss.Title)
		paths = append(paths, path)
	}
	return paths, nil
}

// createUnique opens prefix.md, then prefix_2.md, prefix_3.md and so on
func createUnique(dir, prefix string) (*os.File, string, error) {
	for n := 1; ; n++ {
		name := prefix + ".md"
		if n > 1 {
			name = fmt.Sprintf("%s_%d.md", prefix, n)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
}

// Markdown is the on-disk form of an issue
func Markdown(iss types.Issue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", iss.Title)
	fmt.Fprintf(&b, "**Labels:** %s\n", strings.Join(iss.Labels, ", "))
	fmt.Fprintf(&b, "**Template:** %s\n", iss.Template)
	fmt.Fprintf(&b, "**Severity:** %s\n", iss.Severity)
	if len(iss.Assignees) > 0 {
		fmt.Fprintf(&b, "**Assignees:** %s\n", strings.Join(iss.Assignees, ", "))
	}
	b.WriteString("\n## Issue Body\n\n")
	b.WriteString(iss.Body)
	return b.String()
}
