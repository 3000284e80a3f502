package diffscope

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// Scope is the set of lines a unified diff adds, keyed by new file path
type Scope struct {
	added map[string]map[int]bool
}

func Load(path string) (*Scope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read diff file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Scope, error) {
	fileDiffs, err := diff.ParseMultiFileDiff(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	scope := &Scope{added: make(map[string]map[int]bool)}
	for _, fd := range fileDiffs {
		name := normalizeName(fd.NewName)
		if name == "" {
			continue
		}
		for _, hunk := range fd.Hunks {
			for _, line := range addedLines(hunk) {
				if scope.added[name] == nil {
					scope.added[name] = make(map[int]bool)
				}
				scope.added[name][line] = true
			}
		}
	}

	return scope, nil
}

func normalizeName(name string) string {
	if name == "" || name == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(name, "b/")
}

func addedLines(hunk *diff.Hunk) []int {
	var lines []int
	current := int(hunk.NewStartLine)

	rows := bytes.Split(hunk.Body, []byte("\n"))
	for i, raw := range rows {
		if len(raw) == 0 {
			// context line whose leading space was stripped; the final
			// element is only the body's trailing newline
			if i < len(rows)-1 {
				current++
			}
			continue
		}
		switch raw[0] {
		case '+':
			lines = append(lines, current)
			current++
		case ' ':
			current++
		}
	}

	return lines
}

// Contains reports whether line of path was added by the diff
func (s *Scope) Contains(path string, line int) bool {
	return s.added[path][line]
}

// Files returns the paths with at least one added line, sorted
func (s *Scope) Files() []string {
	files := make([]string, 0, len(s.added))
	for name := range s.added {
		files = append(files, name)
	}
	sort.Strings(files)
	return files
}
