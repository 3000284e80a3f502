package scanner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agusespa/issuescan/internal/logging"
	"github.com/agusespa/issuescan/internal/matcher"
	"github.com/agusespa/issuescan/pkg/config"
	"go.uber.org/zap"
)

// Hit is a line that matched a pattern, before it becomes a Finding
type Hit struct {
	Path  string // repository-relative, slash separated
	Line  int    // 1-based
	Text  string // whitespace-trimmed line content
	Match matcher.Match
}

type Scanner struct {
	root       string
	exclusions config.Exclusions
	globs      []*regexp.Regexp
	logger     *zap.SugaredLogger
}

func New(root string, exclusions config.Exclusions, logger *zap.SugaredLogger) *Scanner {
	globs := make([]*regexp.Regexp, 0, len(exclusions.ExcludedFiles))
	for _, pattern := range exclusions.ExcludedFiles {
		globs = append(globs, compileGlob(pattern))
	}
	return &Scanner{
		root:       root,
		exclusions: exclusions,
		globs:      globs,
		logger:     logging.OrNop(logger),
	}
}

func (s *Scanner) Root() string {
	return s.root
}

// Files lists every eligible regular file under the root in lexical order.
// A symlinked root is resolved first; symlinks below it are never followed.
func (s *Scanner) Files() ([]string, error) {
	var files []string

	root := s.root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		if resolved != filepath.Clean(root) {
			s.logger.Debugw("Resolved symlinked root", "root", root, "target", resolved)
		}
		root = resolved
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			s.logger.Debugw("Skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && slices.Contains(s.exclusions.ExcludedDirectories, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if s.IsExcluded(rel) {
			return nil
		}

		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}

	return files, nil
}

// IsExcluded applies the exclusion rules to a repository-relative path in
// order: directory membership, filename glob, then extension.
func (s *Scanner) IsExcluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	dir, name := path.Split(rel)

	for _, part := range strings.Split(strings.Trim(dir, "/"), "/") {
		if part != "" && slices.Contains(s.exclusions.ExcludedDirectories, part) {
			return true
		}
	}

	for _, glob := range s.globs {
		if glob.MatchString(rel) || glob.MatchString(name) {
			return true
		}
	}

	ext := path.Ext(name)
	return ext != "" && slices.Contains(s.exclusions.ExcludedExtensions, ext)
}

// Scan evaluates pattern against every line of every eligible file. Files that
// cannot be read are skipped; lines that are not valid UTF-8 are ignored.
func (s *Scanner) Scan(pattern *matcher.Pattern) ([]Hit, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, rel := range files {
		fileHits, err := s.ScanFile(rel, pattern)
		if err != nil {
			s.logger.Debugw("Skipping file", "path", rel, "error", err)
			continue
		}
		hits = append(hits, fileHits...)
	}

	return hits, nil
}

// ScanFile evaluates pattern against one repository-relative file
func (s *Scanner) ScanFile(rel string, pattern *matcher.Pattern) ([]Hit, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var hits []Hit
	err = eachLine(f, func(lineNum int, line string) {
		if !utf8.ValidString(line) {
			return
		}
		if m, ok := pattern.Match(line); ok {
			hits = append(hits, Hit{
				Path:  rel,
				Line:  lineNum,
				Text:  strings.TrimSpace(line),
				Match: m,
			})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return hits, nil
}

func eachLine(r io.Reader, fn func(lineNum int, line string)) error {
	reader := bufio.NewReader(r)
	for lineNum := 1; ; lineNum++ {
		line, err := reader.ReadString('\n')
		if line != "" {
			fn(lineNum, strings.TrimRight(line, "\r\n"))
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
