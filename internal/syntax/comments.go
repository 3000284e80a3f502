package syntax

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type grammar struct {
	name       string
	language   func() *sitter.Language
	query      string
	extensions []string
}

var grammars = []grammar{
	{
		name:       "Go",
		language:   func() *sitter.Language { return sitter.NewLanguage(tree_sitter_go.Language()) },
		query:      `(comment) @comment`,
		extensions: []string{".go"},
	},
	{
		name:       "Java",
		language:   func() *sitter.Language { return sitter.NewLanguage(tree_sitter_java.Language()) },
		query:      `[(line_comment) (block_comment)] @comment`,
		extensions: []string{".java"},
	},
	{
		name:       "Python",
		language:   func() *sitter.Language { return sitter.NewLanguage(tree_sitter_python.Language()) },
		query:      `(comment) @comment`,
		extensions: []string{".py"},
	},
	{
		name:       "C",
		language:   func() *sitter.Language { return sitter.NewLanguage(tree_sitter_c.Language()) },
		query:      `(comment) @comment`,
		extensions: []string{".c", ".h"},
	},
	{
		name:       "TypeScript",
		language:   func() *sitter.Language { return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()) },
		query:      `(comment) @comment`,
		extensions: []string{".ts"},
	},
	{
		name:       "TSX",
		language:   func() *sitter.Language { return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()) },
		query:      `(comment) @comment`,
		extensions: []string{".tsx"},
	},
}

type commentParser struct {
	name   string
	parser *sitter.Parser
	query  *sitter.Query
}

// CommentIndex reports which lines of a source file lie inside comments.
// It is not safe for concurrent use.
type CommentIndex struct {
	parsers map[string]*commentParser // extension -> parser
	all     []*commentParser
}

func NewCommentIndex() (*CommentIndex, error) {
	idx := &CommentIndex{parsers: make(map[string]*commentParser)}

	for _, g := range grammars {
		lang := g.language()
		parser := sitter.NewParser()
		if err := parser.SetLanguage(lang); err != nil {
			idx.Close()
			return nil, fmt.Errorf("failed to set language for %s parser: %w", g.name, err)
		}

		q, qerr := sitter.NewQuery(lang, g.query)
		if qerr != nil {
			parser.Close()
			idx.Close()
			return nil, fmt.Errorf("failed to create %s comment query: %w", g.name, qerr)
		}

		cp := &commentParser{name: g.name, parser: parser, query: q}
		idx.all = append(idx.all, cp)
		for _, ext := range g.extensions {
			idx.parsers[ext] = cp
		}
	}

	return idx, nil
}

func (c *CommentIndex) lookup(path string) *commentParser {
	return c.parsers[strings.ToLower(filepath.Ext(path))]
}

// Supports reports whether a grammar is registered for the file extension
func (c *CommentIndex) Supports(path string) bool {
	return c.lookup(path) != nil
}

// Language returns the grammar name for path, or "" when unsupported
func (c *CommentIndex) Language(path string) string {
	if cp := c.lookup(path); cp != nil {
		return cp.name
	}
	return ""
}

// CommentLines returns the 1-based line numbers covered by comment nodes.
// Block comments mark every line they span.
func (c *CommentIndex) CommentLines(path string, content []byte) (map[int]bool, error) {
	cp := c.lookup(path)
	if cp == nil {
		return nil, fmt.Errorf("no grammar registered for %s", path)
	}

	tree := cp.parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s file %s", cp.name, path)
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()

	lines := make(map[int]bool)
	matches := qc.Matches(cp.query, tree.RootNode(), content)
	for {
		m := matches.Next()
		if m == nil {
			break
		}

		for _, capture := range m.Captures {
			start := int(capture.Node.StartPosition().Row) + 1
			end := int(capture.Node.EndPosition().Row) + 1
			for line := start; line <= end; line++ {
				lines[line] = true
			}
		}
	}

	return lines, nil
}

func (c *CommentIndex) Close() {
	for _, cp := range c.all {
		cp.query.Close()
		cp.parser.Close()
	}
	c.all = nil
	c.parsers = map[string]*commentParser{}
}
