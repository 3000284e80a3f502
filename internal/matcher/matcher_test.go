package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	p, err := Compile("sql", `executeQuery\(.*\+`, Options{})
	require.NoError(t, err)
	assert.Equal(t, "sql", p.ID())

	_, ok := p.Match(`stmt.executeQuery("SELECT * FROM t WHERE id=" + id);`)
	assert.True(t, ok)

	_, ok = p.Match(`stmt.EXECUTEQUERY("x" + id)`)
	assert.False(t, ok)

	_, err = Compile("broken", `(unclosed`, Options{})
	assert.Error(t, err)
}

func TestCompileCaseInsensitive(t *testing.T) {
	p, err := Compile("pw", `password\s*=`, Options{CaseInsensitive: true})
	require.NoError(t, err)

	m, ok := p.Match(`String PASSWORD = "hunter2";`)
	require.True(t, ok)
	assert.Equal(t, "PASSWORD =", m.Text)
}

func TestMatchReturnsFirstMatchOnly(t *testing.T) {
	p, err := Compile("eval", `eval\((?P<arg>\w+)\)`, Options{})
	require.NoError(t, err)

	m, ok := p.Match(`eval(a); eval(b);`)
	require.True(t, ok)
	assert.Equal(t, "eval(a)", m.Text)
	assert.Equal(t, map[string]string{"arg": "a"}, m.Groups)
}

func TestTodoPattern(t *testing.T) {
	p, err := TodoPattern("TODO")
	require.NoError(t, err)

	tests := []struct {
		name    string
		line    string
		matches bool
		group   string
		text    string
	}{
		{"hash comment", "# TODO: fix race condition", true, "hash", " fix race condition"},
		{"slash comment", "int x = 1; // TODO remove", true, "slash", "remove"},
		{"block comment", "/* TODO: tidy up */", true, "block", " tidy up "},
		{"lower case", "// todo handle nil", true, "slash", "handle nil"},
		{"no comment", "TODO: not in a comment", false, "", ""},
		{"marker prefix only", "// TODOS are tracked elsewhere", false, "", ""},
		{"bare slash marker", "x := 1 // TODO", true, "slash", ""},
		{"bare hash marker", "# TODO", true, "hash", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := p.Match(tt.line)
			assert.Equal(t, tt.matches, ok)
			if !tt.matches {
				return
			}
			assert.Equal(t, tt.text, m.Groups[tt.group])
			assert.Len(t, m.Groups, 1)
		})
	}
}

func TestTodoPatternQuotesMarker(t *testing.T) {
	p, err := TodoPattern("XXX+")
	require.NoError(t, err)

	_, ok := p.Match("// XXX+ literal marker")
	assert.True(t, ok)
	_, ok = p.Match("// XXXX literal marker")
	assert.False(t, ok)
}

func TestExtractTodoText(t *testing.T) {
	tests := []struct {
		line     string
		marker   string
		expected string
	}{
		{"# TODO: fix race condition", "TODO", "fix race condition"},
		{"// FIXME:: handle overflow  ", "FIXME", "handle overflow"},
		{"/* TODO: tidy up */", "TODO", "tidy up"},
		{"// todo lowercase works", "TODO", "lowercase works"},
		{"// TODO", "TODO", ""},
		{"nothing here", "TODO", ""},
		{"// TODO: x", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractTodoText(tt.line, tt.marker))
		})
	}
}

func TestMarkerRegexpIsCompiledOnce(t *testing.T) {
	first := markerRegexp("FIXME")
	assert.Same(t, first, markerRegexp("FIXME"))
	assert.NotSame(t, first, markerRegexp("TODO"))

	assert.Equal(t, "handle overflow", ExtractTodoText("// fixme: handle overflow", "FIXME"))
}
