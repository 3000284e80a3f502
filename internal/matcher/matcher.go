package matcher

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Options control the flags a pattern is compiled with
type Options struct {
	CaseInsensitive bool
	MultiLine       bool
}

// Pattern is a regular expression compiled once and applied line by line
type Pattern struct {
	id string
	re *regexp.Regexp
}

// Match is the first match of a pattern on a line
type Match struct {
	Text   string
	Groups map[string]string
}

func Compile(id, expr string, opts Options) (*Pattern, error) {
	var flags string
	if opts.CaseInsensitive {
		flags += "i"
	}
	if opts.MultiLine {
		flags += "m"
	}
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %s: %w", id, err)
	}
	return &Pattern{id: id, re: re}, nil
}

func (p *Pattern) ID() string {
	return p.id
}

func (p *Pattern) String() string {
	return p.re.String()
}

// Match evaluates the pattern against a single line. Only the leftmost match
// is reported; named groups that did not participate are omitted.
func (p *Pattern) Match(line string) (Match, bool) {
	loc := p.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return Match{}, false
	}

	m := Match{Text: line[loc[0]:loc[1]]}
	for i, name := range p.re.SubexpNames() {
		if name == "" || loc[2*i] < 0 {
			continue
		}
		if m.Groups == nil {
			m.Groups = make(map[string]string)
		}
		m.Groups[name] = line[loc[2*i]:loc[2*i+1]]
	}
	return m, true
}

// TodoPattern matches marker inside #, // or /* */ comments. The text after
// the marker is captured in the hash, slash or block group respectively. A
// marker that ends the line counts as a match.
func TodoPattern(marker string) (*Pattern, error) {
	m := regexp.QuoteMeta(marker)
	expr := fmt.Sprintf(`#.*?%[1]s(?:[\s:]|$)(?P<hash>.*?)$|//.*?%[1]s(?:[\s:]|$)(?P<slash>.*?)$|/\*.*?%[1]s[\s:](?P<block>.*?)\*/`, m)
	return Compile(marker, expr, Options{CaseInsensitive: true, MultiLine: true})
}

// ExtractTodoText returns the text following the first occurrence of marker,
// stripped of surrounding colons and whitespace and of a closing */.
func ExtractTodoText(line, marker string) string {
	if marker == "" {
		return ""
	}
	loc := markerRegexp(marker).FindStringIndex(line)
	if loc == nil {
		return ""
	}

	rest := line[loc[1]:]
	rest = strings.TrimSpace(strings.Trim(rest, " :"))
	rest = strings.TrimSpace(strings.TrimSuffix(rest, "*/"))
	return strings.TrimSpace(strings.Trim(rest, " :"))
}

// marker -> case-insensitive literal regexp
var markerCache sync.Map

func markerRegexp(marker string) *regexp.Regexp {
	if re, ok := markerCache.Load(marker); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := markerCache.LoadOrStore(marker, regexp.MustCompile("(?i)"+regexp.QuoteMeta(marker)))
	return re.(*regexp.Regexp)
}
