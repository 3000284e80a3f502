package scanner

import (
	"regexp"
	"strings"
)

// compileGlob translates a shell-style filename pattern into an anchored
// regexp. As with fnmatch, * and ? also match path separators, so
// "src/generated/*" covers every file below src/generated.
func compileGlob(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`^(?s:`)

	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				b.WriteString(`\[`)
				continue
			}
			class := strings.ReplaceAll(pattern[i+1:j], `\`, `\\`)
			switch {
			case strings.HasPrefix(class, "!"):
				class = "^" + class[1:]
			case strings.HasPrefix(class, "^"):
				class = `\` + class
			}
			b.WriteString("[" + class + "]")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}

	b.WriteString(`)$`)
	re, err := regexp.Compile(b.String())
	if err != nil {
		// e.g. a reversed range like [z-a]; match the pattern literally
		return regexp.MustCompile(`^` + regexp.QuoteMeta(pattern) + `$`)
	}
	return re
}
