package ops

import (
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// RegexTimeout bounds a single regular expression match so a pathological
// pattern cannot hang a bake.
const RegexTimeout = 5 * time.Second

// CompileRegex compiles a user-supplied pattern with JavaScript regex syntax
// and the modifiers the regex-driven operations expose.
func CompileRegex(pattern string, caseInsensitive, multiline, dotAll bool) (*regexp2.Regexp, error) {
	opts := regexp2.ECMAScript
	if caseInsensitive {
		opts |= regexp2.IgnoreCase
	}
	if multiline {
		opts |= regexp2.Multiline
	}
	if dotAll {
		// ECMAScript mode ignores Singleline for '.', so spell it out.
		pattern = dotMatchesAll(pattern)
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = RegexTimeout
	return re, nil
}

// dotMatchesAll rewrites every unescaped '.' outside a character class as
// [\s\S], the JavaScript idiom for a dot that also matches line breaks.
func dotMatchesAll(pattern string) string {
	if !strings.Contains(pattern, ".") {
		return pattern
	}
	var b strings.Builder
	b.Grow(len(pattern) + 8)
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			i++
			b.WriteByte(pattern[i])
			continue
		case c == '[' && !inClass:
			inClass = true
		case c == ']' && inClass:
			inClass = false
		case c == '.' && !inClass:
			b.WriteString(`[\s\S]`)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
