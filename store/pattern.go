package store

import (
	"regexp"
	"strings"
)

// Pattern is a compiled key pattern. Only `*` is a wildcard (matching any run
// of characters, including none); every other character matches literally, so
// a `.` or `[` in a key never behaves as a metacharacter.
type Pattern struct {
	re *regexp.Regexp
}

// CompilePattern compiles a simple-glob key pattern.
func CompilePattern(pattern string) Pattern {
	escaped := regexp.QuoteMeta(pattern)
	expr := "^" + strings.ReplaceAll(escaped, `\*`, ".*") + "$"
	return Pattern{re: regexp.MustCompile(expr)}
}

// Match reports whether key matches the pattern.
func (p Pattern) Match(key string) bool {
	return p.re.MatchString(key)
}
