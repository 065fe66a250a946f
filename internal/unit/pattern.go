// SPDX-License-Identifier: MPL-2.0

package unit

import (
	"fmt"
	"regexp"
)

// Pattern is an exclusion pattern matched against canonical identifiers.
type Pattern struct {
	re *regexp.Regexp
}

// Literal returns a pattern matching exactly the given identifier.
func Literal(id string) Pattern {
	return Pattern{re: regexp.MustCompile("^" + regexp.QuoteMeta(id) + "$")}
}

// Regexp wraps an already compiled regular expression. It is matched unanchored,
// like any other regexp.
func Regexp(re *regexp.Regexp) Pattern {
	return Pattern{re: re}
}

// CompilePatterns compiles each expression as an unanchored regular expression.
// This is how patterns given on the command line are interpreted.
func CompilePatterns(exprs []string) ([]Pattern, error) {
	patterns := make([]Pattern, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", expr, err)
		}
		patterns = append(patterns, Regexp(re))
	}
	return patterns, nil
}

// Match reports whether the pattern matches the identifier.
func (p Pattern) Match(id ID) bool {
	return p.re != nil && p.re.MatchString(string(id))
}

// String returns the underlying expression.
func (p Pattern) String() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}
