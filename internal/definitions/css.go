package definitions

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

var (
	cssComment     = regexp.MustCompile(`(?s)/\*.*?\*/`)
	cssDeclaration = regexp.MustCompile(`([$@]?-{0,2}[A-Za-z_][-\w]*)\s*:\s*([^;{}]+);`)
)

// ParseCSSExports reads "name: value;" declarations from a stylesheet and
// extracts ranges from them in source order.
//
// It understands CSS-module ":export" blocks, custom properties
// ("--breakpoint-md-min") and SCSS or Less variables ("$breakpoint-md-min",
// "@breakpoint-md-min"). Quotes around values are removed. Declarations
// that are not breakpoint variables are ignored.
func ParseCSSExports(r io.Reader, cfg ParseConfig) (breakpoint.Definitions, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stylesheet: %w", err)
	}
	src := cssComment.ReplaceAllString(string(data), "")

	var pairs []Pair
	for _, m := range cssDeclaration.FindAllStringSubmatch(src, -1) {
		key := strings.TrimLeft(m[1], "$@-")
		value := strings.Trim(strings.TrimSpace(m[2]), `"'`)
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return ParsePairs(pairs, cfg), nil
}
