package definitions

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

// DefaultPattern matches "breakpoint-<name>-min" and "breakpoint-<name>-max".
var DefaultPattern = regexp.MustCompile(`^breakpoint-(\w*)-((max)|(min))$`)

// ParseConfig controls how variable names map to ranges.
//
// Nil fields take defaults: DefaultPattern, the name in group 1, the bound
// kind in group 2, and the kind "min" as the lower bound. Group 0 is the
// whole match.
type ParseConfig struct {
	Pattern   *regexp.Regexp
	NameGroup *int
	KindGroup *int
	IsMin     func(kind string) bool
}

// Group returns a pointer to n for ParseConfig group fields.
func Group(n int) *int {
	return &n
}

// DefaultParseConfig returns the configuration used for a zero ParseConfig.
func DefaultParseConfig() ParseConfig {
	return ParseConfig{}.withDefaults()
}

func (c ParseConfig) withDefaults() ParseConfig {
	if c.Pattern == nil {
		c.Pattern = DefaultPattern
	}
	if c.NameGroup == nil {
		c.NameGroup = Group(1)
	}
	if c.KindGroup == nil {
		c.KindGroup = Group(2)
	}
	if c.IsMin == nil {
		c.IsMin = func(kind string) bool { return kind == "min" }
	}
	return c
}

// Pair is one variable in source order.
type Pair struct {
	Key   string
	Value any
}

// Parse extracts ranges from a variable map. Keys are visited in sorted
// order, so the result is deterministic; use ParsePairs to keep the
// source order instead.
func Parse(values map[string]any, cfg ParseConfig) breakpoint.Definitions {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: k, Value: values[k]})
	}
	return ParsePairs(pairs, cfg)
}

// ParsePairs extracts ranges from variables in order.
//
// Only string values are considered; keys that do not match the pattern are
// ignored. A range appears at the position of the first variable naming it.
// When a bound is given twice the later value wins.
func ParsePairs(pairs []Pair, cfg ParseConfig) breakpoint.Definitions {
	cfg = cfg.withDefaults()

	out := breakpoint.Definitions{}
	index := map[string]int{}
	for _, p := range pairs {
		value, ok := p.Value.(string)
		if !ok {
			continue
		}
		nameGroup, kindGroup := *cfg.NameGroup, *cfg.KindGroup
		m := cfg.Pattern.FindStringSubmatch(p.Key)
		if m == nil || nameGroup < 0 || kindGroup < 0 || nameGroup >= len(m) || kindGroup >= len(m) {
			continue
		}
		name := norm.NFC.String(m[nameGroup])

		i, seen := index[name]
		if !seen {
			i = len(out)
			index[name] = i
			out = append(out, breakpoint.Definition{Name: name})
		}
		bound := breakpoint.Size(strings.TrimSpace(value))
		if cfg.IsMin(m[kindGroup]) {
			out[i].Min = bound
		} else {
			out[i].Max = bound
		}
	}
	return out
}
