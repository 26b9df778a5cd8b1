package mediaquery

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// RootFontSize is the pixel size of one em or rem.
const RootFontSize = 16

// ParseError describes a malformed media condition.
type ParseError struct {
	Query   string
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("media query %q at %d: %s", e.Query, e.Pos, e.Message)
}

// featureKind names a supported media feature.
type featureKind string

const (
	featWidth       featureKind = "width"
	featMinWidth    featureKind = "min-width"
	featMaxWidth    featureKind = "max-width"
	featHeight      featureKind = "height"
	featMinHeight   featureKind = "min-height"
	featMaxHeight   featureKind = "max-height"
	featOrientation featureKind = "orientation"
)

// feature is one parenthesised test. Pixels holds the resolved length for
// dimension features; Keyword holds the orientation.
type feature struct {
	Kind     featureKind
	Pixels   float64
	HasValue bool
	Keyword  string
}

// query is one entry of a comma separated list.
type query struct {
	Not       bool
	MediaType string
	Features  []feature
}

type token struct {
	text string
	pos  int
}

func tokenize(src string) []token {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(' || c == ')' || c == ':' || c == ',':
			toks = append(toks, token{text: string(c), pos: i})
			i++
		default:
			start := i
			for i < len(src) && !strings.ContainsRune("():, \t\n\r", rune(src[i])) {
				i++
			}
			toks = append(toks, token{text: strings.ToLower(src[start:i]), pos: start})
		}
	}
	return toks
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{pos: len(p.src)}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &ParseError{Query: p.src, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(text string) error {
	t, ok := p.next()
	if !ok {
		return p.errorf(t.pos, "expected %q, got end of input", text)
	}
	if t.text != text {
		return p.errorf(t.pos, "expected %q, got %q", text, t.text)
	}
	return nil
}

// parseList parses a complete condition. An empty or blank condition yields
// no queries.
func parseList(src string) ([]query, error) {
	p := &parser{src: src, toks: tokenize(src)}
	if len(p.toks) == 0 {
		return nil, nil
	}
	var out []query
	for {
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}
		out = append(out, q)
		t, ok := p.next()
		if !ok {
			return out, nil
		}
		if t.text != "," {
			return nil, p.errorf(t.pos, "unexpected %q", t.text)
		}
	}
}

func (p *parser) parseQuery() (query, error) {
	var q query
	t, ok := p.peek()
	if !ok {
		return q, p.errorf(t.pos, "empty query")
	}
	if t.text == "not" || t.text == "only" {
		q.Not = t.text == "not"
		p.next()
		t, ok = p.peek()
		if !ok || t.text == "(" {
			return q, p.errorf(t.pos, "media type required after prefix")
		}
	}
	if t.text != "(" {
		switch t.text {
		case "all", "screen", "print":
			q.MediaType = t.text
		default:
			return q, p.errorf(t.pos, "unknown media type %q", t.text)
		}
		p.next()
		if t, ok := p.peek(); !ok || t.text == "," {
			return q, nil
		}
		if err := p.expect("and"); err != nil {
			return q, err
		}
	}
	for {
		f, err := p.parseFeature()
		if err != nil {
			return q, err
		}
		q.Features = append(q.Features, f)
		t, ok := p.peek()
		if !ok || t.text != "and" {
			return q, nil
		}
		p.next()
	}
}

func (p *parser) parseFeature() (feature, error) {
	if err := p.expect("("); err != nil {
		return feature{}, err
	}
	name, ok := p.next()
	if !ok {
		return feature{}, p.errorf(name.pos, "expected media feature")
	}
	f := feature{Kind: featureKind(name.text)}
	switch f.Kind {
	case featWidth, featHeight, featMinWidth, featMaxWidth, featMinHeight, featMaxHeight, featOrientation:
	default:
		return f, p.errorf(name.pos, "unsupported media feature %q", name.text)
	}

	t, ok := p.next()
	if ok && t.text == ")" {
		if f.Kind != featWidth && f.Kind != featHeight && f.Kind != featOrientation {
			return f, p.errorf(t.pos, "feature %q requires a value", f.Kind)
		}
		return f, nil
	}
	if !ok || t.text != ":" {
		return f, p.errorf(t.pos, "expected \":\" after %q", f.Kind)
	}
	val, ok := p.next()
	if !ok {
		return f, p.errorf(val.pos, "expected value for %q", f.Kind)
	}
	f.HasValue = true
	if f.Kind == featOrientation {
		if val.text != "portrait" && val.text != "landscape" {
			return f, p.errorf(val.pos, "orientation must be portrait or landscape, got %q", val.text)
		}
		f.Keyword = val.text
	} else {
		px, err := ParseLength(val.text)
		if err != nil {
			return f, p.errorf(val.pos, "%v", err)
		}
		f.Pixels = px
	}
	return f, p.expect(")")
}

// ParseLength resolves a CSS length to pixels. A bare number is accepted
// only when it is zero.
func ParseLength(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	unit := 1.0
	num := s
	switch {
	case strings.HasSuffix(s, "rem"):
		unit, num = RootFontSize, strings.TrimSuffix(s, "rem")
	case strings.HasSuffix(s, "em"):
		unit, num = RootFontSize, strings.TrimSuffix(s, "em")
	case strings.HasSuffix(s, "px"):
		num = strings.TrimSuffix(s, "px")
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid length %q", s)
	}
	if num == s && v != 0 {
		return 0, fmt.Errorf("length %q needs a unit", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative length %q", s)
	}
	return v * unit, nil
}
