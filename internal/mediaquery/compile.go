package mediaquery

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// Env is the viewport a condition is evaluated against, in CSS pixels.
type Env struct {
	Width  float64
	Height float64
}

func (e Env) vars() map[string]any {
	return map[string]any{"width": e.Width, "height": e.Height}
}

// Query is a compiled media condition.
type Query struct {
	// Source is the condition as written.
	Source string
	// Expr is the expr-lang expression the condition compiles to.
	Expr string

	program *exprvm.Program
}

// Compile parses and compiles a media condition.
func Compile(source string) (*Query, error) {
	queries, err := parseList(source)
	if err != nil {
		return nil, err
	}
	code := render(queries)
	program, err := exprlang.Compile(code,
		exprlang.Env(Env{}.vars()),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile media query %q: %w", source, err)
	}
	return &Query{Source: source, Expr: code, program: program}, nil
}

// Match reports whether the condition holds for env.
func (q *Query) Match(env Env) (bool, error) {
	out, err := exprlang.Run(q.program, env.vars())
	if err != nil {
		return false, fmt.Errorf("evaluate media query %q: %w", q.Source, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("evaluate media query %q: got %T, want bool", q.Source, out)
	}
	return matched, nil
}

func render(queries []query) string {
	if len(queries) == 0 {
		return "true"
	}
	parts := make([]string, 0, len(queries))
	for _, q := range queries {
		parts = append(parts, renderQuery(q))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ") || (") + ")"
}

func renderQuery(q query) string {
	terms := make([]string, 0, len(q.Features)+1)
	if q.MediaType == "print" {
		terms = append(terms, "false")
	}
	for _, f := range q.Features {
		terms = append(terms, renderFeature(f))
	}
	code := "true"
	if len(terms) > 0 {
		code = strings.Join(terms, " && ")
	}
	if q.Not {
		return "!(" + code + ")"
	}
	return code
}

func renderFeature(f feature) string {
	n := strconv.FormatFloat(f.Pixels, 'f', -1, 64)
	switch f.Kind {
	case featMinWidth:
		return "width >= " + n
	case featMaxWidth:
		return "width <= " + n
	case featMinHeight:
		return "height >= " + n
	case featMaxHeight:
		return "height <= " + n
	case featWidth:
		if !f.HasValue {
			return "width > 0"
		}
		return "width == " + n
	case featHeight:
		if !f.HasValue {
			return "height > 0"
		}
		return "height == " + n
	case featOrientation:
		switch f.Keyword {
		case "portrait":
			return "height >= width"
		case "landscape":
			return "width > height"
		}
		return "true"
	}
	return "false"
}

// Evaluator caches compiled conditions by source string.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*Query
}

// NewEvaluator returns an empty Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*Query)}
}

// Compile returns the cached compilation of source, compiling it on first use.
func (e *Evaluator) Compile(source string) (*Query, error) {
	e.mu.RLock()
	q, ok := e.cache[source]
	e.mu.RUnlock()
	if ok {
		return q, nil
	}
	q, err := Compile(source)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.cache[source] = q
	e.mu.Unlock()
	return q, nil
}

// Match compiles source if needed and evaluates it against env.
func (e *Evaluator) Match(source string, env Env) (bool, error) {
	q, err := e.Compile(source)
	if err != nil {
		return false, err
	}
	return q.Match(env)
}

// Len returns the number of cached conditions.
func (e *Evaluator) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
