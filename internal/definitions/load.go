package definitions

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

// Load reads definitions from a file, choosing the format by extension.
//
// YAML and JSON files hold either a list of {name, min, max} entries, a
// mapping of name to {min, max}, or flat breakpoint variables; any of these
// may sit under a top-level "breakpoints" key. CUE files define a
// "breakpoints" struct or list of the same shapes. Stylesheets are scanned
// with ParseCSSExports. Numeric bounds are pixels.
func Load(path string) (breakpoint.Definitions, error) {
	return LoadWith(path, ParseConfig{})
}

// LoadWith is Load with a custom variable pattern for flat inputs.
func LoadWith(path string, cfg ParseConfig) (breakpoint.Definitions, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "definitions file not found", File: path}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading file: %v", err), File: path}
	}

	var defs breakpoint.Definitions
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
		defs, err = decodeYAML(path, data, cfg)
	case ".cue":
		defs, err = decodeCUE(path, data)
	case ".css", ".scss", ".sass", ".less":
		defs, err = ParseCSSExports(bytes.NewReader(data), cfg)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported file extension %q", ext), File: path}
	}
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, &LoadError{Code: ErrCodeNoDefs, Message: "no breakpoints defined", File: path}
	}
	return defs, nil
}

// bounds is the {min, max} body of a mapping entry.
type bounds struct {
	Min breakpoint.Bound `yaml:"min"`
	Max breakpoint.Bound `yaml:"max"`
}

func decodeYAML(path string, data []byte, cfg ParseConfig) (breakpoint.Definitions, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), File: path}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == "breakpoints" {
				root = root.Content[i+1]
				break
			}
		}
	}

	switch root.Kind {
	case yaml.SequenceNode:
		var defs breakpoint.Definitions
		if err := root.Decode(&defs); err != nil {
			return nil, nodeError(path, root, ErrCodeShape, err.Error())
		}
		return defs, nil

	case yaml.MappingNode:
		var defs breakpoint.Definitions
		var flat []Pair
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, val := root.Content[i], root.Content[i+1]
			switch val.Kind {
			case yaml.MappingNode:
				var b bounds
				if err := val.Decode(&b); err != nil {
					return nil, nodeError(path, val, ErrCodeShape, fmt.Sprintf("breakpoint %q: %v", key.Value, err))
				}
				defs = append(defs, breakpoint.Definition{Name: key.Value, Min: b.Min, Max: b.Max})
			case yaml.ScalarNode:
				var v any = val.Value
				if val.Tag != "!!str" {
					v = nil // only string variables name a bound
				}
				flat = append(flat, Pair{Key: key.Value, Value: v})
			default:
				return nil, nodeError(path, val, ErrCodeShape, fmt.Sprintf("breakpoint %q must be a mapping or a string", key.Value))
			}
		}
		return append(defs, ParsePairs(flat, cfg)...), nil

	default:
		return nil, nodeError(path, root, ErrCodeShape, "expected a list or a mapping of breakpoints")
	}
}

func nodeError(path string, n *yaml.Node, code, msg string) *LoadError {
	return &LoadError{Code: code, Message: msg, File: path, Line: n.Line, Column: n.Column}
}

func decodeCUE(path string, data []byte) (breakpoint.Definitions, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("building CUE value: %v", err), File: path}
	}

	bp := value.LookupPath(cue.ParsePath("breakpoints"))
	if !bp.Exists() {
		return nil, nil
	}

	var defs breakpoint.Definitions
	switch bp.IncompleteKind() {
	case cue.StructKind:
		iter, err := bp.Fields()
		if err != nil {
			return nil, cueError(path, bp, ErrCodeShape, fmt.Sprintf("iterating breakpoints: %v", err))
		}
		for iter.Next() {
			name := strings.Trim(iter.Selector().String(), `"`)
			def, err := cueDefinition(path, name, iter.Value())
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}

	case cue.ListKind:
		iter, err := bp.List()
		if err != nil {
			return nil, cueError(path, bp, ErrCodeShape, fmt.Sprintf("iterating breakpoints: %v", err))
		}
		for iter.Next() {
			v := iter.Value()
			name, err := v.LookupPath(cue.ParsePath("name")).String()
			if err != nil {
				return nil, cueError(path, v, ErrCodeEmptyName, "list entry needs a string name")
			}
			def, err := cueDefinition(path, name, v)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}

	default:
		return nil, cueError(path, bp, ErrCodeShape, "breakpoints must be a struct or a list")
	}
	return defs, nil
}

func cueDefinition(path, name string, v cue.Value) (breakpoint.Definition, error) {
	def := breakpoint.Definition{Name: name}
	var err error
	if def.Min, err = cueBound(path, name, v.LookupPath(cue.ParsePath("min"))); err != nil {
		return def, err
	}
	if def.Max, err = cueBound(path, name, v.LookupPath(cue.ParsePath("max"))); err != nil {
		return def, err
	}
	return def, nil
}

func cueBound(path, name string, v cue.Value) (breakpoint.Bound, error) {
	if !v.Exists() {
		return "", nil
	}
	switch v.IncompleteKind() {
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return "", cueError(path, v, ErrCodeInvalidBound, fmt.Sprintf("breakpoint %q: %v", name, err))
		}
		return breakpoint.Px(f), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return "", cueError(path, v, ErrCodeInvalidBound, fmt.Sprintf("breakpoint %q: %v", name, err))
		}
		return breakpoint.Size(s), nil
	default:
		return "", cueError(path, v, ErrCodeInvalidBound, fmt.Sprintf("breakpoint %q: bound must be a number or a string", name))
	}
}

func cueError(path string, v cue.Value, code, msg string) *LoadError {
	e := &LoadError{Code: code, Message: msg, File: path}
	if pos := v.Pos(); pos.IsValid() {
		e.Line = pos.Line()
		e.Column = pos.Column()
	}
	return e
}
