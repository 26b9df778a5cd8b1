package breakpoint

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UnmarshalJSON accepts a number (pixels) or a string.
func (b *Bound) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] != '"' && string(data) != "null" {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("bound must be a number or a string: %s", data)
		}
		f, err := n.Float64()
		if err != nil {
			return fmt.Errorf("bound %s: %w", data, err)
		}
		*b = Px(f)
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("bound must be a number or a string: %s", data)
	}
	if s == nil {
		*b = ""
		return nil
	}
	*b = Size(*s)
	return nil
}

// UnmarshalYAML accepts a number (pixels) or a string.
func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: bound must be a scalar", node.Line)
	}
	switch node.Tag {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: bound %q: %w", node.Line, node.Value, err)
		}
		*b = Px(f)
	case "!!null":
		*b = ""
	default:
		*b = Size(node.Value)
	}
	return nil
}
