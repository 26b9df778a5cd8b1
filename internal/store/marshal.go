package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/breakpoints/internal/breakpoint"
)

// marshalSet converts an active set to canonical JSON TEXT.
// A nil set is stored as [] so reads never yield nil.
func marshalSet(s breakpoint.ActiveSet) (string, error) {
	data, err := breakpoint.MarshalCanonical(s.Clone())
	if err != nil {
		return "", fmt.Errorf("marshal active set: %w", err)
	}
	return string(data), nil
}

func unmarshalSet(text string) (breakpoint.ActiveSet, error) {
	var s breakpoint.ActiveSet
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return nil, fmt.Errorf("unmarshal active set: %w", err)
	}
	return s.Clone(), nil
}

// marshalDefinitions converts definitions to canonical JSON TEXT.
func marshalDefinitions(defs breakpoint.Definitions) (string, error) {
	if defs == nil {
		defs = breakpoint.Definitions{}
	}
	data, err := breakpoint.MarshalCanonical(defs)
	if err != nil {
		return "", fmt.Errorf("marshal definitions: %w", err)
	}
	return string(data), nil
}

func unmarshalDefinitions(text string) (breakpoint.Definitions, error) {
	defs := breakpoint.Definitions{}
	if err := json.Unmarshal([]byte(text), &defs); err != nil {
		return nil, fmt.Errorf("unmarshal definitions: %w", err)
	}
	return defs, nil
}
