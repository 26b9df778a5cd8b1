package breakpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCondition(t *testing.T) {
	tests := []struct {
		name     string
		def      Definition
		expected string
	}{
		{"both bounds", Definition{Name: "md", Min: Px(768), Max: Px(991)}, "(min-width: 768px) and (max-width: 991px)"},
		{"max only", Definition{Name: "sm", Max: Size("767px")}, "(max-width: 767px)"},
		{"min only", Definition{Name: "xl", Min: Px(1200)}, "(min-width: 1200px)"},
		{"no bounds", Definition{Name: "all"}, ""},
		{"pre-formatted em", Definition{Name: "wide", Min: Size("48em")}, "(min-width: 48em)"},
		{"fractional px", Definition{Name: "half", Max: Px(767.5)}, "(max-width: 767.5px)"},
		{"zero is absent", Definition{Name: "z", Min: Px(0), Max: Px(599)}, "(max-width: 599px)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Condition(tt.def))
		})
	}
}

func TestConditionIsPure(t *testing.T) {
	def := Definition{Name: "md", Min: Px(768), Max: Px(991)}
	assert.Equal(t, Condition(def), Condition(def))
}

func TestDefinitionsConditions(t *testing.T) {
	defs := Definitions{
		{Name: "sm", Max: Size("767px")},
		{Name: "xl", Min: Size("1200px")},
	}
	assert.Equal(t, map[string]string{
		"sm": "(max-width: 767px)",
		"xl": "(min-width: 1200px)",
	}, defs.Conditions())
}
