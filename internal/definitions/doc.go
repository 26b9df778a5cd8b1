// Package definitions turns external descriptions of breakpoints into
// breakpoint.Definitions.
//
// Two families of input are supported:
//
//   - Flat variables named after a pattern, by default
//     "breakpoint-<name>-min" and "breakpoint-<name>-max", as exported from
//     stylesheets (Parse, ParsePairs, ParseCSSExports).
//   - Definition files (Load): YAML or JSON, CUE, and CSS/SCSS/Less.
//
// Validate reports problems the engine itself tolerates, such as duplicate
// names or an inverted range.
package definitions
