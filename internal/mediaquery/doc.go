// Package mediaquery evaluates media conditions against an in-process
// viewport.
//
// A condition such as "(min-width: 768px) and (max-width: 991px)" is parsed
// into a small AST, rendered as an expr-lang expression over the variables
// width and height, and compiled once. Supported syntax:
//
//   - comma separated query lists (any query matching matches the list)
//   - optional "only" / "not" prefixes and the media types all, screen, print
//   - width, height and their min-/max- forms, in px, em or rem (16px base)
//   - orientation: portrait | landscape
//
// The empty condition always matches.
package mediaquery
