package breakpoint

import "strings"

// Condition builds the media condition watched for a range.
//
// The lower bound becomes a min-width term, the upper bound a max-width term;
// both present are joined with "and". A range without bounds yields the empty
// condition, which always matches.
//
//	Condition(Definition{Name: "md", Min: Px(768), Max: Px(991)})
//	// "(min-width: 768px) and (max-width: 991px)"
func Condition(def Definition) string {
	terms := make([]string, 0, 2)
	if def.Min.IsSet() {
		terms = append(terms, "(min-width: "+def.Min.String()+")")
	}
	if def.Max.IsSet() {
		terms = append(terms, "(max-width: "+def.Max.String()+")")
	}
	return strings.Join(terms, " and ")
}

// Conditions returns the condition of every definition, keyed by name.
func (d Definitions) Conditions() map[string]string {
	out := make(map[string]string, len(d))
	for _, def := range d {
		out[def.Name] = Condition(def)
	}
	return out
}
