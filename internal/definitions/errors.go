package definitions

import "fmt"

// LoadError describes a problem with a definition file or a definition.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *LoadError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Error codes, shared with the CLI's structured output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoDefs      = "E003" // File holds no definitions
	ErrCodeParseFailed = "E004" // Syntax error in the file
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeFormat      = "E008" // Unsupported file extension

	ErrCodeEmptyName    = "E201" // Definition without a name
	ErrCodeDuplicate    = "E202" // Name defined more than once
	ErrCodeInvalidBound = "E203" // Bound is not a CSS length
	ErrCodeInverted     = "E204" // Lower bound exceeds upper bound
	ErrCodeShape        = "E205" // Entry has the wrong structure
)
