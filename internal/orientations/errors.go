package orientations

import "fmt"

// FormatError reports a structurally invalid input: a missing file or
// column, a malformed header, or a table that violates its invariants.
type FormatError struct {
	Path string
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid format in %s: %s", e.Path, e.Msg)
}

// ParseError reports a malformed numeric field, with the line it was
// found on.
type ParseError struct {
	Path string
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error in %s line %d: %s: %v", e.Path, e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("parse error in %s line %d: %s", e.Path, e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptySourceError reports that an input contained no usable time samples.
type EmptySourceError struct {
	Path string
}

func (e *EmptySourceError) Error() string {
	return fmt.Sprintf("no time samples found in %s", e.Path)
}
