package lang

import "fmt"

// ParseError reports a syntax problem in a .lang file. Unlike block.ParseError
// this carries a 1-based source line but no column — rule files are parsed a
// line at a time, and columns within a line don't help diagnose the errors
// this package can raise (missing section, bad pattern, unknown opcode).
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

func newParseError(file string, line int, format string, args ...any) *ParseError {
	return &ParseError{File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}
