package mocap

import (
	"errors"
	"fmt"
)

// ErrParse is the sentinel for all TSV structure and value errors. Callers
// match it with errors.Is to distinguish malformed files from I/O failures.
var ErrParse = errors.New("mocap: parse error")

// ParseError describes where and why a TSV file failed to parse. Line is
// 1-based; zero means the error is not tied to a specific line.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("parse %s: %s", e.File, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrParse }

func parseErrorf(file string, line int, format string, args ...interface{}) error {
	return &ParseError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}
