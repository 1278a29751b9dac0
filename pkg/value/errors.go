package value

import (
	"bytes"
	"fmt"
)

// ParseError reports invalid JSON input. Offset is the byte offset at which
// the problem was detected; Line and Column are 1-based.
type ParseError struct {
	Offset int64
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("json: %s at line %d, column %d (offset %d)", e.Msg, e.Line, e.Column, e.Offset)
}

func newParseError(data []byte, offset int64, msg string) *ParseError {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	if offset < 0 {
		offset = 0
	}
	head := data[:offset]
	line := bytes.Count(head, []byte{'\n'}) + 1
	col := int(offset) - bytes.LastIndexByte(head, '\n')
	return &ParseError{Offset: offset, Line: line, Column: col, Msg: msg}
}

// CycleError reports an array or object that contains itself.
type CycleError struct {
	Path string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("json: cyclic value at %s", e.Path)
}
