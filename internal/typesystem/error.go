package typesystem

import "fmt"

// TooComplexError is returned when a recursive type operation exceeds the
// configured depth limit.
type TooComplexError struct {
	Op    string
	Limit int
}

func (e *TooComplexError) Error() string {
	return fmt.Sprintf("type too complex to resolve: %s exceeded depth %d", e.Op, e.Limit)
}

func NewTooComplexError(op string, limit int) *TooComplexError {
	return &TooComplexError{Op: op, Limit: limit}
}

// InvariantError reports a violated canonical-shape invariant. It is raised
// with panic, never returned.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "internal error: " + e.Msg
}

// Invariant panics with an InvariantError.
func Invariant(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}

// ParseError indicates a malformed type string.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse type %q at %d: %s", e.Input, e.Pos, e.Msg)
}
