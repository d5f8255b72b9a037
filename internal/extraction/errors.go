package extraction

import "fmt"

// ParseError indicates a model response did not contain the expected JSON
// shape. It is terminal for the attempt that produced it; a fresh extraction
// attempt may still succeed.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Reason)
}

// The two scan-failure modes are distinct signals: a response with no object
// literal at all versus a response whose first JSON value is an array or
// scalar. Callers must never treat one as the other.
const (
	reasonNoObject  = "no object found"
	reasonNotObject = "not an object"
)

// NewParseError creates a ParseError with the given reason.
func NewParseError(reason string) *ParseError {
	return &ParseError{Reason: reason}
}
