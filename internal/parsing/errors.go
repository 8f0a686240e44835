package parsing

import "fmt"

// MissingSectionError represents a required section anchor absent from a page
type MissingSectionError struct {
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("missing section: %s", e.Section)
}

// MalformedFieldError represents a field whose text does not have the expected shape
type MalformedFieldError struct {
	Field string
	Value string
	Cause error
}

func (e *MalformedFieldError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("malformed %s %q", e.Field, e.Value)
}

func (e *MalformedFieldError) Unwrap() error {
	return e.Cause
}

// ParseError represents a failure to parse a document at all
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
