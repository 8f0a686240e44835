package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents an assembled record that failed schema constraints
type ValidationError struct {
	Title  string
	Fields []FieldError
	Cause  error
}

// FieldError represents a single failed constraint on a field
type FieldError struct {
	Field string
	Tag   string
	Value string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation error: recipe %q: %v", e.Title, e.Cause)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s failed %q (%s)", f.Field, f.Tag, f.Value))
	}
	return fmt.Sprintf("validation error: recipe %q: %s", e.Title, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func newValidationError(title string, err error) *ValidationError {
	ve := &ValidationError{Title: title, Cause: err}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			ve.Fields = append(ve.Fields, FieldError{
				Field: fe.Namespace(),
				Tag:   fe.Tag(),
				Value: fmt.Sprintf("%v", fe.Value()),
			})
		}
	}
	return ve
}
