package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Error captures field level validation issues that callers can surface to
// users verbatim. It is the only error class allowed to escape the scheduling
// engine's public operations.
type Error struct {
	FieldErrors map[string]string
}

// NewError returns a validation error for a single field.
func NewError(field, message string) *Error {
	e := &Error{}
	e.Add(field, message)
	return e
}

// NewErrorf returns a validation error with a formatted message.
func NewErrorf(field, format string, args ...any) *Error {
	return NewError(field, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil || len(e.FieldErrors) == 0 {
		return "validation failed"
	}

	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.FieldErrors[field]))
	}
	return strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (e *Error) HasErrors() bool {
	return e != nil && len(e.FieldErrors) > 0
}

// Add records a field level validation error.
func (e *Error) Add(field, message string) {
	if e.FieldErrors == nil {
		e.FieldErrors = make(map[string]string)
	}
	e.FieldErrors[field] = message
}
