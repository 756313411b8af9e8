package service

import (
	"errors"
	"fmt"
)

var (
	// ErrExpenseNotFound is returned when an expense does not exist or is
	// owned by someone else.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrShareManaged is returned when a participant tries to change or
	// remove a share record directly. Shares follow their split creator.
	ErrShareManaged = errors.New("split shares can only be changed by the split creator")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
