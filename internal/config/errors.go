package config

import (
	"errors"
	"fmt"
)

// ErrValidationFailed indicates the configuration failed validation.
var ErrValidationFailed = errors.New("validation failed")

// ParseError reports a malformed configuration file. Line and Column are
// zero when the decoder gives no position.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing config %s:%d:%d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parsing config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Path is the setting path that failed validation.
	Path string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Is reports ErrValidationFailed as a match so callers can test the
// category without unwrapping.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
