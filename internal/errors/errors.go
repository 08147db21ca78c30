// Package errors provides a lightweight structured error type (BlogError)
// for category-based classification across the build pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory classifies a BlogError for propagation and exit-code mapping.
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Content and theme errors
	CategoryTheme ErrorCategory = "theme"
	CategoryParse ErrorCategory = "parse"

	// Build and output errors
	CategoryRender     ErrorCategory = "render"
	CategoryGeneration ErrorCategory = "generation"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Everything else
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// BlogError is a structured error with category, severity and context.
type BlogError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for BlogError.
type ContextFields map[string]any

// Error implements the error interface.
func (e *BlogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling.
func (e *BlogError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *BlogError) WithContext(key string, value any) *BlogError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new BlogError.
func New(category ErrorCategory, severity ErrorSeverity, message string) *BlogError {
	return &BlogError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new BlogError that wraps an existing error.
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *BlogError {
	return &BlogError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category.
func IsCategory(err error, category ErrorCategory) bool {
	if be, ok := err.(*BlogError); ok {
		return be.Category == category
	}
	return false
}

// IsWarning reports whether the error is warning severity (contained, logged, build continues).
func IsWarning(err error) bool {
	if be, ok := err.(*BlogError); ok {
		return be.Severity == SeverityWarning
	}
	return false
}

// GetCategory extracts the category from an error, or CategoryInternal if not a BlogError.
func GetCategory(err error) ErrorCategory {
	if be, ok := err.(*BlogError); ok {
		return be.Category
	}
	return CategoryInternal
}
