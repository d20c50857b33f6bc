package mailmerge

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationIssue represents a single configuration problem
type ValidationIssue struct {
	Field   string
	Message string
}

// ConfigurationError reports missing or invalid inputs. The merge is not started.
type ConfigurationError struct {
	Issues []ValidationIssue
}

func (e *ConfigurationError) Error() string {
	if len(e.Issues) == 0 {
		return "configuration error"
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("configuration error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d configuration issues:", len(e.Issues)))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

// Add records an issue.
func (e *ConfigurationError) Add(field, message string) {
	e.Issues = append(e.Issues, ValidationIssue{Field: field, Message: message})
}

// Err returns e when at least one issue was recorded, nil otherwise.
func (e *ConfigurationError) Err() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// TemplateMissingContentError means the template has no body to clone.
// It is detected before any output is written.
type TemplateMissingContentError struct {
	Path string
	Part string
}

func (e *TemplateMissingContentError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("template '%s' has no content: missing %s", e.Path, e.Part)
	}
	return fmt.Sprintf("template has no content: missing %s", e.Part)
}

// DataIntegrityError means a cell refers to a shared string that does not exist.
type DataIntegrityError struct {
	Sheet string
	Cell  string
	Index string
	Count int
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error in sheet '%s' cell %s: shared string index %s out of range (table has %d entries)",
		e.Sheet, e.Cell, e.Index, e.Count)
}

// DocumentError represents an error during document or file operations
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Path, e.Cause)
	} else if e.Path != "" {
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Path)
	} else if e.Cause != nil {
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// RowError is a failure while producing the output for one data row.
// Row is zero-based; messages show it one-based like the output file names.
type RowError struct {
	Row   int
	Path  string
	Cause error
}

func (e *RowError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("row %d (%s): %v", e.Row+1, e.Path, e.Cause)
	}
	return fmt.Sprintf("row %d: %v", e.Row+1, e.Cause)
}

func (e *RowError) Unwrap() error {
	return e.Cause
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Errors returns the collected errors.
func (m *MultiError) Errors() []error {
	out := make([]error, len(m.errors))
	copy(out, m.errors)
	return out
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// ContextError adds context to an existing error
type ContextError struct {
	Operation string
	Context   map[string]interface{}
	Cause     error
}

func (e *ContextError) Error() string {
	var contextParts []string
	for k, v := range e.Context {
		contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
	}

	if len(contextParts) > 0 {
		return fmt.Sprintf("%s [%s]: %v", e.Operation, strings.Join(contextParts, ", "), e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext wraps an error with additional context
func WithContext(err error, operation string, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &ContextError{
		Operation: operation,
		Context:   context,
		Cause:     err,
	}
}

// IsConfigurationError checks if an error is, or wraps, a configuration error
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsTemplateMissingContentError checks if an error is, or wraps, a missing template content error
func IsTemplateMissingContentError(err error) bool {
	var target *TemplateMissingContentError
	return errors.As(err, &target)
}

// IsDataIntegrityError checks if an error is, or wraps, a data integrity error
func IsDataIntegrityError(err error) bool {
	var target *DataIntegrityError
	return errors.As(err, &target)
}

// IsDocumentError checks if an error is, or wraps, a document error
func IsDocumentError(err error) bool {
	var target *DocumentError
	return errors.As(err, &target)
}

// IsRowError checks if an error is, or wraps, a row error
func IsRowError(err error) bool {
	var target *RowError
	return errors.As(err, &target)
}
