// Package domain defines core types, interfaces, and errors for the schema merger.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// FileReadError indicates an uploaded file could not be read or decoded as text.
type FileReadError struct {
	Name string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read file %q: %v", e.Name, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// ArchiveReadError indicates a zip archive was corrupt or unreadable.
type ArchiveReadError struct {
	Name string
	Err  error
}

func (e *ArchiveReadError) Error() string {
	return fmt.Sprintf("read archive %q: %v", e.Name, e.Err)
}

func (e *ArchiveReadError) Unwrap() error { return e.Err }

// SchemaLoadError indicates one of the schema or mapping documents was
// missing, unreadable, or malformed.
type SchemaLoadError struct {
	Document string
	Err      error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load schema document %q: %v", e.Document, e.Err)
}

func (e *SchemaLoadError) Unwrap() error { return e.Err }

// NetworkError indicates a call to the upstream parse backend failed.
// StatusCode and Body carry the upstream response when one was received.
type NetworkError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream returned %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
