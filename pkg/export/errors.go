package export

import "fmt"

// ValidationError indicates a bad export request: an inverted date range,
// a missing claim context, or an unknown requested section type. It is
// surfaced synchronously, before any export row exists.
type ValidationError struct {
	Field   string // Offending request field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// RedactionRuleError indicates a malformed active redaction rule. Redaction
// fails closed: the error aborts the section and the run that invoked it.
type RedactionRuleError struct {
	RuleName string
	Cause    error
}

// Error implements the error interface.
func (e *RedactionRuleError) Error() string {
	return fmt.Sprintf("redaction rule error [rule=%s]: %v", e.RuleName, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RedactionRuleError) Unwrap() error {
	return e.Cause
}

// NewRedactionRuleError creates a new RedactionRuleError.
func NewRedactionRuleError(ruleName string, cause error) *RedactionRuleError {
	return &RedactionRuleError{RuleName: ruleName, Cause: cause}
}

// DataAccessError indicates an upstream case-data store was unreachable or
// errored mid-run. It fails the whole generation run; a section that merely
// finds no data reports evidence of absence instead.
type DataAccessError struct {
	Source string // Collaborator store name ("messages", "schedule", etc.)
	Cause  error
}

// Error implements the error interface.
func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access error [source=%s]: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DataAccessError) Unwrap() error {
	return e.Cause
}

// NewDataAccessError creates a new DataAccessError.
func NewDataAccessError(source string, cause error) *DataAccessError {
	return &DataAccessError{Source: source, Cause: cause}
}

// ConcurrentGenerationError indicates a second generation run was requested
// while one is already in flight for the same export id.
type ConcurrentGenerationError struct {
	ExportID string
}

// Error implements the error interface.
func (e *ConcurrentGenerationError) Error() string {
	return fmt.Sprintf("generation already in flight for export %s", e.ExportID)
}

// NewConcurrentGenerationError creates a new ConcurrentGenerationError.
func NewConcurrentGenerationError(exportID string) *ConcurrentGenerationError {
	return &ConcurrentGenerationError{ExportID: exportID}
}

// StorageError represents an error from the export storage backend.
type StorageError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "create", "complete", "fail", etc.
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// BundleError represents a failure while writing a download artifact.
type BundleError struct {
	Format string // "json", "csv"
	Cause  error
}

// Error implements the error interface.
func (e *BundleError) Error() string {
	return fmt.Sprintf("bundle error [format=%s]: %v", e.Format, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *BundleError) Unwrap() error {
	return e.Cause
}

// NewBundleError creates a new BundleError.
func NewBundleError(format string, cause error) *BundleError {
	return &BundleError{Format: format, Cause: cause}
}

// NotFoundError indicates the requested export does not exist.
type NotFoundError struct {
	Key string // id or export number
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("export not found: %s", e.Key)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(key string) *NotFoundError {
	return &NotFoundError{Key: key}
}
