package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common validation errors for models.
var (
	// ErrProjectIDRequired indicates a required project ID is empty.
	ErrProjectIDRequired = errors.New("project_id is required")

	// ErrInvalidProjectID indicates a project ID with characters outside [A-Za-z0-9_-].
	ErrInvalidProjectID = errors.New("project_id may only contain letters, digits, '-' and '_'")

	// ErrThemeConfigRequired indicates a project theme without a configuration document.
	ErrThemeConfigRequired = errors.New("theme configuration is required")

	// ErrInvalidThemeSource indicates an unknown theme source.
	ErrInvalidThemeSource = errors.New("invalid theme source: must be 'api' or 'file'")

	// ErrSourcePathRequired indicates a file-backed theme without its path.
	ErrSourcePathRequired = errors.New("source_path is required for file themes")
)
