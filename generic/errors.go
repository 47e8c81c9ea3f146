/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  The calculation core never returns errors: parse failures become zeros or
  exclusions and validation problems become findings. Errors only exist at the
  edges (rule documents, ingestion, HTTP), and they are all declared here.

ERROR CATEGORIES:
  1. Rule errors - A rule document is malformed or inconsistent
  2. Ingestion errors - A source file cannot be read as a table
  3. Load errors - No usable data was supplied

USAGE:
  if errors.Is(err, generic.ErrMissingColumn) {
      // report which column the export is missing
  }

SEE ALSO:
  - factory/rules.go: Returns rule errors
  - ingest/: Returns ingestion errors
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidWindow is returned when a window ends before it starts.
	ErrInvalidWindow = errors.New("invalid window: end before start")

	// ErrInvalidRules is returned when a rule set fails validation.
	ErrInvalidRules = errors.New("invalid rule set")

	// ErrUnsupportedFormat is returned for source files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMissingColumn is returned when a required column has no matching header.
	ErrMissingColumn = errors.New("required column not found")

	// ErrNoData is returned when a source contains no data rows.
	ErrNoData = errors.New("no data rows")

	// ErrNoSources is returned when a reload is requested without configured files.
	ErrNoSources = errors.New("no source files configured")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// WindowError describes a malformed date window.
type WindowError struct {
	Start Day
	End   Day
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("window ends %s before it starts %s", e.End, e.Start)
}

func (e *WindowError) Unwrap() error {
	return ErrInvalidWindow
}

// RuleError names the rule field that failed validation.
type RuleError struct {
	Field   string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %s: %s", e.Field, e.Message)
}

func (e *RuleError) Unwrap() error {
	return ErrInvalidRules
}

// ColumnError names the columns an export is missing.
type ColumnError struct {
	Source  string
	Columns []string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: missing columns %v", e.Source, e.Columns)
}

func (e *ColumnError) Unwrap() error {
	return ErrMissingColumn
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrInvalidRules) ||
		errors.Is(err, ErrInvalidWindow)
}
