package directory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotActive marks a row whose active column holds the inactive value.
	// Such rows are skipped silently.
	ErrNotActive = errors.New("user not active")

	// ErrRowRejected marks a row with an empty mandatory or core cell.
	// Such rows are skipped silently.
	ErrRowRejected = errors.New("row rejected: required field is empty")

	// ErrUserNotFound is returned when no cached user has the requested id.
	ErrUserNotFound = errors.New("user not found")

	// ErrNotImplemented is returned for operations the connector declares
	// but does not implement (create, update, delete).
	ErrNotImplemented = errors.New("operation not implemented")
)

// ConfigError reports a missing or malformed mapping or application setting.
// It is fatal to the refresh that needed the configuration.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IngestionError reports a problem reading the source file or converting a
// cell. It is fatal to the whole refresh.
type IngestionError struct {
	Line  int    // Source line, 0 when unknown
	Field string // Logical field name, empty when not cell-specific
	Err   error
}

func (e *IngestionError) Error() string {
	switch {
	case e.Line > 0 && e.Field != "":
		return fmt.Sprintf("ingestion error: line %d: field %q: %v", e.Line, e.Field, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("ingestion error: line %d: %v", e.Line, e.Err)
	case e.Field != "":
		return fmt.Sprintf("ingestion error: field %q: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("ingestion error: %v", e.Err)
	}
}

func (e *IngestionError) Unwrap() error { return e.Err }

// RefreshError is returned by a failed refresh. The previous cache
// generation is still being served when it is returned.
type RefreshError struct {
	Source string
	Err    error
}

func (e *RefreshError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("refresh failed: %v", e.Err)
	}
	return fmt.Sprintf("refresh of %s failed: %v", e.Source, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }
