package nfse

import (
	"errors"
	"fmt"
)

// Common import errors
var (
	// ErrMalformedDocument is returned when the input cannot be parsed as XML at all.
	// The whole document is discarded; no partial record is produced.
	ErrMalformedDocument = errors.New("malformed XML document")

	// ErrUnreadableFile is returned when an input file or archive entry cannot be read.
	ErrUnreadableFile = errors.New("unreadable file")

	// ErrCorruptArchive is returned when a ZIP container cannot be opened.
	ErrCorruptArchive = errors.New("corrupt or unsupported archive")

	// ErrUnsupportedFormat is returned for inputs that are neither XML nor ZIP.
	ErrUnsupportedFormat = errors.New("unsupported input format")

	// ErrDocumentTooLarge is returned when a single XML payload exceeds MaxDocumentSizeBytes.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")

	// ErrEmptyBatch is returned when a batch produced no record at all.
	ErrEmptyBatch = errors.New("no invoice could be imported")
)

// ImportError wraps errors with the input that caused them.
type ImportError struct {
	// Op is the operation that failed (e.g., "ReadFile", "ParseDocument").
	Op string

	// Source is the file name or archive entry being processed.
	Source string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("nfse: %s %s failed: %s: %v", e.Op, e.Source, e.Details, e.Err)
	}
	return fmt.Sprintf("nfse: %s %s failed: %v", e.Op, e.Source, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ImportError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewImportError creates a new ImportError for the given operation and source.
func NewImportError(op, source string, err error, details string) *ImportError {
	return &ImportError{
		Op:      op,
		Source:  source,
		Err:     err,
		Details: details,
	}
}

// WrapImportError wraps an error as an ImportError if it isn't already one.
func WrapImportError(op, source string, err error, details string) error {
	if err == nil {
		return nil
	}

	var importErr *ImportError
	if errors.As(err, &importErr) {
		return err // Already wrapped
	}

	return NewImportError(op, source, err, details)
}
