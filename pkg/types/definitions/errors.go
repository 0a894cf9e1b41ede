package definitions

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoContent is returned when installing a definition without raw content
var ErrNoContent = errors.New("no raw content available")

// NotFoundError reports that a source has no definition with the given ID.
// It is an expected outcome; the composite source falls through on it.
type NotFoundError struct {
	ID ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("definition not found: %s", e.ID)
}

// ParseError is a file-local failure to classify or parse a definition
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError is a failure of the underlying database
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ProviderError is a failure of a sync provider to produce raw files, such as
// a network error or an unreadable archive.
type ProviderError struct {
	Label string
	Err   error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Label, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is or wraps a *NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsParseError reports whether err is or wraps a *ParseError
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsStorageError reports whether err is or wraps a *StorageError
func IsStorageError(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// IsProviderError reports whether err is or wraps a *ProviderError
func IsProviderError(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}
