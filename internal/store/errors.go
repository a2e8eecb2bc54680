package store

import (
	"errors"
	"fmt"
)

// Operation names carried by StoreError.
const (
	OpRecordProject            = "record project"
	OpRecordRequirement        = "record requirement"
	OpRecordProjectRequirement = "record project requirement"
	OpMergeListing             = "merge listing"
	OpRead                     = "read"
)

// ConnectionError is returned by Open when the backing store cannot be
// reached or prepared.
type ConnectionError struct {
	Location string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to store %q: %v", e.Location, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StoreError is returned when a single store operation fails.
// Key names the offending row, e.g. "demo/flask".
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrEmptyName is returned for an empty project or requirement name.
var ErrEmptyName = errors.New("empty name")

// ErrEmptyVersion is returned when a link is recorded without a version.
var ErrEmptyVersion = errors.New("empty version")

// IsConnectionError reports whether err is or wraps a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsStoreError reports whether err is or wraps a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func linkKey(project, requirement string) string {
	return project + "/" + requirement
}
