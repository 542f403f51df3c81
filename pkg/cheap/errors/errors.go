package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

var ErrConfiguration = crdb.New("configuration error")
var ErrAccessViolation = crdb.New("access violation")
var ErrSchemaMismatch = crdb.New("schema mismatch")
var ErrPersistence = crdb.New("persistence error")
var ErrNotFound = crdb.New("not found")

var (
	Is = crdb.Is
	As = crdb.As
)

type myError struct {
	msg    string
	target error
}

func (m myError) Error() string        { return m.msg }
func (m myError) Is(target error) bool { return target == m.target }

// NewConfigurationError reports an invalid mapping, schema or catalog setup. These are
// always detected when the offending value is constructed or registered.
func NewConfigurationError(format string, args ...any) error {
	return &myError{
		msg:    fmt.Sprintf(format, args...),
		target: ErrConfiguration,
	}
}

// NewAccessViolationError reports a read, write or removal that the governing def forbids
func NewAccessViolationError(format string, args ...any) error {
	return &myError{
		msg:    fmt.Sprintf(format, args...),
		target: ErrAccessViolation,
	}
}

// NewSchemaMismatchError reports two conflicting definitions bound under the same name
func NewSchemaMismatchError(format string, args ...any) error {
	return &myError{
		msg:    fmt.Sprintf(format, args...),
		target: ErrSchemaMismatch,
	}
}

func NewNotFoundError(format string, args ...any) error {
	return &myError{
		msg:    fmt.Sprintf(format, args...),
		target: ErrNotFound,
	}
}

// NewPersistenceError wraps an error returned by the connection or statement layer. The
// original error remains reachable through Is and As, and the result also matches
// ErrPersistence. A nil err yields nil.
func NewPersistenceError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return crdb.Mark(crdb.Wrapf(err, format, args...), ErrPersistence)
}
