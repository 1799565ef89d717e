package device

import (
	"errors"
	"fmt"
)

// ErrorKind classifies device failures.
type ErrorKind string

// Error kinds.
const (
	KindPermissionDenied ErrorKind = "permission_denied"
	KindDeviceError      ErrorKind = "device_error"
	KindConstraintError  ErrorKind = "constraint_error"
)

// Sentinel errors matched through errors.Is against an *Error.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrDevice           = errors.New("camera device error")
	ErrConstraint       = errors.New("camera constraint rejected")
)

// Error is a classified device failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrDevice:
		return e.Kind == KindDeviceError
	case ErrConstraint:
		return e.Kind == KindConstraintError
	}
	return false
}

// PermissionDenied wraps err as a refused acquisition.
func PermissionDenied(op string, err error) *Error {
	return &Error{Kind: KindPermissionDenied, Op: op, Err: err}
}

// Failure wraps err as a generic device failure.
func Failure(op string, err error) *Error {
	return &Error{Kind: KindDeviceError, Op: op, Err: err}
}

// ConstraintFailure wraps err as a rejected constraint.
func ConstraintFailure(op string, err error) *Error {
	return &Error{Kind: KindConstraintError, Op: op, Err: err}
}

// KindOf classifies any error. Unclassified errors count as device errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindDeviceError
}
