package optimization

import (
	"errors"
	"fmt"
)

// Sentinel errors that classify failures. Callers match them with errors.Is.
var (
	// ErrInvalidRegion reports a region that fails the size or shape precondition.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrDegenerateSampling reports that rejection sampling exhausted its budget.
	ErrDegenerateSampling = errors.New("degenerate sampling")
	// ErrInvalidParameter reports a run parameter outside its valid range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewInvalidRegionError returns an error classified as ErrInvalidRegion.
func NewInvalidRegionError(format string, args ...interface{}) *Error {
	return WrapErrorf(ErrInvalidRegion, format, args...)
}

// NewDegenerateSamplingError returns an error classified as ErrDegenerateSampling.
func NewDegenerateSamplingError(format string, args ...interface{}) *Error {
	return WrapErrorf(ErrDegenerateSampling, format, args...)
}

// NewInvalidParameterError returns an error classified as ErrInvalidParameter.
// The component is set to the owner of the parameter.
func NewInvalidParameterError(component, format string, args ...interface{}) *Error {
	return WrapErrorf(ErrInvalidParameter, format, args...).WithComponent(component)
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapErrorf wraps an existing error with additional formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsOptimizationError checks if an error is, or wraps, an Error.
// If it does, it returns the outermost Error and true.
func IsOptimizationError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
