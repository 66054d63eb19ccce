package flow

import (
	"errors"
	"fmt"
)

// ValidationError describes the first structural violation found in a flow
// document. It wraps one of ErrMalformedDocument, ErrInvalidNode or
// ErrInvalidEdge so callers can use errors.Is
type ValidationError struct {
	Kind   error
	Reason string
	ID     string
	Field  string
	Index  int
}

var (
	ErrMalformedDocument = errors.New("malformed document")
	ErrInvalidNode       = errors.New("invalid node")
	ErrInvalidEdge       = errors.New("invalid edge")
)

// Error kind codes reported by the HTTP API
const (
	KindMalformedDocument = "malformed_document"
	KindInvalidNode       = "invalid_node"
	KindInvalidEdge       = "invalid_edge"
)

// NoIndex marks a ValidationError that is not tied to a list element
const NoIndex = -1

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// ErrorKind returns the API code for a validation error, or an empty string
// when err is not one
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedDocument):
		return KindMalformedDocument
	case errors.Is(err, ErrInvalidNode):
		return KindInvalidNode
	case errors.Is(err, ErrInvalidEdge):
		return KindInvalidEdge
	default:
		return ""
	}
}

// IsValidationError reports whether err came from document validation
func IsValidationError(err error) bool {
	return ErrorKind(err) != ""
}

func malformed(reason string) *ValidationError {
	return &ValidationError{
		Kind:   ErrMalformedDocument,
		Index:  NoIndex,
		Reason: reason,
	}
}

func nodeError(idx int, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:   ErrInvalidNode,
		Index:  idx,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func edgeError(idx int, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:   ErrInvalidEdge,
		Index:  idx,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) withID(id string) *ValidationError {
	e.ID = id
	return e
}
