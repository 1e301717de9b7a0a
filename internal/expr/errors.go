package expr

import (
	"errors"
	"fmt"
)

// CompileError represents a shape error detected while building or
// encoding an expression.
//
// Compile errors include:
//   - Empty item: nothing to encode (empty key, item or update)
//   - Key arity: multi-attribute key with 0 or more than 4 attributes
//   - Unsupported component: path component that is neither name nor index
//   - Invalid value: literal with no DynamoDB attribute value form
//
// CompileError never wraps transport failures; nothing in this package
// performs I/O.
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the dotted attribute path involved, if any.
	Path string

	// Err is the underlying cause (optional).
	Err error
}

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeEmptyItem indicates a key, item or update with no attributes.
	ErrCodeEmptyItem ErrorCode = "EMPTY_ITEM"

	// ErrCodeKeyArity indicates a multi-attribute key outside 1..4 attributes.
	ErrCodeKeyArity ErrorCode = "KEY_ARITY"

	// ErrCodeUnsupportedComponent indicates an invalid path component.
	ErrCodeUnsupportedComponent ErrorCode = "UNSUPPORTED_COMPONENT"

	// ErrCodeInvalidValue indicates a literal that cannot be encoded.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"
)

// MaxKeyAttributes is the largest number of attributes DynamoDB allows in a
// partition or sort key.
const MaxKeyAttributes = 4

// Error implements the error interface.
func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CompileError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsEmptyItem returns true if the error is an empty-item error.
// Uses errors.As to handle wrapped errors.
func IsEmptyItem(err error) bool { return hasCode(err, ErrCodeEmptyItem) }

// IsKeyArity returns true if the error is a key-arity error.
func IsKeyArity(err error) bool { return hasCode(err, ErrCodeKeyArity) }

// IsUnsupportedComponent returns true if the error is an unsupported path component error.
func IsUnsupportedComponent(err error) bool { return hasCode(err, ErrCodeUnsupportedComponent) }

// IsInvalidValue returns true if the error is an invalid literal error.
func IsInvalidValue(err error) bool { return hasCode(err, ErrCodeInvalidValue) }

// NewEmptyItemError creates a CompileError for an empty key, item or update.
// what names the empty thing, e.g. "key" or "update expression".
func NewEmptyItemError(what string) *CompileError {
	return &CompileError{
		Code:    ErrCodeEmptyItem,
		Message: fmt.Sprintf("%s has no attributes", what),
	}
}

func newKeyArityError(kind string, n int) *CompileError {
	return &CompileError{
		Code:    ErrCodeKeyArity,
		Message: fmt.Sprintf("%s key must have 1-%d attributes, got %d", kind, MaxKeyAttributes, n),
	}
}

func newUnsupportedComponentError(root string, pos int, part any) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnsupportedComponent,
		Message: fmt.Sprintf("component %d has unsupported type %T (%v)", pos, part, part),
		Path:    root,
	}
}

func newEmptyRootError() *CompileError {
	return &CompileError{
		Code:    ErrCodeUnsupportedComponent,
		Message: "root attribute name must not be empty",
	}
}

func newInvalidValueError(path Path, err error) *CompileError {
	return &CompileError{
		Code:    ErrCodeInvalidValue,
		Message: "cannot encode literal",
		Path:    path.String(),
		Err:     err,
	}
}
