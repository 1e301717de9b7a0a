package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/ddbexpr/internal/document"
	"github.com/roach88/ddbexpr/internal/expr"
	"github.com/roach88/ddbexpr/internal/request"
)

// LoadError represents an error that occurred while loading, building or
// compiling a request document.
type LoadError struct {
	Code    string
	Message string
	Field   string    // document location, if known
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Details returns the location of the error for structured output, or nil.
func (e *LoadError) Details() any {
	d := map[string]any{}
	if e.Field != "" {
		d["field"] = e.Field
	}
	if e.Pos.IsValid() {
		d["file"] = e.Pos.Filename()
		d["line"] = e.Pos.Line()
		d["column"] = e.Pos.Column()
	}
	if len(d) == 0 {
		return nil
	}
	return d
}

// LoadRequest reads the document at path and builds its operation.
// Errors are *LoadError values carrying an error code.
func LoadRequest(path string) (request.Operation, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", path), Err: err}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing document: %v", err), Err: err}
	}

	doc, err := document.Load(path)
	if err != nil {
		return nil, toLoadError(ErrCodeLoadFailed, err)
	}

	op, err := doc.Build()
	if err != nil {
		return nil, toLoadError(ErrCodeBuildFailed, err)
	}
	return op, nil
}

// CompileRequest compiles op, converting failures to *LoadError.
func CompileRequest(op request.Operation) (*request.Compiled, error) {
	c, err := op.Compile()
	if err != nil {
		return nil, toLoadError(ErrCodeGeneric, err)
	}
	return c, nil
}

// toLoadError classifies err. Compile errors take their own code even when
// a document field error wraps them; fallback applies otherwise.
func toLoadError(fallback string, err error) *LoadError {
	le := &LoadError{Code: fallback, Message: err.Error(), Err: err}

	var fe *document.FieldError
	if errors.As(err, &fe) {
		le.Field = fe.Field
		le.Pos = fe.Pos
	}

	var ce *expr.CompileError
	if errors.As(err, &ce) {
		le.Code = MapCompileErrorCode(ce.Code)
	}
	return le
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E004" // Document could not be parsed
	ErrCodeNotFound    = "E005" // Path or record not found
	ErrCodeBuildFailed = "E006" // Document is well-formed but describes an invalid request
	ErrCodeStoreFailed = "E007" // Catalogue read or write error

	// Expression compile errors
	ErrCodeEmptyItem            = "E201"
	ErrCodeKeyArity             = "E202"
	ErrCodeUnsupportedComponent = "E203"
	ErrCodeInvalidValue         = "E204"
)

// MapCompileErrorCode maps a compile error category to a CLI error code.
func MapCompileErrorCode(code expr.ErrorCode) string {
	switch code {
	case expr.ErrCodeEmptyItem:
		return ErrCodeEmptyItem
	case expr.ErrCodeKeyArity:
		return ErrCodeKeyArity
	case expr.ErrCodeUnsupportedComponent:
		return ErrCodeUnsupportedComponent
	case expr.ErrCodeInvalidValue:
		return ErrCodeInvalidValue
	default:
		return ErrCodeGeneric
	}
}
