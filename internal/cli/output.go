package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/ddbexpr/internal/request"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The document failed to load, build or compile
	ExitCommandError = 2 // Command error (missing file, unreadable database, unknown id)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E201", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// writeWire prints a compiled request in the text layout shared by compile
// and show: request fields, then labelled expressions, then the side table.
func writeWire(w io.Writer, wire request.Wire) {
	if wire.Index != "" {
		fmt.Fprintf(w, "Index: %s\n", wire.Index)
	}
	writeAttributes(w, "Key", wire.Key)
	writeAttributes(w, "Item", wire.Item)
	writeAttributes(w, "ExclusiveStartKey", wire.StartKey)
	for _, e := range wire.Expressions() {
		fmt.Fprintf(w, "%s: %s\n", e.Field, e.Text)
	}

	if len(wire.Names) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ExpressionAttributeNames:")
		for _, ph := range sortedPlaceholders(wire.Names) {
			fmt.Fprintf(w, "  %s = %s\n", ph, wire.Names[ph])
		}
	}
	if len(wire.Values) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "ExpressionAttributeValues:")
		for _, ph := range sortedPlaceholders(wire.Values) {
			fmt.Fprintf(w, "  %s = %s\n", ph, compactJSON(wire.Values[ph]))
		}
	}
}

func writeAttributes(w io.Writer, label string, attrs map[string]any) {
	if len(attrs) == 0 {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", label, compactJSON(attrs))
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// sortedPlaceholders orders "#n2", "#n10" by their numeric suffix so the
// side table prints in allocation order.
func sortedPlaceholders[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		na, errA := strconv.Atoi(strings.TrimLeft(a, "#:nv"))
		nb, errB := strconv.Atoi(strings.TrimLeft(b, "#:nv"))
		if errA != nil || errB != nil || na == nb {
			return strings.Compare(a, b)
		}
		return na - nb
	})
	return keys
}
