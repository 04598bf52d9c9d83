package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/mechsave/internal/savedata"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // storage error, unknown save
	ExitCommandError = 2 // bad flags, bad config, invalid payload
)

// CLI error codes. Registry failures report their savedata code instead.
const (
	ErrCodeGeneric        = "E001"
	ErrCodeConfig         = "E002"
	ErrCodeOpenFailed     = "E003"
	ErrCodeInvalidPayload = "E004"
	ErrCodeNotFound       = "E005"
	ErrCodeUsage          = "E006"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ExitError carries the process exit code for a failed command.
// main prints Error() and exits with Code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps a command error to a process exit code. Errors that are
// not ExitErrors exit with ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return ExitFailure
	}
}

// Response is the envelope every --format json command writes to stdout.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError describes a failed command. Code is either a CLI code
// (E001..E006) or a registry code such as MISSING_RECORD.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter writes command results as text or a JSON envelope.
// Diagnostics go to ErrWriter when set so JSON on Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) isJSON() bool { return f.Format == FormatJSON }

func (f *OutputFormatter) diag() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}

// Success writes data as the JSON envelope, or text in text mode.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Error writes an error report. Details are printed in text mode only
// with --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: message, Details: details},
		})
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

// Reject reports a failure that has no underlying error and returns the
// ExitError for it.
func (f *OutputFormatter) Reject(exitCode int, code, message string, details any) error {
	_ = f.Error(code, message, details)
	return NewExitError(exitCode, code+": "+message)
}

// Fail reports err and returns an ExitError wrapping it. A savedata.Error
// keeps its own code and ID; anything else is reported under fallbackCode.
func (f *OutputFormatter) Fail(exitCode int, fallbackCode, message string, err error) error {
	code := fallbackCode
	var details any
	var se *savedata.Error
	if errors.As(err, &se) {
		code = string(se.Code)
		if se.ID != "" {
			details = map[string]string{"id": se.ID}
		}
	}

	reported := message
	if err != nil {
		reported += ": " + err.Error()
	}
	_ = f.Error(code, reported, details)
	return WrapExitError(exitCode, code+": "+message, err)
}

// VerboseLog writes a diagnostic line when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.diag(), format+"\n", args...)
	}
}
