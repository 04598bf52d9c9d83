package savedata

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by record stores when no record exists for an ID.
var ErrNotFound = errors.New("record not found")

// ErrorCode categorizes save registry errors.
type ErrorCode string

const (
	// CodeCorruptIndex indicates the lexicon document exists but cannot be parsed.
	CodeCorruptIndex ErrorCode = "CORRUPT_INDEX"

	// CodeMissingRecord indicates a listed entry has no backing record.
	CodeMissingRecord ErrorCode = "MISSING_RECORD"

	// CodeWriteFailure indicates a record or lexicon write failed during a create.
	CodeWriteFailure ErrorCode = "WRITE_FAILURE"

	// CodeIDExhausted indicates every generated ID collided with an existing entry.
	CodeIDExhausted ErrorCode = "ID_EXHAUSTED"

	// CodeInvalidID indicates an ID that cannot be mapped to a storage location.
	CodeInvalidID ErrorCode = "INVALID_ID"
)

// Error is the structured error type of the save registry.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation that failed, e.g. "create save".
	Op string

	// ID is the affected save, when known.
	ID string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s (id=%s)", msg, e.ID)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// HasCode reports whether err, or any error it wraps, is an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsCorruptIndex returns true if the error reports an unparseable lexicon.
func IsCorruptIndex(err error) bool { return HasCode(err, CodeCorruptIndex) }

// IsMissingRecord returns true if the error reports a listed entry without a record.
func IsMissingRecord(err error) bool { return HasCode(err, CodeMissingRecord) }

// IsWriteFailure returns true if the error reports a failed create.
func IsWriteFailure(err error) bool { return HasCode(err, CodeWriteFailure) }

// IsIDExhausted returns true if ID allocation gave up after repeated collisions.
func IsIDExhausted(err error) bool { return HasCode(err, CodeIDExhausted) }

// IsInvalidID returns true if an ID was rejected before touching storage.
func IsInvalidID(err error) bool { return HasCode(err, CodeInvalidID) }
