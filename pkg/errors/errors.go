// Unified error handling for the G-code post-processor
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Usage errors
	ErrUsage ErrorCode = "USAGE"

	// File errors
	ErrInputRead   ErrorCode = "INPUT_READ"
	ErrOutputWrite ErrorCode = "OUTPUT_WRITE"

	// Configuration errors
	ErrConfigLoad       ErrorCode = "CONFIG_LOAD"
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Quantizer table has no entry for a bucket
	ErrQuantizeTable ErrorCode = "QUANTIZE_TABLE"
)

// HostError is the unified error type for the post-processor
type HostError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// File is the G-code or config file involved (if any)
	File string

	// Line is the 1-based line number in File (if known)
	Line int

	// Section is the config section (if applicable)
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *HostError) Error() string {
	where := ""
	switch {
	case e.File != "" && e.Line > 0:
		where = fmt.Sprintf(" %s:%d:", e.File, e.Line)
	case e.File != "":
		where = " " + e.File + ":"
	case e.Section != "" && e.Option != "":
		where = fmt.Sprintf(" [%s] %s:", e.Section, e.Option)
	case e.Section != "":
		where = fmt.Sprintf(" [%s]:", e.Section)
	}
	msg := fmt.Sprintf("[%s]%s %s", e.Code, where, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *HostError) Unwrap() error {
	return e.Err
}

// SetFile sets the file involved
func (e *HostError) SetFile(file string) *HostError {
	e.File = file
	return e
}

// SetLine sets the line number
func (e *HostError) SetLine(line int) *HostError {
	e.Line = line
	return e
}

// SetSection sets the config section
func (e *HostError) SetSection(section string) *HostError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *HostError) SetOption(option string) *HostError {
	e.Option = option
	return e
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// New creates a new HostError
func New(code ErrorCode, message string) *HostError {
	return &HostError{
		Code:    code,
		Message: message,
	}
}

// UsageError creates an error for bad command-line usage
func UsageError(format string, args ...interface{}) *HostError {
	return New(ErrUsage, fmt.Sprintf(format, args...))
}

// InputError creates an error for an unreadable input file
func InputError(path string, err error) *HostError {
	return Wrap(err, ErrInputRead, "cannot read input").SetFile(path)
}

// OutputError creates an error for an unwritable output file
func OutputError(path string, err error) *HostError {
	return Wrap(err, ErrOutputWrite, "cannot write output").SetFile(path)
}

// QuantizeTableError reports a quantizer bucket without a table entry
func QuantizeTableError(bucket int) *HostError {
	return New(ErrQuantizeTable, fmt.Sprintf("no target value for %d° bucket", bucket))
}

// CodeOf returns the code of the first HostError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var he *HostError
	if stderrors.As(err, &he) {
		return he.Code
	}
	return ""
}

// Is checks if any HostError in err's chain carries the given code
func Is(err error, code ErrorCode) bool {
	var he *HostError
	for err != nil {
		if !stderrors.As(err, &he) {
			return false
		}
		if he.Code == code {
			return true
		}
		err = he.Err
	}
	return false
}

// IsConfig checks if error is a config error
func IsConfig(err error) bool {
	return Is(err, ErrConfigLoad) ||
		Is(err, ErrConfigSection) ||
		Is(err, ErrConfigOption) ||
		Is(err, ErrConfigValidation) ||
		Is(err, ErrQuantizeTable)
}

// ExitCode maps an error to a process exit status.
// 0 success, 1 usage, 2 file I/O, 3 configuration, 4 anything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case Is(err, ErrUsage):
		return 1
	case Is(err, ErrInputRead), Is(err, ErrOutputWrite):
		return 2
	case IsConfig(err):
		return 3
	default:
		return 4
	}
}
