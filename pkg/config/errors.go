// Package config reads post-processor profiles from Klipper-style INI,
// TOML or YAML files, with access tracking and bounds validation.
package config

import (
	"fmt"

	perrors "klipper-postproc/pkg/errors"
)

// ConfigError represents a configuration error with context.
type ConfigError struct {
	Code    perrors.ErrorCode
	Section string
	Option  string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("Option '%s' in section '%s': %s", e.Option, e.Section, e.Message)
	}
	if e.Section != "" {
		return fmt.Sprintf("Section '%s': %s", e.Section, e.Message)
	}
	return e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// HostError converts e into the program-wide error type so callers can
// map it to an exit status.
func (e *ConfigError) HostError(file string) *perrors.HostError {
	code := e.Code
	if code == "" {
		code = perrors.ErrConfigValidation
	}
	return perrors.Wrap(e, code, "invalid configuration").
		SetFile(file).
		SetSection(e.Section).
		SetOption(e.Option)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(section, option, message string) *ConfigError {
	return &ConfigError{
		Code:    perrors.ErrConfigValidation,
		Section: section,
		Option:  option,
		Message: message,
	}
}

// ErrMissingOption returns an error for a required but missing option.
func ErrMissingOption(section, option string) *ConfigError {
	return &ConfigError{
		Code:    perrors.ErrConfigOption,
		Section: section,
		Option:  option,
		Message: "must be specified",
	}
}

// ErrInvalidSection returns an error for a section that cannot be read
// as a block of options.
func ErrInvalidSection(section, message string) *ConfigError {
	return &ConfigError{
		Code:    perrors.ErrConfigSection,
		Section: section,
		Message: message,
	}
}

// ErrInvalidValue returns an error for an invalid value.
func ErrInvalidValue(section, option, value, expected string) *ConfigError {
	return &ConfigError{
		Code:    perrors.ErrConfigOption,
		Section: section,
		Option:  option,
		Message: fmt.Sprintf("invalid value '%s', expected %s", value, expected),
	}
}

// ErrOutOfRange returns an error for a value outside the allowed range.
func ErrOutOfRange(section, option string, value float64, constraint string) *ConfigError {
	return &ConfigError{
		Code:    perrors.ErrConfigValidation,
		Section: section,
		Option:  option,
		Message: fmt.Sprintf("value %v %s", value, constraint),
	}
}
