package util

import (
	"errors"
	"fmt"
)

// ErrConfigInvalid is matched by every ConfigurationError.
var ErrConfigInvalid = errors.New("invalid configuration")

// ConfigurationError is a fatal, startup-time error: the gateway refuses to
// run with a configuration that would leave it insecure or unable to serve.
type ConfigurationError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("configuration error at %s: %s", e.Field, msg)
	}
	return fmt.Sprintf("configuration error: %s", msg)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrConfigInvalid or another
// ConfigurationError, falling back to the cause chain.
func (e *ConfigurationError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigurationError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// NewConfigurationErrorWithCause creates a new ConfigurationError wrapping cause.
func NewConfigurationErrorWithCause(field, message string, cause error) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message, Cause: cause}
}
