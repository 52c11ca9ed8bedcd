// Package errors defines the error types shared by the watch engine, the
// dispatch path and configuration loading. Engine failures are IOErrors and
// never reach a client; dispatch failures are HandlerErrors carried in a reply.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// New, Is, As and Join forward to the standard library so callers need one import.
var (
	New  = errors.New
	Is   = errors.Is
	As   = errors.As
	Join = errors.Join
)

var (
	// ErrInvalidInput is matched by every ValidationError and DecodeError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMisalignment marks a tail rewrite detected by the tailing engine.
	// It never escapes the engine; it only shows up in debug logs.
	ErrMisalignment = errors.New("tail misalignment")
)

// ValidationError is a rejected configuration value or method argument.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError creates a ValidationError.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError is a failure while assembling the runtime configuration.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError is a catalog or config file that could not be decoded.
type ParseError struct {
	Format string // json, jsonc or yaml
	File   string
	Err    error
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s parse error: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("parse error in %s file %s: %v", e.Format, e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError is a failed operation on a watched or configured file. The poller
// treats it as transient and retries on the next tick.
type IOError struct {
	Operation string // open, stat, read or close
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DecodeError is a malformed inbound message.
type DecodeError struct {
	Payload string
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Payload == "" {
		return "decode error: " + e.Message
	}
	return fmt.Sprintf("decode error for %q: %s", e.Payload, e.Message)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrInvalidInput }

// NewDecodeError creates a DecodeError, keeping at most 64 bytes of payload.
func NewDecodeError(payload []byte, message string, err error) *DecodeError {
	const maxPayload = 64
	p := string(payload)
	if len(p) > maxPayload {
		p = p[:maxPayload] + "..."
	}
	return &DecodeError{Payload: p, Message: message, Err: err}
}

// HandlerError is a failure raised by a dispatched method. It is carried in
// the reply and never re-thrown.
type HandlerError struct {
	Method string
	Code   int
	Err    error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s (code %d) failed: %v", e.Method, e.Code, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// NewHandlerError creates a HandlerError.
func NewHandlerError(method string, code int, err error) *HandlerError {
	return &HandlerError{Method: method, Code: code, Err: err}
}

// IsValidationError reports whether err is invalid input of any kind.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsTimeout reports whether err is a context deadline.
func IsTimeout(err error) bool { return errors.Is(err, context.DeadlineExceeded) }

// IsCanceled reports whether err is a context cancellation.
func IsCanceled(err error) bool { return errors.Is(err, context.Canceled) }

// IsIO reports whether err is or wraps an IOError.
func IsIO(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}

// IsDecode reports whether err is or wraps a DecodeError.
func IsDecode(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsHandler reports whether err is or wraps a HandlerError.
func IsHandler(err error) bool {
	var target *HandlerError
	return errors.As(err, &target)
}

// WrapValidation turns err into a ValidationError on field. Nil stays nil.
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO turns err into an IOError. Nil stays nil.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse turns err into a ParseError. Nil stays nil.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Err: err}
}
