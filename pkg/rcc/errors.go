package rcc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Code identifies the kind of failure reported by the facade.
type Code string

const (
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeInputTooLong     Code = "INPUT_TOO_LONG"
	CodeAnalysisFailed   Code = "ANALYSIS_FAILED"
	CodeRegulationFailed Code = "REGULATION_FAILED"
	CodeRoutingFailed    Code = "ROUTING_FAILED"
)

// Sentinels for errors.Is. Matching is by code only.
var (
	ErrInvalidInput     = &Error{Code: CodeInvalidInput}
	ErrInputTooLong     = &Error{Code: CodeInputTooLong}
	ErrAnalysisFailed   = &Error{Code: CodeAnalysisFailed}
	ErrRegulationFailed = &Error{Code: CodeRegulationFailed}
	ErrRoutingFailed    = &Error{Code: CodeRoutingFailed}
)

// Error is the typed error returned by Analyze, Regulate and Run.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
}

// ErrorInfo is the plain serializable form of an Error.
type ErrorInfo struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func newError(code Code, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// NewInvalidInputError reports input of the wrong shape.
func NewInvalidInputError(message string, details map[string]any) *Error {
	if message == "" {
		message = "Input must be a non-empty string"
	}
	return newError(CodeInvalidInput, message, details)
}

// NewInputTooLongError reports text longer than the accepted maximum.
func NewInputTooLongError(actualLength, maxLength int) *Error {
	return newError(CodeInputTooLong,
		fmt.Sprintf("Input length %d exceeds maximum %d", actualLength, maxLength),
		map[string]any{"actualLength": actualLength, "maxLength": maxLength},
	)
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Info returns the serializable form of e.
func (e *Error) Info() ErrorInfo {
	return ErrorInfo{Code: e.Code, Message: e.Message, Details: e.Details}
}

// MarshalJSON encodes e as {code, message, details?}.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Info())
}

// IsError reports whether err is or wraps an *Error.
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// Wrap converts err into an *Error with code, keeping an existing *Error
// untouched.
func Wrap(err error, code Code) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(code, err.Error(), map[string]any{"originalError": fmt.Sprintf("%T", err)})
}

// recovered turns a recovered panic value into an *Error. Panics that
// already carry an *Error keep it.
func recovered(code Code, message string, r any) *Error {
	if err, ok := r.(error); ok {
		var e *Error
		if errors.As(err, &e) {
			return e
		}
		return newError(code, message, map[string]any{"originalError": err.Error()})
	}
	return newError(code, message, map[string]any{"originalError": fmt.Sprint(r)})
}
