package domain

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown             Code = "UNKNOWN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeModuleInactive      Code = "MODULE_INACTIVE"
	CodeInvalidPositionMode Code = "INVALID_POSITION_MODE"
	CodeInvalidPosition     Code = "INVALID_POSITION"
	CodeUnknownCouponType   Code = "UNKNOWN_COUPON_TYPE"
)

// Error is a domain error carrying a code and a user-facing message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// NewError creates a domain error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error around a cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NotFound reports a missing entity.
func NotFound(entity string, id any) *Error {
	return NewError(CodeNotFound, fmt.Sprintf("%s %v not found", entity, id))
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the code of the first domain error in err's chain.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
