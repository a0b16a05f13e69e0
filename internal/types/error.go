package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	ValidationError      ErrorCode = "VALIDATION_ERROR"
	BadRequest           ErrorCode = "BAD_REQUEST"
	NotFound             ErrorCode = "NOT_FOUND"
	AlreadyStaked        ErrorCode = "ALREADY_STAKED"
	NotOwner             ErrorCode = "NOT_OWNER"
	InvalidState         ErrorCode = "INVALID_STATE"
	RemoteCallFailed     ErrorCode = "REMOTE_CALL_FAILED"
	BudgetExhausted      ErrorCode = "BUDGET_EXHAUSTED"
	Unconfirmed          ErrorCode = "UNCONFIRMED"
	ClockAnomaly         ErrorCode = "CLOCK_ANOMALY"
)

func (c ErrorCode) String() string {
	return string(c)
}

// Error is the error type returned by every operation of the staking service.
// StatusCode is what the HTTP surface answers with.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		Err:        err,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return &Error{
		Err:        errors.New(msg),
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
}

func NewValidationFailedError(err error) *Error {
	return NewError(http.StatusBadRequest, ValidationError, err)
}

func NewInternalServiceError(err error) *Error {
	return NewError(http.StatusInternalServerError, InternalServiceError, err)
}

// HasErrorCode reports whether err is (or wraps) an *Error with the given code
func HasErrorCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrorCode == code
	}
	return false
}
