package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrNotFound            = errors.New("resource not found")
	ErrAlreadyExists       = errors.New("resource already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTokenExpired        = errors.New("token expired")
	ErrInvalidAddress      = errors.New("invalid bitcoin address")
	ErrWrongNetwork        = errors.New("address network mismatch")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidFeeRate      = errors.New("custom fee rate out of bounds")
	ErrInsufficientBalance = errors.New("insufficient virtual balance")
	ErrSigning             = errors.New("signing failed")
	ErrBroadcast           = errors.New("broadcast failed")
	ErrConfirmationTimeout = errors.New("confirmation timed out")
	ErrBatchClosed         = errors.New("batch window already closed")
	ErrTxNotFound          = errors.New("transaction not found")
	ErrIllegalTransition   = errors.New("illegal status transition")
)

// BroadcastError carries the broadcast failure class so the orchestrator can
// decide between retry and immediate terminal failure.
type BroadcastError struct {
	Reason    string // fee_too_low, double_spend, node_unreachable
	Transient bool
	Err       error
}

func (e *BroadcastError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broadcast failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("broadcast failed (%s)", e.Reason)
}

func (e *BroadcastError) Unwrap() error { return ErrBroadcast }

// NewBroadcastError creates a classified broadcast error.
func NewBroadcastError(reason string, transient bool, err error) *BroadcastError {
	return &BroadcastError{Reason: reason, Transient: transient, Err: err}
}

// IsTransientBroadcast reports whether err is a broadcast error worth retrying.
func IsTransientBroadcast(err error) bool {
	var be *BroadcastError
	return errors.As(err, &be) && be.Transient
}

// AppError represents application error with HTTP status
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError creates a new app error
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrAlreadyExists)
}

func UnprocessableEntity(message string, err error) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, message, err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal server error", err)
}
