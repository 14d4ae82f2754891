package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Error codes for the notification pipeline
const (
	ErrSourceUnavailable ErrorCode = iota + 1000
	ErrDeliveryTransient
	ErrDeliveryPermanent
	ErrAuditWrite
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// SourceUnavailable marks a failure to read from the booking platform.
// It aborts the run: no eligibility decisions are made on partial data.
func SourceUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:    ErrSourceUnavailable,
		Message: message,
		Err:     err,
	}
}

// DeliveryTransient marks a send failure worth retrying on a later run.
func DeliveryTransient(err error) *AppError {
	return &AppError{
		Code:    ErrDeliveryTransient,
		Message: "transient delivery failure",
		Err:     err,
	}
}

// DeliveryPermanent marks a send failure that no retry can fix.
func DeliveryPermanent(err error) *AppError {
	return &AppError{
		Code:    ErrDeliveryPermanent,
		Message: "permanent delivery failure",
		Err:     err,
	}
}

// AuditWrite marks a failed audit/run-log write. Never propagated past
// logging: audit failures must not undo notification outcomes.
func AuditWrite(err error) *AppError {
	return &AppError{
		Code:    ErrAuditWrite,
		Message: "audit write failed",
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal error",
		Err:     err,
	}
}

func codeOf(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return 0, false
}

// IsSourceUnavailable reports whether err is a source read failure.
func IsSourceUnavailable(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrSourceUnavailable
}

// IsTransientDelivery reports whether err is a retry-eligible send failure.
// Unclassified errors count as transient so the attempt budget bounds them.
func IsTransientDelivery(err error) bool {
	code, ok := codeOf(err)
	if !ok {
		return true
	}
	return code == ErrDeliveryTransient
}

// IsPermanentDelivery reports whether err is a send failure no retry can fix.
func IsPermanentDelivery(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrDeliveryPermanent
}
