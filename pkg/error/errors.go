package error

import (
	"errors"
	"net/http"
	"strconv"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithErr records the underlying cause.
func (e *AppError) WithErr(err error) *AppError {
	e.Err = err
	return e
}

// StatusCode is the envelope form of Status ("400", "404", ...).
func (e *AppError) StatusCode() string {
	return strconv.Itoa(e.Status)
}

const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "NOT_FOUND"
	CodeStorage     = "STORAGE_ERROR"
	CodeRateLimited = "RATE_LIMITED"
)

func NewValidation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

// NewStorage wraps a store failure. The underlying message is surfaced to the caller.
func NewStorage(err error) *AppError {
	msg := "storage error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{Code: CodeStorage, Message: msg, Status: http.StatusInternalServerError, Err: err}
}

func NewRateLimited(message string) *AppError {
	return &AppError{Code: CodeRateLimited, Message: message, Status: http.StatusTooManyRequests}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeNotFound
	}
	return false
}

// MapError converts any error crossing the use case boundary into an AppError.
// Anything that is not already an AppError is a storage failure.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewStorage(err)
}
