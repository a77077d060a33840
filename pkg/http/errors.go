package http

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes carried in AppError.Code. Validation failures use ERR_<TAG>.
const (
	CodeBadRequest  = "ERR_BAD_REQUEST"
	CodeNotFound    = "ERR_NOT_FOUND"
	CodeConflict    = "ERR_CONFLICT"
	CodeRateLimited = "ERR_RATE_LIMITED"
	CodeInternal    = "ERR_INTERNAL"
)

// AppError is an error the API reports to clients. Err stays server side.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithError attaches the cause.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func newAppError(status int, code, field, message string) *AppError {
	return &AppError{Code: code, Message: message, Field: field, Status: status}
}

func NotFoundError(message string) *AppError {
	return newAppError(http.StatusNotFound, CodeNotFound, "", message)
}

func BadRequestError(field, message string) *AppError {
	return newAppError(http.StatusBadRequest, CodeBadRequest, field, message)
}

func ConflictError(message string) *AppError {
	return newAppError(http.StatusConflict, CodeConflict, "", message)
}

func TooManyRequestsError(message string) *AppError {
	return newAppError(http.StatusTooManyRequests, CodeRateLimited, "", message)
}

func InternalError(message string) *AppError {
	return newAppError(http.StatusInternalServerError, CodeInternal, "", message)
}

// ErrorCase turns errors matching Target into a client error.
type ErrorCase struct {
	Target error
	Build  func(err error) *AppError
}

// MapError returns the first case matching err, or a 500 with message
// fallback. The returned error always wraps err.
func MapError(err error, fallback string, cases ...ErrorCase) *AppError {
	for _, c := range cases {
		if errors.Is(err, c.Target) {
			return c.Build(err).WithError(err)
		}
	}
	return InternalError(fallback).WithError(err)
}
