// Package apperr defines the error type the HTTP API renders. Every error
// leaving a handler is either an *AppError or is wrapped as Internal.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yuanying/maktaba/internal/assets"
	"github.com/yuanying/maktaba/internal/epub"
)

// AppError carries a machine-readable code, a message safe to show to a
// reader, and the HTTP status to answer with.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Cause }

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

func ValidationError(msg string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
	}
}

func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// Unprocessable reports a book that was fetched but could not be read.
func Unprocessable(msg string, cause error) *AppError {
	return &AppError{
		Code:       "UNPROCESSABLE",
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// BadGateway reports a failed fetch from the asset source.
func BadGateway(msg string, cause error) *AppError {
	return &AppError{
		Code:       "FETCH_FAILED",
		Message:    msg,
		HTTPStatus: http.StatusBadGateway,
		Cause:      cause,
	}
}

func Timeout(cause error) *AppError {
	return &AppError{
		Code:       "TIMEOUT",
		Message:    "Loading the book took too long",
		HTTPStatus: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func ServiceUnavailable(msg string, cause error) *AppError {
	return &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// As returns the *AppError in err's chain, or nil.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// FromLoad maps a failure to fetch or open a book onto an AppError whose
// message is the diagnostic a reader sees.
func FromLoad(err error) *AppError {
	if ae := As(err); ae != nil {
		return ae
	}

	var fe *assets.FetchError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout(err)
	case errors.As(err, &fe):
		return BadGateway(epub.Describe(err), err)
	case errors.Is(err, assets.ErrTooLarge):
		return &AppError{
			Code:       "TOO_LARGE",
			Message:    "The book is too large to open",
			HTTPStatus: http.StatusRequestEntityTooLarge,
			Cause:      err,
		}
	case errors.Is(err, epub.ErrArchiveFormat),
		errors.Is(err, epub.ErrMissingContainer),
		errors.Is(err, epub.ErrInvalidContainer),
		errors.Is(err, epub.ErrMissingPackageDocument),
		errors.Is(err, epub.ErrInvalidPackageDocument),
		errors.Is(err, epub.ErrNoReadableContent):
		return Unprocessable(epub.Describe(err), err)
	}
	return Internal(err)
}
