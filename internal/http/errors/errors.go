// Package errors defines the stable, machine-readable error surface of the
// HTTP API. Internal causes are logged, never serialized.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AppError is the one error shape the API speaks.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // original cause, for logs only
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail returns a copy carrying extra client-visible detail. Copies keep
// the predefined vars immutable.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithCause returns a copy carrying the original error for logging.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// FromError coerces any error into an AppError. Unknown errors collapse into
// the opaque internal error so nothing leaks.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternal.WithCause(err)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError serializes err as the standard JSON error body.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

// Predefined errors, one per taxonomy entry. Enumeration-sensitive paths
// (login, forgot-password, reset-password) reuse a single error per path so
// distinguishable causes share one external message.
var (
	ErrValidation = &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "The request is missing required fields or contains malformed values.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrEmailExists = &AppError{
		Code:       "EMAIL_EXISTS",
		Message:    "An account with this email already exists.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidAdminSecret = &AppError{
		Code:       "INVALID_ADMIN_SECRET",
		Message:    "Admin provisioning secret is invalid.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrInvalidCredentials = &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid email or password.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrAccountInactive = &AppError{
		Code:       "ACCOUNT_INACTIVE",
		Message:    "This account has been deactivated.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrInvalidToken = &AppError{
		Code:       "INVALID_TOKEN",
		Message:    "Session token is missing, malformed or expired.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrUserInactive = &AppError{
		Code:       "USER_INACTIVE",
		Message:    "The account referenced by this session is no longer active.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidOrExpiredToken = &AppError{
		Code:       "INVALID_OR_EXPIRED_TOKEN",
		Message:    "Password reset token is invalid or has expired.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrRateLimited = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests. Try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrInternal = &AppError{
		Code:       "INTERNAL",
		Message:    "Something went wrong. Try again later.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
