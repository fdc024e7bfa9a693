package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/illustrationsapp/illustrations-server/internal/errors"
	"github.com/illustrationsapp/illustrations-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// fieldError describes one request field huma rejected before the handler ran.
type fieldError struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var fields []fieldError
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return fromDomainError(domainErr)
			}

			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return fromDomainError(store.ToDomain(err, "request"))
			}

			if msg, ok := contextErrorMessage(err); ok {
				return &APIError{
					status:  http.StatusInternalServerError,
					Code:    string(domainerrors.CodeInternal),
					Message: msg,
				}
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				fields = append(fields, fieldError{Location: detail.Location, Message: detail.Message})
			}
		}

		// Schema and decode failures are reported like every other validation error.
		if status == http.StatusUnprocessableEntity || (status == http.StatusBadRequest && len(fields) > 0) {
			apiErr := &APIError{
				status:  http.StatusBadRequest,
				Code:    string(domainerrors.CodeValidation),
				Message: message,
			}
			if len(fields) > 0 {
				apiErr.Details = fields
			}
			return apiErr
		}

		if status >= http.StatusInternalServerError {
			message = http.StatusText(status)
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// contextErrorMessage names a request that ended because its context did.
func contextErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out", true
	case errors.Is(err, context.Canceled):
		return "request cancelled", true
	}
	return "", false
}

func fromDomainError(err error) *APIError {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		return &APIError{
			status:  http.StatusInternalServerError,
			Code:    string(domainerrors.CodeInternal),
			Message: http.StatusText(http.StatusInternalServerError),
		}
	}
	return &APIError{
		status:  domainErr.HTTPStatus(),
		Code:    string(domainErr.Code),
		Message: domainErr.Message,
		Details: domainErr.Details,
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeAlreadyExists)
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodePersistence)
	default:
		return string(domainerrors.CodeInternal)
	}
}
