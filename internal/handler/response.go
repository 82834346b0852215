package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	if appErr.Retryable() {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

func RespondDomainError(w http.ResponseWriter, err error) {
	appErr, known := domainAppError(err)
	if !known {
		slog.Error("unhandled domain error", "error", err)
	}
	RespondAppError(w, appErr, nil)
}

// RespondAdjustmentError hides the cause of a failed manual adjustment unless
// the admin can act on it: bad input, or a busy account worth retrying.
func RespondAdjustmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrBusy):
		RespondDomainError(w, err)
	default:
		RespondAppError(w, ErrAdjustmentFailed, nil)
	}
}

func domainAppError(err error) (*AppError, bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return ErrInvalidAmount, true
	case errors.Is(err, domain.ErrMissingField):
		return ErrMissingField, true
	case errors.Is(err, domain.ErrInvalidKind):
		return ErrInvalidKind, true
	case errors.Is(err, domain.ErrNotFound):
		return ErrResourceNotFound, true
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return ErrAlreadyProcessed, true
	case errors.Is(err, domain.ErrBusy):
		return ErrAccountBusy, true
	case errors.Is(err, domain.ErrInsufficientFunds):
		return ErrInsufficientFunds, true
	default:
		return ErrInternalError, false
	}
}
