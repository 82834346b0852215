package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

// Retryable reports whether the same request may succeed if sent again.
func (e *AppError) Retryable() bool { return e == ErrAccountBusy }

const retryAfterSeconds = "1"

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Admin role required"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrRequestTooLarge  = &AppError{http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Request body too large"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount     = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive value with at most two decimal places"}
	ErrMissingField      = &AppError{http.StatusBadRequest, "MISSING_FIELD", "A required field is missing"}
	ErrInvalidKind       = &AppError{http.StatusBadRequest, "INVALID_KIND", "Unknown kind"}
	ErrInsufficientFunds = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrAlreadyProcessed  = &AppError{http.StatusConflict, "ALREADY_PROCESSED", "Funding request was already approved or rejected"}
	ErrAccountBusy       = &AppError{http.StatusConflict, "ACCOUNT_BUSY", "Account is busy, please retry"}
	ErrAdjustmentFailed  = &AppError{http.StatusUnprocessableEntity, "ADJUSTMENT_FAILED", "Balance adjustment could not be applied"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed"}
)
