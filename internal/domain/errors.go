package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be a positive decimal with at most two places")
	ErrAlreadyProcessed  = errors.New("funding request already processed")
	ErrBusy              = errors.New("account busy, retry later")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidKind       = errors.New("invalid kind")
	ErrStorageFailure    = errors.New("storage failure")
)
