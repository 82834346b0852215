package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RequestKind string

const (
	RequestKindWithdrawal RequestKind = "withdrawal"
	RequestKindDeposit    RequestKind = "deposit"
)

func (k RequestKind) IsValid() bool {
	switch k {
	case RequestKindWithdrawal, RequestKindDeposit:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

type FundingRequest struct {
	ID               uuid.UUID
	AccountID        string
	DisplayName      string
	Kind             RequestKind
	Amount           decimal.Decimal
	PixKey           *string
	ReceiptReference *string
	Status           RequestStatus
	CreatedAt        time.Time
	ProcessedAt      *time.Time
	ProcessedBy      *string
}

type NewFundingRequest struct {
	AccountID        string
	DisplayName      string
	Kind             RequestKind
	Amount           decimal.Decimal
	PixKey           string
	ReceiptReference string
}

// Build validates the submission and returns a pending request. Only the
// field matching the kind is kept.
func (n NewFundingRequest) Build(id uuid.UUID, now time.Time) (*FundingRequest, error) {
	if strings.TrimSpace(n.AccountID) == "" {
		return nil, fmt.Errorf("account_id: %w", ErrMissingField)
	}
	if !n.Kind.IsValid() {
		return nil, fmt.Errorf("%q: %w", n.Kind, ErrInvalidKind)
	}
	if err := ValidateAmount(n.Amount); err != nil {
		return nil, err
	}

	req := &FundingRequest{
		ID:          id,
		AccountID:   n.AccountID,
		DisplayName: strings.TrimSpace(n.DisplayName),
		Kind:        n.Kind,
		Amount:      n.Amount,
		Status:      RequestStatusPending,
		CreatedAt:   now,
	}

	switch n.Kind {
	case RequestKindWithdrawal:
		key := strings.TrimSpace(n.PixKey)
		if key == "" {
			return nil, fmt.Errorf("pix_key: %w", ErrMissingField)
		}
		req.PixKey = &key
	case RequestKindDeposit:
		ref := strings.TrimSpace(n.ReceiptReference)
		if ref == "" {
			return nil, fmt.Errorf("receipt_reference: %w", ErrMissingField)
		}
		req.ReceiptReference = &ref
	}

	return req, nil
}
