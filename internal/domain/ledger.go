package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReasonCode string

const (
	ReasonWithdrawalApproved ReasonCode = "withdrawal_approved"
	ReasonDepositApproved    ReasonCode = "deposit_approved"
	ReasonManualCredit       ReasonCode = "manual_credit"
	ReasonManualDebit        ReasonCode = "manual_debit"
)

type EntrySource string

const (
	EntrySourceRequest EntrySource = "request"
	EntrySourceManual  EntrySource = "manual"
)

// SystemActor marks entries not attributable to an administrator.
const SystemActor = "system"

// Reason describes why a balance changed. RequestID is set for
// request-driven changes and nil for manual adjustments.
type Reason struct {
	Code      ReasonCode
	RequestID *uuid.UUID
	Actor     string
	Note      string
}

func (r Reason) Source() EntrySource {
	if r.RequestID != nil {
		return EntrySourceRequest
	}
	return EntrySourceManual
}

type LedgerEntry struct {
	ID               uuid.UUID
	AccountID        string
	Amount           decimal.Decimal
	BalanceBefore    decimal.Decimal
	BalanceAfter     decimal.Decimal
	Reason           ReasonCode
	Source           EntrySource
	FundingRequestID *uuid.UUID
	Actor            string
	Note             string
	CreatedAt        time.Time
}

type AdjustmentKind string

const (
	AdjustmentCredit AdjustmentKind = "credit"
	AdjustmentDebit  AdjustmentKind = "debit"
)

func (k AdjustmentKind) IsValid() bool {
	return k == AdjustmentCredit || k == AdjustmentDebit
}
