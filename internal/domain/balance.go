package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "active"
	// Reserved; nothing transitions an account to frozen yet.
	AccountStatusFrozen AccountStatus = "frozen"
)

type Balance struct {
	AccountID string
	Balance   decimal.Decimal
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBalance is the zero-value record returned for accounts that have never
// been written to.
func NewBalance(accountID string, now time.Time) *Balance {
	return &Balance{
		AccountID: accountID,
		Balance:   decimal.Zero,
		Status:    AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BalanceChange is the result of a successful delta application.
type BalanceChange struct {
	Before  decimal.Decimal
	Balance Balance
}
