// Package ports declares the storage contracts the ledger services depend on.
// internal/repository implements them on Postgres and
// internal/repository/memory implements them in process.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

type BalanceStore interface {
	// Get returns a zero balance for accounts with no record.
	Get(ctx context.Context, accountID string) (*domain.Balance, error)
	// ApplyDelta adds delta to the balance, creating the record if absent.
	// It fails with domain.ErrInsufficientFunds when the result would be
	// negative and with domain.ErrBusy when the account lock is not acquired
	// within the configured wait.
	ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) (*domain.BalanceChange, error)
}

type FundingRequestStore interface {
	Create(ctx context.Context, req *domain.FundingRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FundingRequest, error)
	// GetForUpdate holds the request lock until the enclosing transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.FundingRequest, error)
	ListPending(ctx context.Context) ([]domain.FundingRequest, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.FundingRequest, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, status domain.RequestStatus, processedBy string, at time.Time) (*domain.FundingRequest, error)
}

type LedgerLog interface {
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.LedgerEntry, int, error)
}

// Stores groups the stores bound to one transaction.
type Stores struct {
	Balances BalanceStore
	Requests FundingRequestStore
	Ledger   LedgerLog
}

type Transactor interface {
	// WithinTx runs fn against transaction-bound stores. The transaction
	// commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

// Backend is a complete storage implementation.
type Backend interface {
	Transactor
	Stores() Stores
	Ping(ctx context.Context) error
}
