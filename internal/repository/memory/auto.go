package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
)

type autoBalances struct{ b *Backend }

func (s autoBalances) Get(ctx context.Context, accountID string) (*domain.Balance, error) {
	return run(ctx, s.b, func(ctx context.Context, st ports.Stores) (*domain.Balance, error) {
		return st.Balances.Get(ctx, accountID)
	})
}

func (s autoBalances) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) (*domain.BalanceChange, error) {
	return run(ctx, s.b, func(ctx context.Context, st ports.Stores) (*domain.BalanceChange, error) {
		return st.Balances.ApplyDelta(ctx, accountID, delta)
	})
}

type autoRequests struct{ b *Backend }

func (s autoRequests) Create(ctx context.Context, req *domain.FundingRequest) error {
	return s.b.WithinTx(ctx, func(ctx context.Context, st ports.Stores) error {
		return st.Requests.Create(ctx, req)
	})
}

func (s autoRequests) GetByID(ctx context.Context, id uuid.UUID) (*domain.FundingRequest, error) {
	return run(ctx, s.b, func(ctx context.Context, st ports.Stores) (*domain.FundingRequest, error) {
		return st.Requests.GetByID(ctx, id)
	})
}

func (s autoRequests) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.FundingRequest, error) {
	return run(ctx, s.b, func(ctx context.Context, st ports.Stores) (*domain.FundingRequest, error) {
		return st.Requests.GetForUpdate(ctx, id)
	})
}

func (s autoRequests) ListPending(ctx context.Context) ([]domain.FundingRequest, error) {
	return run(ctx, s.b, func(ctx context.Context, st ports.Stores) ([]domain.FundingRequest, error) {
		return st.Requests.ListPending(ctx)
	})
}

func (s autoRequests) ListByAccount(ctx context.Context, accountID string) ([]domain.FundingRequest, error) {
	return run(ctx, s.b, func(ctx context.Context, st ports.Stores) ([]domain.FundingRequest, error) {
		return st.Requests.ListByAccount(ctx, accountID)
	})
}

func (s autoRequests) MarkProcessed(ctx context.Context, id uuid.UUID, status domain.RequestStatus, processedBy string, at time.Time) (*domain.FundingRequest, error) {
	return run(ctx, s.b, func(ctx context.Context, st ports.Stores) (*domain.FundingRequest, error) {
		return st.Requests.MarkProcessed(ctx, id, status, processedBy, at)
	})
}

type autoLedger struct{ b *Backend }

func (s autoLedger) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	return s.b.WithinTx(ctx, func(ctx context.Context, st ports.Stores) error {
		return st.Ledger.Append(ctx, entry)
	})
}

type ledgerPage struct {
	entries []domain.LedgerEntry
	total   int
}

func (s autoLedger) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.LedgerEntry, int, error) {
	page, err := run(ctx, s.b, func(ctx context.Context, st ports.Stores) (ledgerPage, error) {
		entries, total, err := st.Ledger.ListByAccount(ctx, accountID, limit, offset)
		return ledgerPage{entries: entries, total: total}, err
	})
	return page.entries, page.total, err
}
