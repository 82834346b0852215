package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/repository/memory"
	"github.com/josh-kwaku/gig-wallet/internal/service"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	backend *memory.Backend
	ledger  *service.LedgerService
	funding *service.FundingService
	events  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := memory.New(2 * time.Second)
	events := &recordingPublisher{}
	ledger := service.NewLedgerService(backend, events)
	return &fixture{
		backend: backend,
		ledger:  ledger,
		funding: service.NewFundingService(backend, ledger, events),
		events:  events,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) seedBalance(t *testing.T, accountID, amount string) {
	t.Helper()
	_, err := f.ledger.Credit(context.Background(), accountID, dec(amount), domain.Reason{Code: domain.ReasonManualCredit, Actor: "seed"})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	bal, err := f.ledger.GetBalance(context.Background(), accountID)
	require.NoError(t, err)
	return bal.Balance
}

// entries pages through the whole ledger of accountID.
func (f *fixture) entries(t *testing.T, accountID string) []domain.LedgerEntry {
	t.Helper()
	const pageSize = 100
	var all []domain.LedgerEntry
	for {
		page, total, err := f.ledger.ListEntries(context.Background(), accountID, pageSize, len(all))
		require.NoError(t, err)
		all = append(all, page...)
		if len(page) == 0 || len(all) >= total {
			require.Len(t, all, total)
			return all
		}
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.StringFixed(domain.MoneyScale))
}
