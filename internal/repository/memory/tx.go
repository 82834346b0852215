package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
)

type tx struct {
	b       *Backend
	unlocks []func()

	accounts map[string]bool
	reqLocks map[uuid.UUID]bool

	balances map[string]domain.Balance
	requests map[uuid.UUID]domain.FundingRequest
	entries  []domain.LedgerEntry
}

func (t *tx) stores() ports.Stores {
	return ports.Stores{
		Balances: txBalances{t: t},
		Requests: txRequests{t: t},
		Ledger:   txLedger{t: t},
	}
}

func (t *tx) lockAccount(ctx context.Context, accountID string) error {
	if t.accounts[accountID] {
		return nil
	}
	unlock, err := t.b.accountLocks.Lock(ctx, accountID)
	if err != nil {
		return err
	}
	t.accounts[accountID] = true
	t.unlocks = append(t.unlocks, unlock)
	return nil
}

func (t *tx) lockRequest(ctx context.Context, id uuid.UUID) error {
	if t.reqLocks[id] {
		return nil
	}
	unlock, err := t.b.requestLocks.Lock(ctx, id.String())
	if err != nil {
		return err
	}
	t.reqLocks[id] = true
	t.unlocks = append(t.unlocks, unlock)
	return nil
}

func (t *tx) commit() {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()

	for id, bal := range t.balances {
		t.b.balances[id] = bal
	}
	for id, req := range t.requests {
		t.b.requests[id] = req
	}
	t.b.entries = append(t.b.entries, t.entries...)
}

func (t *tx) release() {
	for i := len(t.unlocks) - 1; i >= 0; i-- {
		t.unlocks[i]()
	}
	t.unlocks = nil
}

func (t *tx) balance(accountID string) (domain.Balance, bool) {
	if bal, ok := t.balances[accountID]; ok {
		return bal, true
	}
	t.b.mu.RLock()
	defer t.b.mu.RUnlock()
	bal, ok := t.b.balances[accountID]
	return bal, ok
}

func (t *tx) request(id uuid.UUID) (domain.FundingRequest, bool) {
	if req, ok := t.requests[id]; ok {
		return req, true
	}
	t.b.mu.RLock()
	defer t.b.mu.RUnlock()
	req, ok := t.b.requests[id]
	return req, ok
}

// visibleRequests merges committed requests with the ones staged in t.
func (t *tx) visibleRequests(keep func(domain.FundingRequest) bool) []domain.FundingRequest {
	t.b.mu.RLock()
	out := make([]domain.FundingRequest, 0)
	for id, req := range t.b.requests {
		if _, staged := t.requests[id]; staged {
			continue
		}
		if keep(req) {
			out = append(out, req)
		}
	}
	t.b.mu.RUnlock()

	for _, req := range t.requests {
		if keep(req) {
			out = append(out, req)
		}
	}
	return out
}

type txBalances struct{ t *tx }

func (s txBalances) Get(_ context.Context, accountID string) (*domain.Balance, error) {
	bal, ok := s.t.balance(accountID)
	if !ok {
		return domain.NewBalance(accountID, s.t.b.now()), nil
	}
	return &bal, nil
}

func (s txBalances) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) (*domain.BalanceChange, error) {
	if err := s.t.lockAccount(ctx, accountID); err != nil {
		return nil, lockErr("ApplyDelta", err)
	}

	now := s.t.b.now()
	cur, ok := s.t.balance(accountID)
	if !ok {
		cur = *domain.NewBalance(accountID, now)
	}

	next := cur.Balance.Add(delta)
	if next.IsNegative() {
		return nil, fmt.Errorf("ApplyDelta: %w", domain.ErrInsufficientFunds)
	}

	updated := cur
	updated.Balance = next
	updated.UpdatedAt = now
	s.t.balances[accountID] = updated

	return &domain.BalanceChange{Before: cur.Balance, Balance: updated}, nil
}

type txRequests struct{ t *tx }

func (s txRequests) Create(_ context.Context, req *domain.FundingRequest) error {
	if _, exists := s.t.request(req.ID); exists {
		return fmt.Errorf("Create: duplicate id %s: %w", req.ID, domain.ErrStorageFailure)
	}
	s.t.requests[req.ID] = *req
	return nil
}

func (s txRequests) GetByID(_ context.Context, id uuid.UUID) (*domain.FundingRequest, error) {
	req, ok := s.t.request(id)
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	return &req, nil
}

func (s txRequests) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.FundingRequest, error) {
	if err := s.t.lockRequest(ctx, id); err != nil {
		return nil, lockErr("GetForUpdate", err)
	}
	req, ok := s.t.request(id)
	if !ok {
		return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
	}
	return &req, nil
}

func (s txRequests) ListPending(_ context.Context) ([]domain.FundingRequest, error) {
	out := s.t.visibleRequests(func(r domain.FundingRequest) bool {
		return r.Status == domain.RequestStatusPending
	})
	sort.Slice(out, func(i, j int) bool { return createdBefore(out[i], out[j]) })
	return out, nil
}

func (s txRequests) ListByAccount(_ context.Context, accountID string) ([]domain.FundingRequest, error) {
	out := s.t.visibleRequests(func(r domain.FundingRequest) bool {
		return r.AccountID == accountID
	})
	sort.Slice(out, func(i, j int) bool { return createdBefore(out[j], out[i]) })
	return out, nil
}

func (s txRequests) MarkProcessed(ctx context.Context, id uuid.UUID, status domain.RequestStatus, processedBy string, at time.Time) (*domain.FundingRequest, error) {
	if err := s.t.lockRequest(ctx, id); err != nil {
		return nil, lockErr("MarkProcessed", err)
	}
	req, ok := s.t.request(id)
	if !ok {
		return nil, fmt.Errorf("MarkProcessed: %w", domain.ErrNotFound)
	}
	if req.Status != domain.RequestStatusPending {
		return nil, fmt.Errorf("MarkProcessed: %w", domain.ErrAlreadyProcessed)
	}

	req.Status = status
	req.ProcessedAt = &at
	req.ProcessedBy = &processedBy
	s.t.requests[id] = req
	return &req, nil
}

func createdBefore(a, b domain.FundingRequest) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

type txLedger struct{ t *tx }

func (s txLedger) Append(_ context.Context, entry *domain.LedgerEntry) error {
	s.t.entries = append(s.t.entries, *entry)
	return nil
}

func (s txLedger) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]domain.LedgerEntry, int, error) {
	s.t.b.mu.RLock()
	all := make([]domain.LedgerEntry, 0, len(s.t.b.entries)+len(s.t.entries))
	all = append(all, s.t.b.entries...)
	s.t.b.mu.RUnlock()
	all = append(all, s.t.entries...)

	var matched []domain.LedgerEntry
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].AccountID == accountID {
			matched = append(matched, all[i])
		}
	}

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}
