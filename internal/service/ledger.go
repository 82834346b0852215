package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/logging"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
)

type LedgerService struct {
	store  storage
	events eventPublisher
	now    func() time.Time
}

func NewLedgerService(store storage, events eventPublisher) *LedgerService {
	return &LedgerService{
		store:  store,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *LedgerService) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	bal, err := s.store.Stores().Balances.Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	return bal, nil
}

func (s *LedgerService) Credit(ctx context.Context, accountID string, amount decimal.Decimal, reason domain.Reason) (*domain.Balance, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("Credit: %w", err)
	}
	bal, err := s.applyInTx(ctx, accountID, amount, reason)
	if err != nil {
		return nil, fmt.Errorf("Credit: %w", err)
	}
	return bal, nil
}

func (s *LedgerService) Debit(ctx context.Context, accountID string, amount decimal.Decimal, reason domain.Reason) (*domain.Balance, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, fmt.Errorf("Debit: %w", err)
	}
	bal, err := s.applyInTx(ctx, accountID, amount.Neg(), reason)
	if err != nil {
		return nil, fmt.Errorf("Debit: %w", err)
	}
	return bal, nil
}

type ManualAdjustment struct {
	AccountID string
	Kind      domain.AdjustmentKind
	Amount    decimal.Decimal
	Note      string
	AdminID   string
}

func (s *LedgerService) ManualAdjust(ctx context.Context, adj ManualAdjustment) (*domain.Balance, error) {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(adj.AccountID) == "" {
		return nil, fmt.Errorf("ManualAdjust: account_id: %w", domain.ErrMissingField)
	}
	if strings.TrimSpace(adj.AdminID) == "" {
		return nil, fmt.Errorf("ManualAdjust: admin_id: %w", domain.ErrMissingField)
	}

	reason := domain.Reason{Actor: adj.AdminID, Note: strings.TrimSpace(adj.Note)}

	var (
		bal *domain.Balance
		err error
	)
	switch adj.Kind {
	case domain.AdjustmentCredit:
		reason.Code = domain.ReasonManualCredit
		bal, err = s.Credit(ctx, adj.AccountID, adj.Amount, reason)
	case domain.AdjustmentDebit:
		reason.Code = domain.ReasonManualDebit
		bal, err = s.Debit(ctx, adj.AccountID, adj.Amount, reason)
	default:
		return nil, fmt.Errorf("ManualAdjust: %q: %w", adj.Kind, domain.ErrInvalidKind)
	}
	if err != nil {
		return nil, fmt.Errorf("ManualAdjust: %w", err)
	}

	log.Info("manual adjustment applied",
		"account_id", adj.AccountID,
		"kind", adj.Kind,
		"amount", adj.Amount.StringFixed(domain.MoneyScale),
		"balance", bal.Balance.StringFixed(domain.MoneyScale),
		"admin_id", adj.AdminID,
	)

	publish(ctx, s.events, domain.EventBalanceAdjusted, adj.AccountID, adj.AdminID, adjustmentEventPayload{
		Kind:    adj.Kind,
		Amount:  adj.Amount.StringFixed(domain.MoneyScale),
		Balance: bal.Balance.StringFixed(domain.MoneyScale),
		Note:    reason.Note,
	}, bal.UpdatedAt)

	return bal, nil
}

func (s *LedgerService) ListEntries(ctx context.Context, accountID string, limit, offset int) ([]domain.LedgerEntry, int, error) {
	entries, total, err := s.store.Stores().Ledger.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListEntries: %w", err)
	}
	return entries, total, nil
}

func (s *LedgerService) applyInTx(ctx context.Context, accountID string, delta decimal.Decimal, reason domain.Reason) (*domain.Balance, error) {
	var bal *domain.Balance
	err := s.store.WithinTx(ctx, func(ctx context.Context, st ports.Stores) error {
		var err error
		bal, err = s.apply(ctx, st, accountID, delta, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bal, nil
}

// apply changes the balance and appends the matching audit entry using the
// caller's transaction.
func (s *LedgerService) apply(ctx context.Context, st ports.Stores, accountID string, delta decimal.Decimal, reason domain.Reason) (*domain.Balance, error) {
	change, err := st.Balances.ApplyDelta(ctx, accountID, delta)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	actor := reason.Actor
	if actor == "" {
		actor = domain.SystemActor
	}

	entry := &domain.LedgerEntry{
		ID:               uuid.Must(uuid.NewV7()),
		AccountID:        accountID,
		Amount:           delta,
		BalanceBefore:    change.Before,
		BalanceAfter:     change.Balance.Balance,
		Reason:           reason.Code,
		Source:           reason.Source(),
		FundingRequestID: reason.RequestID,
		Actor:            actor,
		Note:             reason.Note,
		CreatedAt:        s.now(),
	}
	if err := st.Ledger.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("apply: audit: %w", err)
	}

	bal := change.Balance
	return &bal, nil
}
