package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/logging"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
)

type FundingService struct {
	store  storage
	ledger *LedgerService
	events eventPublisher
	now    func() time.Time
}

func NewFundingService(store storage, ledger *LedgerService, events eventPublisher) *FundingService {
	return &FundingService{
		store:  store,
		ledger: ledger,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *FundingService) CreateRequest(ctx context.Context, in domain.NewFundingRequest) (*domain.FundingRequest, error) {
	log := logging.FromContext(ctx)

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("CreateRequest: id: %w", err)
	}

	req, err := in.Build(id, s.now())
	if err != nil {
		return nil, fmt.Errorf("CreateRequest: %w", err)
	}

	stores := s.store.Stores()

	// Re-checked under lock at approval; this only keeps unfundable
	// withdrawals out of the review queue.
	if req.Kind == domain.RequestKindWithdrawal {
		bal, err := stores.Balances.Get(ctx, req.AccountID)
		if err != nil {
			return nil, fmt.Errorf("CreateRequest: balance: %w", err)
		}
		if req.Amount.GreaterThan(bal.Balance) {
			return nil, fmt.Errorf("CreateRequest: %w", domain.ErrInsufficientFunds)
		}
	}

	if err := stores.Requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("CreateRequest: %w", err)
	}

	log.Info("funding request created",
		"request_id", req.ID,
		"account_id", req.AccountID,
		"kind", req.Kind,
		"amount", req.Amount.StringFixed(domain.MoneyScale),
	)

	publish(ctx, s.events, domain.EventFundingRequestCreated, req.AccountID, req.AccountID, requestEventPayload{
		RequestID: req.ID,
		Kind:      req.Kind,
		Amount:    req.Amount.StringFixed(domain.MoneyScale),
		Status:    req.Status,
	}, req.CreatedAt)

	return req, nil
}

func (s *FundingService) GetRequest(ctx context.Context, id uuid.UUID) (*domain.FundingRequest, error) {
	req, err := s.store.Stores().Requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetRequest: %w", err)
	}
	return req, nil
}

func (s *FundingService) ListPending(ctx context.Context) ([]domain.FundingRequest, error) {
	reqs, err := s.store.Stores().Requests.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", err)
	}
	return reqs, nil
}

func (s *FundingService) ListByAccount(ctx context.Context, accountID string) ([]domain.FundingRequest, error) {
	reqs, err := s.store.Stores().Requests.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", err)
	}
	return reqs, nil
}

// Approve applies the request to the ledger and marks it approved in one
// transaction. If the ledger write fails the request stays pending.
func (s *FundingService) Approve(ctx context.Context, id uuid.UUID, adminID string) (*domain.FundingRequest, *domain.Balance, error) {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(adminID) == "" {
		return nil, nil, fmt.Errorf("Approve: admin_id: %w", domain.ErrMissingField)
	}

	var (
		approved *domain.FundingRequest
		bal      *domain.Balance
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, st ports.Stores) error {
		req, err := st.Requests.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req.Status.IsTerminal() {
			return domain.ErrAlreadyProcessed
		}

		delta, code, err := ledgerEffect(req)
		if err != nil {
			return err
		}

		bal, err = s.ledger.apply(ctx, st, req.AccountID, delta, domain.Reason{
			Code:      code,
			RequestID: &req.ID,
			Actor:     adminID,
		})
		if err != nil {
			return err
		}

		approved, err = st.Requests.MarkProcessed(ctx, req.ID, domain.RequestStatusApproved, adminID, s.now())
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			log.Warn("approval refused, request left pending",
				"request_id", id,
				"admin_id", adminID,
				"error", err,
			)
		}
		return nil, nil, fmt.Errorf("Approve: %w", err)
	}

	log.Info("funding request approved",
		"request_id", approved.ID,
		"account_id", approved.AccountID,
		"kind", approved.Kind,
		"amount", approved.Amount.StringFixed(domain.MoneyScale),
		"balance", bal.Balance.StringFixed(domain.MoneyScale),
		"admin_id", adminID,
	)

	publish(ctx, s.events, domain.EventFundingRequestApproved, approved.AccountID, adminID, requestEventPayload{
		RequestID: approved.ID,
		Kind:      approved.Kind,
		Amount:    approved.Amount.StringFixed(domain.MoneyScale),
		Status:    approved.Status,
		Balance:   bal.Balance.StringFixed(domain.MoneyScale),
	}, *approved.ProcessedAt)

	return approved, bal, nil
}

func (s *FundingService) Reject(ctx context.Context, id uuid.UUID, adminID string) (*domain.FundingRequest, error) {
	log := logging.FromContext(ctx)

	if strings.TrimSpace(adminID) == "" {
		return nil, fmt.Errorf("Reject: admin_id: %w", domain.ErrMissingField)
	}

	rejected, err := s.store.Stores().Requests.MarkProcessed(ctx, id, domain.RequestStatusRejected, adminID, s.now())
	if err != nil {
		return nil, fmt.Errorf("Reject: %w", err)
	}

	log.Info("funding request rejected",
		"request_id", rejected.ID,
		"account_id", rejected.AccountID,
		"kind", rejected.Kind,
		"admin_id", adminID,
	)

	publish(ctx, s.events, domain.EventFundingRequestRejected, rejected.AccountID, adminID, requestEventPayload{
		RequestID: rejected.ID,
		Kind:      rejected.Kind,
		Amount:    rejected.Amount.StringFixed(domain.MoneyScale),
		Status:    rejected.Status,
	}, *rejected.ProcessedAt)

	return rejected, nil
}

func ledgerEffect(req *domain.FundingRequest) (decimal.Decimal, domain.ReasonCode, error) {
	switch req.Kind {
	case domain.RequestKindWithdrawal:
		return req.Amount.Neg(), domain.ReasonWithdrawalApproved, nil
	case domain.RequestKindDeposit:
		return req.Amount, domain.ReasonDepositApproved, nil
	}
	return decimal.Zero, "", fmt.Errorf("ledgerEffect: %q: %w", req.Kind, domain.ErrInvalidKind)
}
