package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

type balanceDTO struct {
	AccountID string    `json:"account_id"`
	Balance   string    `json:"balance"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBalanceDTO(b *domain.Balance) balanceDTO {
	return balanceDTO{
		AccountID: b.AccountID,
		Balance:   b.Balance.StringFixed(domain.MoneyScale),
		Status:    string(b.Status),
		UpdatedAt: b.UpdatedAt,
	}
}

type fundingRequestDTO struct {
	ID               uuid.UUID  `json:"id"`
	AccountID        string     `json:"account_id"`
	DisplayName      string     `json:"display_name"`
	Kind             string     `json:"kind"`
	Amount           string     `json:"amount"`
	PixKey           *string    `json:"pix_key,omitempty"`
	ReceiptReference *string    `json:"receipt_reference,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	ProcessedBy      *string    `json:"processed_by,omitempty"`
}

func toFundingRequestDTO(req *domain.FundingRequest) fundingRequestDTO {
	return fundingRequestDTO{
		ID:               req.ID,
		AccountID:        req.AccountID,
		DisplayName:      req.DisplayName,
		Kind:             string(req.Kind),
		Amount:           req.Amount.StringFixed(domain.MoneyScale),
		PixKey:           req.PixKey,
		ReceiptReference: req.ReceiptReference,
		Status:           string(req.Status),
		CreatedAt:        req.CreatedAt,
		ProcessedAt:      req.ProcessedAt,
		ProcessedBy:      req.ProcessedBy,
	}
}

func toFundingRequestDTOs(reqs []domain.FundingRequest) []fundingRequestDTO {
	out := make([]fundingRequestDTO, 0, len(reqs))
	for i := range reqs {
		out = append(out, toFundingRequestDTO(&reqs[i]))
	}
	return out
}

type ledgerEntryDTO struct {
	ID               uuid.UUID  `json:"id"`
	Amount           string     `json:"amount"`
	BalanceBefore    string     `json:"balance_before"`
	BalanceAfter     string     `json:"balance_after"`
	Reason           string     `json:"reason"`
	Source           string     `json:"source"`
	FundingRequestID *uuid.UUID `json:"funding_request_id,omitempty"`
	Actor            string     `json:"actor"`
	Note             string     `json:"note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func toLedgerEntryDTO(e *domain.LedgerEntry) ledgerEntryDTO {
	return ledgerEntryDTO{
		ID:               e.ID,
		Amount:           e.Amount.StringFixed(domain.MoneyScale),
		BalanceBefore:    e.BalanceBefore.StringFixed(domain.MoneyScale),
		BalanceAfter:     e.BalanceAfter.StringFixed(domain.MoneyScale),
		Reason:           string(e.Reason),
		Source:           string(e.Source),
		FundingRequestID: e.FundingRequestID,
		Actor:            e.Actor,
		Note:             e.Note,
		CreatedAt:        e.CreatedAt,
	}
}

type ledgerPageDTO struct {
	Entries []ledgerEntryDTO `json:"entries"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}
