package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/logging"
)

type fundingService interface {
	CreateRequest(ctx context.Context, in domain.NewFundingRequest) (*domain.FundingRequest, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*domain.FundingRequest, error)
	ListPending(ctx context.Context) ([]domain.FundingRequest, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.FundingRequest, error)
	Approve(ctx context.Context, id uuid.UUID, adminID string) (*domain.FundingRequest, *domain.Balance, error)
	Reject(ctx context.Context, id uuid.UUID, adminID string) (*domain.FundingRequest, error)
}

type FundingHandler struct {
	funding fundingService
}

func NewFundingHandler(funding fundingService) *FundingHandler {
	return &FundingHandler{funding: funding}
}

type createFundingRequest struct {
	Kind             string `json:"kind"`
	Amount           string `json:"amount"`
	PixKey           string `json:"pix_key"`
	ReceiptReference string `json:"receipt_reference"`
	DisplayName      string `json:"display_name"`
}

func (r createFundingRequest) Validate() []FieldError {
	var errs []FieldError

	kind := domain.RequestKind(r.Kind)
	if r.Kind == "" {
		errs = append(errs, FieldError{Field: "kind", Message: "required"})
	} else if !kind.IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be withdrawal or deposit"})
	}

	if strings.TrimSpace(r.Amount) == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if _, err := domain.ParseAmount(r.Amount); err != nil {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive decimal with at most two places"})
	}

	switch kind {
	case domain.RequestKindWithdrawal:
		if strings.TrimSpace(r.PixKey) == "" {
			errs = append(errs, FieldError{Field: "pix_key", Message: "required for withdrawals"})
		}
	case domain.RequestKindDeposit:
		if strings.TrimSpace(r.ReceiptReference) == "" {
			errs = append(errs, FieldError{Field: "receipt_reference", Message: "required for deposits"})
		}
	}

	return errs
}

type approvalDTO struct {
	Request fundingRequestDTO `json:"request"`
	Balance balanceDTO        `json:"balance"`
}

func (h *FundingHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, appErr := principalFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req createFundingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, _ := domain.ParseAmount(req.Amount)

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = p.Name
	}

	created, err := h.funding.CreateRequest(r.Context(), domain.NewFundingRequest{
		AccountID:        p.AccountID,
		DisplayName:      displayName,
		Kind:             domain.RequestKind(req.Kind),
		Amount:           amount,
		PixKey:           req.PixKey,
		ReceiptReference: req.ReceiptReference,
	})
	if err != nil {
		log.Warn("funding request creation failed", "kind", req.Kind, "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/funding-requests/%s", created.ID))
	RespondSuccess(w, http.StatusCreated, toFundingRequestDTO(created))
}

func (h *FundingHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	p, appErr := principalFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	reqs, err := h.funding.ListByAccount(r.Context(), p.AccountID)
	if err != nil {
		logging.FromContext(r.Context()).Error("listing funding requests failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toFundingRequestDTOs(reqs))
}

func (h *FundingHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, appErr := principalFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	id, appErr := requestIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	req, err := h.funding.GetRequest(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("funding request lookup failed", "request_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	if !canView(p, req) {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, toFundingRequestDTO(req))
}

func (h *FundingHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.funding.ListPending(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("listing pending requests failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toFundingRequestDTOs(reqs))
}

func (h *FundingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, appErr := principalFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	id, appErr := requestIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	approved, bal, err := h.funding.Approve(r.Context(), id, p.AccountID)
	if err != nil {
		log.Warn("funding request approval failed", "request_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, approvalDTO{
		Request: toFundingRequestDTO(approved),
		Balance: toBalanceDTO(bal),
	})
}

func (h *FundingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, appErr := principalFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	id, appErr := requestIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	rejected, err := h.funding.Reject(r.Context(), id, p.AccountID)
	if err != nil {
		log.Warn("funding request rejection failed", "request_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toFundingRequestDTO(rejected))
}
