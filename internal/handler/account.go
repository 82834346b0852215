package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/logging"
	"github.com/josh-kwaku/gig-wallet/internal/service"
)

const (
	defaultLedgerLimit = 50
	maxLedgerLimit     = 200
)

type ledgerService interface {
	GetBalance(ctx context.Context, accountID string) (*domain.Balance, error)
	ManualAdjust(ctx context.Context, adj service.ManualAdjustment) (*domain.Balance, error)
	ListEntries(ctx context.Context, accountID string, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type AccountHandler struct {
	ledger ledgerService
}

func NewAccountHandler(ledger ledgerService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

type adjustmentRequest struct {
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
	Note   string `json:"note"`
}

func (r adjustmentRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Kind == "" {
		errs = append(errs, FieldError{Field: "kind", Message: "required"})
	} else if !domain.AdjustmentKind(r.Kind).IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be credit or debit"})
	}

	if strings.TrimSpace(r.Amount) == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if _, err := domain.ParseAmount(r.Amount); err != nil {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive decimal with at most two places"})
	}

	return errs
}

func (h *AccountHandler) OwnBalance(w http.ResponseWriter, r *http.Request) {
	p, appErr := principalFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	h.respondBalance(w, r, p.AccountID)
}

func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	h.respondBalance(w, r, accountID)
}

func (h *AccountHandler) respondBalance(w http.ResponseWriter, r *http.Request, accountID string) {
	bal, err := h.ledger.GetBalance(r.Context(), accountID)
	if err != nil {
		logging.FromContext(r.Context()).Error("balance lookup failed", "target_account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toBalanceDTO(bal))
}

func (h *AccountHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	p, appErr := principalFrom(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req adjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	amount, _ := domain.ParseAmount(req.Amount)

	bal, err := h.ledger.ManualAdjust(r.Context(), service.ManualAdjustment{
		AccountID: accountID,
		Kind:      domain.AdjustmentKind(req.Kind),
		Amount:    amount,
		Note:      req.Note,
		AdminID:   p.AccountID,
	})
	if err != nil {
		log.Error("manual adjustment failed",
			"target_account_id", accountID,
			"kind", req.Kind,
			"amount", req.Amount,
			"admin_id", p.AccountID,
			"error", err,
		)
		RespondAdjustmentError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toBalanceDTO(bal))
}

func (h *AccountHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	accountID, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset, fields := parsePage(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entries, total, err := h.ledger.ListEntries(r.Context(), accountID, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("ledger read failed", "target_account_id", accountID, "error", err)
		RespondDomainError(w, err)
		return
	}

	page := ledgerPageDTO{
		Entries: make([]ledgerEntryDTO, 0, len(entries)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for i := range entries {
		page.Entries = append(page.Entries, toLedgerEntryDTO(&entries[i]))
	}
	RespondSuccess(w, http.StatusOK, page)
}

func parsePage(r *http.Request) (limit, offset int, errs []FieldError) {
	limit = defaultLedgerLimit
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLedgerLimit {
			errs = append(errs, FieldError{Field: "limit", Message: "must be between 1 and 200"})
		} else {
			limit = n
		}
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "offset", Message: "must be zero or greater"})
		} else {
			offset = n
		}
	}

	return limit, offset, errs
}
