package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
)

const fundingRequestColumns = `id, account_id, display_name, kind, amount,
	pix_key, receipt_reference, status, created_at, processed_at, processed_by`

type FundingRequestRepository struct {
	q    querier
	root *DB
}

func (r *FundingRequestRepository) Create(ctx context.Context, req *domain.FundingRequest) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO funding_requests (
			id, account_id, display_name, kind, amount,
			pix_key, receipt_reference, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.AccountID, req.DisplayName, req.Kind, req.Amount,
		req.PixKey, req.ReceiptReference, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", storageErr(err))
	}
	return nil
}

func (r *FundingRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FundingRequest, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+fundingRequestColumns+` FROM funding_requests WHERE id = $1`, id,
	)
	req, err := scanFundingRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", storageErr(err))
	}
	return req, nil
}

func (r *FundingRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.FundingRequest, error) {
	if r.root != nil {
		return r.GetByID(ctx, id)
	}

	row := r.q.QueryRowContext(ctx,
		`SELECT `+fundingRequestColumns+` FROM funding_requests WHERE id = $1 FOR UPDATE`, id,
	)
	req, err := scanFundingRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", storageErr(err))
	}
	return req, nil
}

func (r *FundingRequestRepository) ListPending(ctx context.Context) ([]domain.FundingRequest, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+fundingRequestColumns+` FROM funding_requests
		WHERE status = $1 ORDER BY created_at ASC, id ASC`,
		domain.RequestStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("ListPending: %w", storageErr(err))
	}
	return collectFundingRequests(rows, "ListPending")
}

func (r *FundingRequestRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.FundingRequest, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+fundingRequestColumns+` FROM funding_requests
		WHERE account_id = $1 ORDER BY created_at DESC, id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByAccount: %w", storageErr(err))
	}
	return collectFundingRequests(rows, "ListByAccount")
}

// MarkProcessed only updates rows that are still pending, so it is safe to
// call without a prior lock.
func (r *FundingRequestRepository) MarkProcessed(ctx context.Context, id uuid.UUID, status domain.RequestStatus, processedBy string, at time.Time) (*domain.FundingRequest, error) {
	if r.root != nil {
		var req *domain.FundingRequest
		err := r.root.WithinTx(ctx, func(ctx context.Context, s ports.Stores) error {
			var err error
			req, err = s.Requests.MarkProcessed(ctx, id, status, processedBy, at)
			return err
		})
		return req, err
	}

	row := r.q.QueryRowContext(ctx,
		`UPDATE funding_requests
		SET status = $1, processed_at = $2, processed_by = $3
		WHERE id = $4 AND status = $5
		RETURNING `+fundingRequestColumns,
		status, at, processedBy, id, domain.RequestStatusPending,
	)
	req, err := scanFundingRequest(row)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("MarkProcessed: %w", storageErr(err))
	}

	var exists bool
	err = r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM funding_requests WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("MarkProcessed: exists: %w", storageErr(err))
	}
	if !exists {
		return nil, fmt.Errorf("MarkProcessed: %w", domain.ErrNotFound)
	}
	return nil, fmt.Errorf("MarkProcessed: %w", domain.ErrAlreadyProcessed)
}

func collectFundingRequests(rows *sql.Rows, op string) ([]domain.FundingRequest, error) {
	defer rows.Close()

	requests := make([]domain.FundingRequest, 0)
	for rows.Next() {
		req, err := scanFundingRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, storageErr(err))
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, storageErr(err))
	}
	return requests, nil
}

func scanFundingRequest(s scanner) (*domain.FundingRequest, error) {
	var req domain.FundingRequest
	err := s.Scan(
		&req.ID, &req.AccountID, &req.DisplayName, &req.Kind, &req.Amount,
		&req.PixKey, &req.ReceiptReference, &req.Status,
		&req.CreatedAt, &req.ProcessedAt, &req.ProcessedBy,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
