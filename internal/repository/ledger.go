package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

const ledgerColumns = `id, account_id, amount, balance_before, balance_after,
	reason, source, funding_request_id, actor, note, created_at`

// LedgerRepository appends to ledger_entries. The table rejects UPDATE and
// DELETE at the database level.
type LedgerRepository struct {
	q querier
}

func (r *LedgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO ledger_entries (
			id, account_id, amount, balance_before, balance_after,
			reason, source, funding_request_id, actor, note, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.AccountID, entry.Amount, entry.BalanceBefore, entry.BalanceAfter,
		entry.Reason, entry.Source, entry.FundingRequestID, entry.Actor, entry.Note,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Append: %w", storageErr(err))
	}
	return nil
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: count: %w", storageErr(err))
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: %w", storageErr(err))
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByAccount: scan: %w", storageErr(err))
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: rows: %w", storageErr(err))
	}
	return entries, total, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var requestID uuid.NullUUID
	err := s.Scan(
		&e.ID, &e.AccountID, &e.Amount, &e.BalanceBefore, &e.BalanceAfter,
		&e.Reason, &e.Source, &requestID, &e.Actor, &e.Note, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if requestID.Valid {
		e.FundingRequestID = &requestID.UUID
	}
	return &e, nil
}
