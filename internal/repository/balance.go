package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
)

const balanceColumns = `account_id, balance, status, created_at, updated_at`

// BalanceRepository reads and writes account_balances. root is set when
// the repository is bound to the pool rather than to a transaction.
type BalanceRepository struct {
	q    querier
	root *DB
	now  func() time.Time
}

func (r *BalanceRepository) Get(ctx context.Context, accountID string) (*domain.Balance, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM account_balances WHERE account_id = $1`, accountID,
	)
	b, err := scanBalance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewBalance(accountID, r.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", storageErr(err))
	}
	return b, nil
}

func (r *BalanceRepository) ApplyDelta(ctx context.Context, accountID string, delta decimal.Decimal) (*domain.BalanceChange, error) {
	if r.root != nil {
		var change *domain.BalanceChange
		err := r.root.WithinTx(ctx, func(ctx context.Context, s ports.Stores) error {
			var err error
			change, err = s.Balances.ApplyDelta(ctx, accountID, delta)
			return err
		})
		return change, err
	}

	now := r.now()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO account_balances (account_id, balance, status, created_at, updated_at)
		VALUES ($1, 0, $2, $3, $3)
		ON CONFLICT (account_id) DO NOTHING`,
		accountID, domain.AccountStatusActive, now,
	)
	if err != nil {
		return nil, fmt.Errorf("ApplyDelta: ensure row: %w", storageErr(err))
	}

	cur, err := scanBalance(r.q.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM account_balances WHERE account_id = $1 FOR UPDATE`, accountID,
	))
	if err != nil {
		return nil, fmt.Errorf("ApplyDelta: lock: %w", storageErr(err))
	}

	next := cur.Balance.Add(delta)
	if next.IsNegative() {
		return nil, fmt.Errorf("ApplyDelta: %w", domain.ErrInsufficientFunds)
	}

	updated, err := scanBalance(r.q.QueryRowContext(ctx,
		`UPDATE account_balances SET balance = $1, updated_at = $2
		WHERE account_id = $3
		RETURNING `+balanceColumns,
		next, now, accountID,
	))
	if err != nil {
		return nil, fmt.Errorf("ApplyDelta: update: %w", storageErr(err))
	}

	return &domain.BalanceChange{Before: cur.Balance, Balance: *updated}, nil
}

func scanBalance(s scanner) (*domain.Balance, error) {
	var b domain.Balance
	err := s.Scan(&b.AccountID, &b.Balance, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
