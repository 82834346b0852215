package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/josh-kwaku/gig-wallet/internal/ports"
)

type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type DB struct {
	pool     *sql.DB
	lockWait time.Duration
	now      func() time.Time
}

func NewDB(pool *sql.DB, lockWait time.Duration) *DB {
	return &DB{
		pool:     pool,
		lockWait: lockWait,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (d *DB) Conn() *sql.DB {
	return d.pool
}

func (d *DB) Ping(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, s ports.Stores) error) error {
	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WithinTx: begin: %w", storageErr(err))
	}
	defer tx.Rollback()

	if d.lockWait > 0 {
		// SET does not take bind parameters; the value is an integer.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", d.lockWait.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("WithinTx: lock_timeout: %w", storageErr(err))
		}
	}

	if err := fn(ctx, d.stores(tx, nil)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("WithinTx: commit: %w", storageErr(err))
	}
	return nil
}

// Stores returns stores bound to the pool. Multi-statement operations open
// their own transaction.
func (d *DB) Stores() ports.Stores {
	return d.stores(d.pool, d)
}

func (d *DB) stores(q querier, root *DB) ports.Stores {
	return ports.Stores{
		Balances: &BalanceRepository{q: q, root: root, now: d.now},
		Requests: &FundingRequestRepository{q: q, root: root},
		Ledger:   &LedgerRepository{q: q},
	}
}
