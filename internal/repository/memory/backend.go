// Package memory is an in-process implementation of the ledger stores. Writes
// made inside a transaction are staged and become visible to other callers
// only on commit; per-account and per-request locks are held until then.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/keylock"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
)

type Backend struct {
	mu       sync.RWMutex
	balances map[string]domain.Balance
	requests map[uuid.UUID]domain.FundingRequest
	entries  []domain.LedgerEntry

	accountLocks *keylock.Locker
	requestLocks *keylock.Locker
	now          func() time.Time
}

func New(lockWait time.Duration) *Backend {
	return &Backend{
		balances:     make(map[string]domain.Balance),
		requests:     make(map[uuid.UUID]domain.FundingRequest),
		accountLocks: keylock.New(lockWait),
		requestLocks: keylock.New(lockWait),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (b *Backend) WithinTx(ctx context.Context, fn func(ctx context.Context, s ports.Stores) error) error {
	t := b.begin()
	defer t.release()

	if err := fn(ctx, t.stores()); err != nil {
		return err
	}
	t.commit()
	return nil
}

// Stores returns stores whose every call runs in its own transaction.
func (b *Backend) Stores() ports.Stores {
	return ports.Stores{
		Balances: autoBalances{b: b},
		Requests: autoRequests{b: b},
		Ledger:   autoLedger{b: b},
	}
}

func (b *Backend) Ping(context.Context) error {
	return nil
}

func (b *Backend) begin() *tx {
	return &tx{
		b:        b,
		accounts: make(map[string]bool),
		reqLocks: make(map[uuid.UUID]bool),
		balances: make(map[string]domain.Balance),
		requests: make(map[uuid.UUID]domain.FundingRequest),
	}
}

func lockErr(op string, err error) error {
	if errors.Is(err, keylock.ErrTimeout) {
		return fmt.Errorf("%s: %w", op, domain.ErrBusy)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func run[T any](ctx context.Context, b *Backend, fn func(ctx context.Context, s ports.Stores) (T, error)) (T, error) {
	var out T
	err := b.WithinTx(ctx, func(ctx context.Context, s ports.Stores) error {
		var err error
		out, err = fn(ctx, s)
		return err
	})
	return out, err
}
