package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
	"github.com/josh-kwaku/gig-wallet/internal/repository"
	"github.com/josh-kwaku/gig-wallet/internal/service"
	"github.com/josh-kwaku/gig-wallet/internal/testutil"
)

type pgFixture struct {
	db      *sql.DB
	ledger  *service.LedgerService
	funding *service.FundingService
}

func setupPostgres(t *testing.T, lockWait time.Duration) *pgFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	backend := repository.NewDB(db, lockWait)
	ledger := service.NewLedgerService(backend, nil)
	return &pgFixture{
		db:      db,
		ledger:  ledger,
		funding: service.NewFundingService(backend, ledger, nil),
	}
}

func TestPostgres_ApproveWithdrawal(t *testing.T) {
	f := setupPostgres(t, 2*time.Second)
	ctx := context.Background()

	testutil.SeedBalance(t, f.db, "worker-1", "100")

	req, err := f.funding.CreateRequest(ctx, withdrawal("worker-1", "40", "ana@pix"))
	require.NoError(t, err)

	approved, bal, err := f.funding.Approve(ctx, req.ID, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusApproved, approved.Status)
	assertDecimal(t, "60", bal.Balance)
	assertDecimal(t, "60", testutil.GetBalance(t, f.db, "worker-1"))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, f.db, "worker-1"))

	entries, total, err := f.ledger.ListEntries(ctx, "worker-1", 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assertDecimal(t, "-40", entries[0].Amount)
	assertDecimal(t, "100", entries[0].BalanceBefore)
	assertDecimal(t, "60", entries[0].BalanceAfter)
	require.NotNil(t, entries[0].FundingRequestID)
	assert.Equal(t, req.ID, *entries[0].FundingRequestID)

	_, _, err = f.funding.Approve(ctx, req.ID, "admin-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assertDecimal(t, "60", testutil.GetBalance(t, f.db, "worker-1"))
}

func TestPostgres_ApproveDepositCreatesAccountLazily(t *testing.T) {
	f := setupPostgres(t, 2*time.Second)
	ctx := context.Background()

	id := testutil.SeedPendingRequest(t, f.db, "employer-9", domain.RequestKindDeposit, "25.50")

	_, bal, err := f.funding.Approve(ctx, id, "admin-1")
	require.NoError(t, err)
	assertDecimal(t, "25.50", bal.Balance)
	assert.Equal(t, domain.RequestStatusApproved, testutil.GetRequestStatus(t, f.db, id))
}

func TestPostgres_RejectLeavesBalance(t *testing.T) {
	f := setupPostgres(t, 2*time.Second)
	ctx := context.Background()

	testutil.SeedBalance(t, f.db, "worker-1", "100")
	id := testutil.SeedPendingRequest(t, f.db, "worker-1", domain.RequestKindDeposit, "25")

	rejected, err := f.funding.Reject(ctx, id, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.ProcessedBy)
	assert.Equal(t, "admin-1", *rejected.ProcessedBy)

	assertDecimal(t, "100", testutil.GetBalance(t, f.db, "worker-1"))
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, f.db, "worker-1"))

	_, err = f.funding.Reject(ctx, id, "admin-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestPostgres_ApprovalRefusedLeavesRequestPending(t *testing.T) {
	f := setupPostgres(t, 2*time.Second)
	ctx := context.Background()

	testutil.SeedBalance(t, f.db, "worker-1", "30")
	id := testutil.SeedPendingRequest(t, f.db, "worker-1", domain.RequestKindWithdrawal, "40")

	_, _, err := f.funding.Approve(ctx, id, "admin-1")
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	assert.Equal(t, domain.RequestStatusPending, testutil.GetRequestStatus(t, f.db, id))
	assertDecimal(t, "30", testutil.GetBalance(t, f.db, "worker-1"))
	assert.Equal(t, 0, testutil.CountLedgerEntries(t, f.db, "worker-1"))
}

func TestPostgres_ConcurrentDebitsExactlyOneSucceeds(t *testing.T) {
	f := setupPostgres(t, 5*time.Second)
	ctx := context.Background()

	testutil.SeedBalance(t, f.db, "worker-1", "100")

	const attempts = 2
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Debit(ctx, "worker-1", dec("60"), domain.Reason{Code: domain.ReasonManualDebit, Actor: "admin-1"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assertDecimal(t, "40", testutil.GetBalance(t, f.db, "worker-1"))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, f.db, "worker-1"))
}

func TestPostgres_ConcurrentApprovalsApplyOnce(t *testing.T) {
	f := setupPostgres(t, 5*time.Second)
	ctx := context.Background()

	testutil.SeedBalance(t, f.db, "worker-1", "100")
	id := testutil.SeedPendingRequest(t, f.db, "worker-1", domain.RequestKindWithdrawal, "10")

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.funding.Approve(ctx, id, "admin-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	}

	assert.Equal(t, 1, succeeded)
	assertDecimal(t, "90", testutil.GetBalance(t, f.db, "worker-1"))
	assert.Equal(t, 1, testutil.CountLedgerEntries(t, f.db, "worker-1"))
}
