package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/gig-wallet/internal/domain"
)

// SeedBalance writes a balance row directly, bypassing the ledger.
func SeedBalance(t *testing.T, db *sql.DB, accountID string, balance string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO account_balances (account_id, balance, status, created_at, updated_at)
		 VALUES ($1, $2, 'active', $3, $3)
		 ON CONFLICT (account_id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at`,
		accountID, decimal.RequireFromString(balance), now,
	)
	if err != nil {
		t.Fatalf("seed balance %s: %v", accountID, err)
	}
}

func SeedPendingRequest(t *testing.T, db *sql.DB, accountID string, kind domain.RequestKind, amount string) uuid.UUID {
	t.Helper()

	id := uuid.Must(uuid.NewV7())
	var pixKey, receipt sql.NullString
	if kind == domain.RequestKindWithdrawal {
		pixKey = sql.NullString{String: accountID + "@pix", Valid: true}
	} else {
		receipt = sql.NullString{String: "rcpt-" + id.String()[:8], Valid: true}
	}

	_, err := db.Exec(
		`INSERT INTO funding_requests (id, account_id, display_name, kind, amount, pix_key, receipt_reference, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8)`,
		id, accountID, "Test "+accountID, kind, decimal.RequireFromString(amount), pixKey, receipt, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("seed %s request for %s: %v", kind, accountID, err)
	}
	return id
}

func GetBalance(t *testing.T, db *sql.DB, accountID string) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM account_balances WHERE account_id = $1`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero
	}
	if err != nil {
		t.Fatalf("get balance %s: %v", accountID, err)
	}
	return balance
}

func GetRequestStatus(t *testing.T, db *sql.DB, id uuid.UUID) domain.RequestStatus {
	t.Helper()

	var status domain.RequestStatus
	if err := db.QueryRow(`SELECT status FROM funding_requests WHERE id = $1`, id).Scan(&status); err != nil {
		t.Fatalf("get request status %s: %v", id, err)
	}
	return status
}

func CountLedgerEntries(t *testing.T, db *sql.DB, accountID string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for %s: %v", accountID, err)
	}
	return count
}
