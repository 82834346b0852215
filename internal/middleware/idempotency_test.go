package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/gig-wallet/internal/auth"
	"github.com/josh-kwaku/gig-wallet/internal/handler"
	"github.com/josh-kwaku/gig-wallet/internal/idempotency"
)

func setupIdempotency(t *testing.T, status int) (http.Handler, *atomic.Int32, *idempotency.RedisStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := idempotency.NewRedisStore(client)

	calls := &atomic.Int32{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"success":true,"data":{"call":%d}}`, n)
	})
	return Idempotency(store, time.Hour)(next), calls, store
}

func postWithKey(h http.Handler, accountID, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/funding-requests", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{AccountID: accountID, Role: auth.RoleUser}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIdempotency_ReplaysResponse(t *testing.T) {
	h, calls, _ := setupIdempotency(t, http.StatusCreated)

	first := postWithKey(h, "worker-1", "k1", `{"kind":"deposit"}`)
	second := postWithKey(h, "worker-1", "k1", `{"kind":"deposit"}`)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replayed"))
}

func TestIdempotency_KeysAreScopedPerAccount(t *testing.T) {
	h, calls, _ := setupIdempotency(t, http.StatusCreated)

	postWithKey(h, "worker-1", "k1", `{}`)
	rr := postWithKey(h, "worker-2", "k1", `{}`)

	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, rr.Header().Get("X-Idempotent-Replayed"))
}

func TestIdempotency_DifferentBodyConflicts(t *testing.T) {
	h, calls, _ := setupIdempotency(t, http.StatusCreated)

	postWithKey(h, "worker-1", "k1", `{"amount":"10"}`)
	rr := postWithKey(h, "worker-1", "k1", `{"amount":"20"}`)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", errorCode(t, rr))
}

func TestIdempotency_MissingKey(t *testing.T) {
	h, calls, _ := setupIdempotency(t, http.StatusCreated)

	rr := postWithKey(h, "worker-1", "", `{}`)

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "MISSING_IDEMPOTENCY_KEY", errorCode(t, rr))
}

func TestIdempotency_InProgressReservation(t *testing.T) {
	h, calls, store := setupIdempotency(t, http.StatusCreated)

	body := `{}`
	now := time.Now().UTC()
	reserved, err := store.Reserve(context.Background(), &idempotency.Entry{
		Key:         "k1",
		Scope:       "worker-1",
		RequestHash: computeHash(http.MethodPost, "/api/v1/funding-requests", []byte(body)),
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	})
	require.NoError(t, err)
	require.True(t, reserved)

	rr := postWithKey(h, "worker-1", "k1", body)

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "IDEMPOTENCY_IN_PROGRESS", errorCode(t, rr))
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	h, calls, store := setupIdempotency(t, http.StatusInternalServerError)

	postWithKey(h, "worker-1", "k1", `{}`)

	got, err := store.Get(context.Background(), "worker-1", "k1")
	require.NoError(t, err)
	assert.Nil(t, got)

	postWithKey(h, "worker-1", "k1", `{}`)
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_ClientErrorIsCached(t *testing.T) {
	h, calls, _ := setupIdempotency(t, http.StatusUnprocessableEntity)

	postWithKey(h, "worker-1", "k1", `{}`)
	rr := postWithKey(h, "worker-1", "k1", `{}`)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestIdempotency_BusyReleasesKeyForRetry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := idempotency.NewRedisStore(client)

	calls := &atomic.Int32{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			handler.RespondAppError(w, handler.ErrAccountBusy, nil)
			return
		}
		handler.RespondSuccess(w, http.StatusOK, map[string]string{"balance": "10.00"})
	})
	h := Idempotency(store, time.Hour)(next)

	first := postWithKey(h, "admin-1", "adj-1", `{"kind":"credit","amount":"10"}`)
	assert.Equal(t, http.StatusConflict, first.Code)
	assert.Equal(t, "ACCOUNT_BUSY", errorCode(t, first))
	assert.Equal(t, "1", first.Header().Get("Retry-After"))

	got, err := store.Get(context.Background(), "admin-1", "adj-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	retry := postWithKey(h, "admin-1", "adj-1", `{"kind":"credit","amount":"10"}`)
	assert.Equal(t, http.StatusOK, retry.Code)
	assert.Empty(t, retry.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, int32(2), calls.Load())

	replayed := postWithKey(h, "admin-1", "adj-1", `{"kind":"credit","amount":"10"}`)
	assert.Equal(t, http.StatusOK, replayed.Code)
	assert.Equal(t, "true", replayed.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_RejectsOversizedBody(t *testing.T) {
	h, calls, store := setupIdempotency(t, http.StatusCreated)

	rr := postWithKey(h, "worker-1", "k1", `{"note":"`+strings.Repeat("x", maxRequestBodyBytes)+`"}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, "REQUEST_TOO_LARGE", errorCode(t, rr))
	assert.Equal(t, int32(0), calls.Load())

	got, err := store.Get(context.Background(), "worker-1", "k1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdempotency_GetPassesThrough(t *testing.T) {
	h, calls, _ := setupIdempotency(t, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusOK, rr.Code)
}
