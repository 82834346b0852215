package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/gig-wallet/internal/auth"
	"github.com/josh-kwaku/gig-wallet/internal/handler"
	"github.com/josh-kwaku/gig-wallet/internal/idempotency"
	"github.com/josh-kwaku/gig-wallet/internal/logging"
)

const idempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 255

const maxRequestBodyBytes = 1 << 20

type idempotencyStore interface {
	Get(ctx context.Context, scope, key string) (*idempotency.Entry, error)
	Reserve(ctx context.Context, entry *idempotency.Entry) (bool, error)
	Set(ctx context.Context, entry *idempotency.Entry) error
	Release(ctx context.Context, scope, key string) error
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Keys are scoped to the caller's account. The key is reserved before the
// handler runs so a concurrent retry gets 409 instead of a second execution.
// Server errors and responses carrying Retry-After release the reservation
// so the client may retry with the same key.
func Idempotency(store idempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			log := logging.FromContext(r.Context())

			key := r.Header.Get(idempotencyKeyHeader)
			if key == "" || len(key) > maxIdempotencyKeyLen {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}

			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}
			scope := p.AccountID

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					handler.RespondAppError(w, handler.ErrRequestTooLarge, nil)
					return
				}
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)

			cached, err := store.Get(r.Context(), scope, key)
			if err != nil {
				log.Error("idempotency cache lookup failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if cached != nil {
				replay(w, r, cached, reqHash)
				return
			}

			now := time.Now().UTC()
			entry := &idempotency.Entry{
				Key:         key,
				Scope:       scope,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(ttl),
			}

			reserved, err := store.Reserve(r.Context(), entry)
			if err != nil {
				log.Error("idempotency reservation failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if !reserved {
				handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
				return
			}

			// Storage calls after the handler must not depend on the client
			// still being connected.
			storeCtx := context.WithoutCancel(r.Context())

			completed := false
			defer func() {
				if !completed {
					if err := store.Release(storeCtx, scope, key); err != nil {
						log.Error("idempotency release failed", "error", err, "idempotency_key", key)
					}
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError || rec.Header().Get("Retry-After") != "" {
				return
			}

			// The request took effect; from here on the reservation is only
			// dropped by expiry.
			completed = true
			entry.StatusCode = rec.statusCode
			entry.ResponseBody = rec.body.Bytes()
			if err := store.Set(storeCtx, entry); err != nil {
				log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, cached *idempotency.Entry, reqHash string) {
	if cached.RequestHash != reqHash {
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
		return
	}
	if cached.InProgress() {
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	if _, err := w.Write(cached.ResponseBody); err != nil {
		logging.FromContext(r.Context()).Error("failed to write idempotent replay", "error", err, "idempotency_key", cached.Key)
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
