package main

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/josh-kwaku/gig-wallet/internal/config"
	"github.com/josh-kwaku/gig-wallet/internal/handler"
	"github.com/josh-kwaku/gig-wallet/internal/idempotency"
	"github.com/josh-kwaku/gig-wallet/internal/middleware"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
	"github.com/josh-kwaku/gig-wallet/internal/service"
)

type idempotencyStore interface {
	Get(ctx context.Context, scope, key string) (*idempotency.Entry, error)
	Reserve(ctx context.Context, entry *idempotency.Entry) (bool, error)
	Set(ctx context.Context, entry *idempotency.Entry) error
	Release(ctx context.Context, scope, key string) error
}

type routerDeps struct {
	cfg         *config.Config
	backend     ports.Backend
	ledger      *service.LedgerService
	funding     *service.FundingService
	idempotency idempotencyStore
}

func newRouter(d routerDeps) http.Handler {
	health := handler.NewHealthHandler(d.backend, d.cfg.StorageBackend)
	accounts := handler.NewAccountHandler(d.ledger)
	funding := handler.NewFundingHandler(d.funding)

	authed := middleware.Auth(d.cfg.JWTSecret)
	idem := middleware.Idempotency(d.idempotency, d.cfg.IdempotencyTTL)

	user := func(h http.HandlerFunc) http.Handler {
		return authed(h)
	}
	userWrite := func(h http.HandlerFunc) http.Handler {
		return authed(idem(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireAdmin(h))
	}
	adminWrite := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireAdmin(idem(h)))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs())
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec())

	mux.Handle("GET /api/v1/balance", user(accounts.OwnBalance))
	mux.Handle("POST /api/v1/funding-requests", userWrite(funding.Create))
	mux.Handle("GET /api/v1/funding-requests", user(funding.ListOwn))
	mux.Handle("GET /api/v1/funding-requests/{id}", user(funding.Get))

	mux.Handle("GET /api/v1/admin/funding-requests/pending", admin(funding.ListPending))
	mux.Handle("POST /api/v1/admin/funding-requests/{id}/approve", adminWrite(funding.Approve))
	mux.Handle("POST /api/v1/admin/funding-requests/{id}/reject", adminWrite(funding.Reject))
	mux.Handle("GET /api/v1/admin/accounts/{id}/balance", admin(accounts.Balance))
	mux.Handle("POST /api/v1/admin/accounts/{id}/adjustments", adminWrite(accounts.Adjust))
	mux.Handle("GET /api/v1/admin/accounts/{id}/ledger", admin(accounts.Ledger))

	var h http.Handler = mux
	h = middleware.Recovery(h)
	h = middleware.Logging(h)
	h = middleware.Tracing(h)
	return otelhttp.NewHandler(h, d.cfg.ServiceName)
}
