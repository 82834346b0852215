package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/gig-wallet/internal/config"
	"github.com/josh-kwaku/gig-wallet/internal/events"
	"github.com/josh-kwaku/gig-wallet/internal/idempotency"
	"github.com/josh-kwaku/gig-wallet/internal/logging"
	"github.com/josh-kwaku/gig-wallet/internal/ports"
	"github.com/josh-kwaku/gig-wallet/internal/repository"
	"github.com/josh-kwaku/gig-wallet/internal/repository/memory"
	"github.com/josh-kwaku/gig-wallet/internal/service"
)

const idempotencySweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init(cfg.ServiceName, cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	backend, idem, sweeper, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	publisher, err := events.New(cfg.EventBus, cfg.NATSURL, cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("event publisher close failed", "error", err)
		}
	}()

	ledger := service.NewLedgerService(backend, publisher)
	funding := service.NewFundingService(backend, ledger, publisher)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: newRouter(routerDeps{
			cfg:         cfg,
			backend:     backend,
			ledger:      ledger,
			funding:     funding,
			idempotency: idem,
		}),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started", "addr", addr, "storage_backend", cfg.StorageBackend, "event_bus", cfg.EventBus)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	if sweeper != nil {
		g.Go(func() error {
			sweepIdempotency(gctx, sweeper)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

type expirySweeper interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// openStores selects the balance/request backend and the idempotency store.
// Idempotency keys live in Redis when REDIS_URL is set. Without it the
// Postgres backend keeps them in its own table and the memory backend starts
// an embedded miniredis so local runs need no external services.
func openStores(ctx context.Context, cfg *config.Config) (ports.Backend, idempotencyStore, expirySweeper, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		client, err := idempotency.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("openStores: %w", err)
		}
		redisClient = client
		closers = append(closers, func() { client.Close() })
	}

	switch cfg.StorageBackend {
	case config.BackendMemory:
		if redisClient == nil {
			mr, err := miniredis.Run()
			if err != nil {
				closeAll()
				return nil, nil, nil, nil, fmt.Errorf("openStores: embedded redis: %w", err)
			}
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			redisClient = client
			closers = append(closers, mr.Close, func() { client.Close() })
		}
		slog.Warn("using in-memory storage; balances are lost on restart")
		return memory.New(cfg.LockWaitTimeout), idempotency.NewRedisStore(redisClient), nil, closeAll, nil

	default:
		db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
			MaxOpenConns:     cfg.DBMaxOpenConns,
			MaxIdleConns:     cfg.DBMaxIdleConns,
			ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
			ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		}, cfg.DBConnectAttempts)
		if err != nil {
			closeAll()
			return nil, nil, nil, nil, fmt.Errorf("openStores: %w", err)
		}
		closers = append(closers, func() { db.Close() })

		if err := repository.Migrate(ctx, db, "up"); err != nil {
			closeAll()
			return nil, nil, nil, nil, fmt.Errorf("openStores: %w", err)
		}

		backend := repository.NewDB(db, cfg.LockWaitTimeout)
		if redisClient != nil {
			return backend, idempotency.NewRedisStore(redisClient), nil, closeAll, nil
		}
		repo := repository.NewIdempotencyRepository(db)
		return backend, repo, repo, closeAll, nil
	}
}

func sweepIdempotency(ctx context.Context, s expirySweeper) {
	ticker := time.NewTicker(idempotencySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CleanExpired(ctx)
			if err != nil {
				slog.Warn("idempotency sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("idempotency sweep", "deleted", n)
			}
		}
	}
}
