package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/josh-kwaku/gig-wallet/internal/config"
	"github.com/josh-kwaku/gig-wallet/internal/logging"
	"github.com/josh-kwaku/gig-wallet/internal/repository"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate <up|down|status|redo|version|reset> [args]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "up"
	var args []string
	if flag.NArg() > 0 {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Init(cfg.ServiceName+"-migrate", cfg.LogLevel, cfg.AppEnv)

	if cfg.StorageBackend != config.BackendPostgres {
		slog.Error("migrations only apply to the postgres backend", "storage_backend", cfg.StorageBackend)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     2,
		MaxIdleConns:     1,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}, cfg.DBConnectAttempts)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(ctx, db, command, args...); err != nil {
		slog.Error("migration failed", "command", command, "error", err)
		db.Close()
		os.Exit(1)
	}
	slog.Info("migration finished", "command", command)
}
