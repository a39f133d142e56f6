// Package main provides the explorer daemon: the polling scheduler plus
// the scrape/upsert API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/account-explorer/internal/api"
	"github.com/account-explorer/internal/backend"
	"github.com/account-explorer/internal/config"
	"github.com/account-explorer/internal/fetcher"
	"github.com/account-explorer/internal/logging"
	"github.com/account-explorer/internal/pipeline"
	"github.com/account-explorer/internal/scheduler"
	"github.com/account-explorer/internal/scraper"
	"github.com/account-explorer/internal/status"
	"github.com/account-explorer/internal/storage"
	"github.com/account-explorer/internal/types"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Global().Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logging.SetGlobal(logger)
	logger.WithFields(map[string]interface{}{
		"source":   cfg.Explorer.Source,
		"interval": cfg.Poll.Interval.String(),
		"store":    cfg.Store.Backend,
	}).Info("account explorer starting")

	snapshots, cleanup, err := buildSnapshotStore(cfg, logger)
	if err != nil {
		logger.Errorf("failed to initialize snapshot store: %v", err)
		os.Exit(1)
	}
	defer cleanup()

	var wallets api.WalletStore
	if cfg.Backend.MongoURI != "" {
		store, err := storage.NewWalletStore(&cfg.Backend)
		if err != nil {
			logger.Errorf("failed to connect to wallet store: %v", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = store.Close(ctx)
		}()
		wallets = store
		logger.Info("wallet store connected")
	}

	board := status.NewBoard()
	balances := fetcher.NewBalanceFetcher(&cfg.Flow)
	accountScraper := scraper.NewAccountScraper(&cfg.Explorer, logger)

	var upserter pipeline.Upserter
	if cfg.Backend.UpsertEnabled && cfg.Backend.UpsertURL != "" {
		upserter = backend.NewClient(cfg.Backend.UpsertURL, logger)
		logger.WithField("url", cfg.Backend.UpsertURL).Info("backend upsert enabled")
	}

	pipe := pipeline.New(balances, accountScraper, snapshots, board, upserter, logger)

	// One scheduler per preconfigured account, plus one the API controls
	// for interactive connect/disconnect.
	watchers := make([]*scheduler.PollingScheduler, 0, len(cfg.Poll.Accounts))
	for _, account := range cfg.Poll.Accounts {
		w := scheduler.New(pipe, cfg.Poll.Interval, logger)
		w.Start(account)
		watchers = append(watchers, w)
	}
	interactive := scheduler.New(pipe, cfg.Poll.Interval, logger)

	server := api.NewServer(&cfg.Server, accountScraper, snapshots, wallets, interactive, board, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			logger.Errorf("server failed: %v", err)
		}
	}

	for _, w := range watchers {
		w.Stop()
	}
	interactive.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("server shutdown: %v", err)
	}
	logger.Info("account explorer stopped")
}

func buildSnapshotStore(cfg *config.Config, logger *logging.Logger) (storage.SnapshotStore, func(), error) {
	if cfg.Store.Backend == types.StoreMemory {
		logger.Info("using in-memory snapshot store")
		return storage.NewMemoryStore(cfg.Store.RetentionCap), func() {}, nil
	}
	store, err := storage.NewRedisStore(&cfg.Store.Redis, cfg.Store.RetentionCap)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("redis snapshot store connected")
	return store, func() { _ = store.Close() }, nil
}
