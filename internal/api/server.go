// Package api provides the HTTP surface of the explorer backend: the
// scrape endpoint, the wallet upsert endpoint and snapshot history
// access.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/account-explorer/internal/config"
	"github.com/account-explorer/internal/logging"
	"github.com/account-explorer/internal/status"
	"github.com/account-explorer/internal/storage"
	"github.com/account-explorer/internal/types"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Scraper collects account details on demand
type Scraper interface {
	Scrape(ctx context.Context, accountID string) types.AccountDetails
}

// WalletStore is the backend persistence used by the upsert endpoint
type WalletStore interface {
	UpsertWallet(ctx context.Context, address string) error
	UpsertNativeBalance(ctx context.Context, address string, balance decimal.Decimal) error
	CountTokens(ctx context.Context, address string) (int64, error)
	InsertMetric(ctx context.Context, address string, metric decimal.Decimal, tokenCount int64) error
	InsertRawSnapshot(ctx context.Context, address string, details types.AccountDetails) error
}

// Watcher controls the polling lifecycle for the connected account
type Watcher interface {
	Start(accountID string)
	Stop()
}

// Server is the HTTP API server
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	scraper    Scraper
	snapshots  storage.SnapshotStore
	wallets    WalletStore
	watcher    Watcher
	board      *status.Board
	logger     *logging.Logger
}

// NewServer wires the API routes. The wallet store and watcher may be
// nil; their endpoints then respond 503.
func NewServer(cfg *config.ServerConfig, scraper Scraper, snapshots storage.SnapshotStore, wallets WalletStore, watcher Watcher, board *status.Board, logger *logging.Logger) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		scraper:   scraper,
		snapshots: snapshots,
		wallets:   wallets,
		watcher:   watcher,
		board:     board,
		logger:    logger.WithField("component", "api"),
	}

	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/scrape/{address}", s.handleScrape).Methods(http.MethodGet)
	s.router.HandleFunc("/api/upsert-wallet", s.handleUpsertWallet).Methods(http.MethodPost)
	s.router.HandleFunc("/api/snapshots/{address}", s.handleSnapshotHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/api/snapshots/{address}", s.handleSnapshotClear).Methods(http.MethodDelete)
	s.router.HandleFunc("/api/status/{address}", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/watch/{address}", s.handleWatch).Methods(http.MethodPost)
	s.router.HandleFunc("/api/watch/{address}", s.handleUnwatch).Methods(http.MethodDelete)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Router exposes the mux router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Infof("API listening on http://%s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
