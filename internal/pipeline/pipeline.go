// Package pipeline orchestrates one extraction cycle: fetch the native
// balance, scrape account details, derive the wallet metric, dedupe
// against the last stored snapshot and persist when something changed.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/account-explorer/internal/logging"
	"github.com/account-explorer/internal/status"
	"github.com/account-explorer/internal/storage"
	"github.com/account-explorer/internal/types"
	"github.com/shopspring/decimal"
)

// BalanceFetcher supplies the account's native balance
type BalanceFetcher interface {
	Fetch(ctx context.Context, accountID string) (types.BalanceReading, error)
}

// Scraper supplies the account's explorer details. It never fails; a
// degraded or empty bag is a valid result.
type Scraper interface {
	Scrape(ctx context.Context, accountID string) types.AccountDetails
}

// Upserter posts results to the backend persistence collaborator
type Upserter interface {
	Upsert(ctx context.Context, accountID string, balance decimal.Decimal, tokenCount int) error
}

// Pipeline runs extraction cycles. All outcomes are observed through
// logs, the status board and snapshot store side effects; Run returns
// nothing and never propagates a failure to its caller.
type Pipeline struct {
	fetcher  BalanceFetcher
	scraper  Scraper
	store    storage.SnapshotStore
	board    *status.Board
	upserter Upserter
	logger   *logging.Logger
}

// New creates a pipeline. The upserter is optional; pass nil to persist
// locally only.
func New(fetcher BalanceFetcher, scraper Scraper, store storage.SnapshotStore, board *status.Board, upserter Upserter, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		scraper:  scraper,
		store:    store,
		board:    board,
		upserter: upserter,
		logger:   logger.WithField("component", "pipeline"),
	}
}

// Run executes one extraction cycle for the account. A balance failure
// degrades to zero, a scrape cannot fail, and any panic is logged and
// swallowed so the polling loop survives.
func (p *Pipeline) Run(ctx context.Context, accountID string) {
	log := p.logger.WithField("account", accountID)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("extraction cycle panicked: %v", r)
		}
	}()

	p.board.Logf("Starting extraction for %s", accountID)

	balance := decimal.Zero
	reading, err := p.fetcher.Fetch(ctx, accountID)
	if err != nil {
		log.Warnf("balance fetch failed, treating balance as 0: %v", err)
		p.board.Logf("Failed to fetch balance for %s: %v", accountID, err)
	} else {
		balance = reading.Amount
		p.board.Logf("Fetched balance %s FLOW for %s", balance, accountID)
	}

	details := p.scraper.Scrape(ctx, accountID)

	tokenCount := deriveTokenCount(details)
	metric := balance.Add(decimal.NewFromInt(int64(tokenCount)))

	if p.shouldPersist(ctx, accountID, details, balance, log) {
		snapshot := types.Snapshot{
			Account:    accountID,
			Balance:    balance,
			TokenCount: tokenCount,
			Metric:     metric,
			Details:    details,
			FetchedAt:  time.Now().UTC(),
		}
		if err := p.store.Append(ctx, accountID, snapshot); err != nil {
			log.Warnf("snapshot append failed: %v", err)
			p.board.Logf("Failed to save snapshot for %s: %v", accountID, err)
		} else {
			p.board.Logf("Saved snapshot for %s (tokens=%d, metric=%s)", accountID, tokenCount, metric)
		}
	}

	// The displayed state is refreshed even when persistence was skipped.
	p.board.SetState(accountID, balance, metric)

	if p.upserter != nil {
		if err := p.upserter.Upsert(ctx, accountID, balance, tokenCount); err != nil {
			log.Warnf("backend upsert failed: %v", err)
		}
	}
}

// shouldPersist compares the cycle's fingerprint against the most recent
// stored snapshot. Equal fingerprints bound storage growth under
// unchanged on-chain state.
func (p *Pipeline) shouldPersist(ctx context.Context, accountID string, details types.AccountDetails, balance decimal.Decimal, log *logging.Logger) bool {
	latest, err := p.store.Latest(ctx, accountID)
	if err != nil {
		// A failing read must not block persistence of fresh data.
		log.Warnf("latest snapshot read failed: %v", err)
		return true
	}
	if latest == nil {
		return true
	}
	if latest.Fingerprint() == types.Fingerprint(details, balance) {
		log.Info("no changes detected, skipping snapshot")
		p.board.Logf("No changes detected for %s", accountID)
		return false
	}
	return true
}

// deriveTokenCount applies the first-matching rule: tokens, then nfts,
// then transactions, then the scraped contract count, then zero.
func deriveTokenCount(details types.AccountDetails) int {
	if n, ok := types.SectionLen(details.Tokens); ok {
		return n
	}
	if n, ok := types.SectionLen(details.NFTs); ok {
		return n
	}
	if n, ok := types.SectionLen(details.Transactions); ok {
		return n
	}
	if n, ok := contractCount(details.Account); ok {
		return n
	}
	return 0
}

// contractCount reads the contract count out of the scraped account
// section, tolerating both array and object shapes.
func contractCount(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var acct struct {
		Contracts json.RawMessage `json:"contracts"`
	}
	if err := json.Unmarshal(raw, &acct); err != nil || len(acct.Contracts) == 0 {
		return 0, false
	}
	if n, ok := types.SectionLen(acct.Contracts); ok {
		return n, true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(acct.Contracts, &obj); err != nil {
		return 0, false
	}
	return len(obj), true
}
