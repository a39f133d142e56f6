// Package types provides common type definitions for the account explorer system.
package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ScrapeSource selects how account details are obtained
type ScrapeSource string

const (
	// SourceAPI fetches the explorer JSON API plus the static HTML page
	SourceAPI ScrapeSource = "api"
	// SourceHeadless renders the explorer page in a headless browser
	SourceHeadless ScrapeSource = "headless"
	// SourceService delegates to a local scraping service
	SourceService ScrapeSource = "service"
)

// StoreBackend selects the snapshot store implementation
type StoreBackend string

const (
	// StoreRedis keeps snapshot history in Redis lists
	StoreRedis StoreBackend = "redis"
	// StoreMemory keeps snapshot history in process memory
	StoreMemory StoreBackend = "memory"
)

// BalanceReading is one native balance observation, scaled to display units
type BalanceReading struct {
	Amount    decimal.Decimal `json:"amount"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// TableRow is one parsed explorer table row
type TableRow struct {
	Cells []string `json:"cells"`
	Links []string `json:"links,omitempty"`
}

// TabResult holds the parsed rows of one account page tab, or the error
// that prevented parsing it. Exactly one of the two is meaningful.
type TabResult struct {
	Rows  []TableRow `json:"rows,omitempty"`
	Error string     `json:"error,omitempty"`
}

// PageData is what the rendered account page yielded. Summary values are
// nil when the extraction heuristic found no match, never an error.
type PageData struct {
	TxLinks []string             `json:"txLinks,omitempty"`
	Summary map[string]*string   `json:"summary,omitempty"`
	Tabs    map[string]TabResult `json:"tabs,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// AccountDetails is the semi-structured bag produced by one scrape. Any
// section may be absent when its source failed; absence marks degraded
// data, not an error. Raw JSON sections are kept verbatim so that two
// byte-identical upstream responses fingerprint identically.
type AccountDetails struct {
	Account      json.RawMessage   `json:"account,omitempty"`
	Transactions json.RawMessage   `json:"transactions,omitempty"`
	Tokens       json.RawMessage   `json:"tokens,omitempty"`
	NFTs         json.RawMessage   `json:"nfts,omitempty"`
	Events       json.RawMessage   `json:"events,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
	Page         *PageData         `json:"page,omitempty"`
}

// SectionLen reports the element count of a raw JSON section if it is
// sequence-typed, and false otherwise.
func SectionLen(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var seq []json.RawMessage
	if err := json.Unmarshal(raw, &seq); err != nil {
		return 0, false
	}
	return len(seq), true
}

// Snapshot is one immutable capture of an account's derived state.
// Field names match the persisted document shape.
type Snapshot struct {
	Account    string          `json:"wallet"`
	Balance    decimal.Decimal `json:"balance"`
	TokenCount int             `json:"tokenCount"`
	Metric     decimal.Decimal `json:"metricValue"`
	Details    AccountDetails  `json:"details"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// Fingerprint derives the change-detection key for a details/balance
// pair: the JSON serialization of the details bag concatenated with the
// stringified balance. Fetch timestamps are deliberately excluded so
// unchanged upstream data always dedupes.
func Fingerprint(details AccountDetails, balance decimal.Decimal) string {
	b, err := json.Marshal(details)
	if err != nil {
		b = []byte("{}")
	}
	return string(b) + "|" + balance.String()
}

// Fingerprint returns the snapshot's change-detection key.
func (s *Snapshot) Fingerprint() string {
	return Fingerprint(s.Details, s.Balance)
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
