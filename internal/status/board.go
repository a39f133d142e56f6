// Package status holds the in-memory view the dashboard reads: the
// latest balance and metric per account plus a rolling log of
// human-readable status lines. Board freshness is independent of whether
// a cycle persisted a snapshot.
package status

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// logCap bounds the rolling status log
const logCap = 50

// AccountState is the latest displayed state for one account
type AccountState struct {
	Balance   decimal.Decimal `json:"balance"`
	Metric    decimal.Decimal `json:"metricValue"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Board is a concurrency-safe status board
type Board struct {
	mu     sync.RWMutex
	lines  []string
	states map[string]AccountState
}

// NewBoard creates an empty status board
func NewBoard() *Board {
	return &Board{states: make(map[string]AccountState)}
}

// Logf prepends a timestamped status line, trimming the log to its cap
func (b *Board) Logf(format string, args ...interface{}) {
	line := fmt.Sprintf("%s - %s", time.Now().UTC().Format(time.RFC3339), fmt.Sprintf(format, args...))
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append([]string{line}, b.lines...)
	if len(b.lines) > logCap {
		b.lines = b.lines[:logCap]
	}
}

// Lines returns a copy of the status log, newest first
func (b *Board) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// SetState records the latest balance and metric for an account
func (b *Board) SetState(accountID string, balance, metric decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states[accountID] = AccountState{
		Balance:   balance,
		Metric:    metric,
		UpdatedAt: time.Now().UTC(),
	}
}

// State returns the latest displayed state for an account
func (b *Board) State(accountID string) (AccountState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	state, ok := b.states[accountID]
	return state, ok
}

// Forget drops the displayed state for an account, used on disconnect
func (b *Board) Forget(accountID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, accountID)
}
