// Package storage persists bounded, per-account snapshot histories and
// the backend wallet documents.
package storage

import (
	"context"

	"github.com/account-explorer/internal/types"
)

// DefaultRetentionCap bounds each account's snapshot history
const DefaultRetentionCap = 500

// SnapshotStore keeps an ordered, bounded snapshot history per account,
// newest first. Implementations may back it with Redis or process memory.
type SnapshotStore interface {
	// History returns the stored snapshots, newest first. A missing or
	// corrupt history reads as empty; corruption is never surfaced.
	History(ctx context.Context, accountID string) ([]types.Snapshot, error)
	// Latest returns the most recent snapshot, or nil when none exists
	Latest(ctx context.Context, accountID string) (*types.Snapshot, error)
	// Append prepends a snapshot and trims the history to the cap
	Append(ctx context.Context, accountID string, snapshot types.Snapshot) error
	// Clear removes the account's entire history
	Clear(ctx context.Context, accountID string) error
}

// snapshotKey derives the storage key for an account. The namespace
// prefix keeps account histories from colliding with other keys.
func snapshotKey(accountID string) string {
	return "snapshots:" + accountID
}
