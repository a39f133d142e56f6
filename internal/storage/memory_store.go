package storage

import (
	"context"
	"sync"

	"github.com/account-explorer/internal/types"
)

// MemoryStore keeps snapshot histories in process memory. Used in local
// mode and in tests; the mutex makes the read-modify-write append atomic.
type MemoryStore struct {
	mu        sync.RWMutex
	histories map[string][]types.Snapshot
	cap       int
}

// NewMemoryStore creates an empty in-memory snapshot store
func NewMemoryStore(retentionCap int) *MemoryStore {
	if retentionCap <= 0 {
		retentionCap = DefaultRetentionCap
	}
	return &MemoryStore{
		histories: make(map[string][]types.Snapshot),
		cap:       retentionCap,
	}
}

// History returns a copy of the account's snapshots, newest first
func (s *MemoryStore) History(_ context.Context, accountID string) ([]types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.histories[snapshotKey(accountID)]
	if len(history) == 0 {
		return nil, nil
	}
	out := make([]types.Snapshot, len(history))
	copy(out, history)
	return out, nil
}

// Latest returns the most recent snapshot, or nil when none exists
func (s *MemoryStore) Latest(_ context.Context, accountID string) (*types.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.histories[snapshotKey(accountID)]
	if len(history) == 0 {
		return nil, nil
	}
	snap := history[0]
	return &snap, nil
}

// Append prepends a snapshot and trims the history to the retention cap
func (s *MemoryStore) Append(_ context.Context, accountID string, snapshot types.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := snapshotKey(accountID)
	history := append([]types.Snapshot{snapshot}, s.histories[key]...)
	if len(history) > s.cap {
		history = history[:s.cap]
	}
	s.histories[key] = history
	return nil
}

// Clear removes the account's entire history
func (s *MemoryStore) Clear(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, snapshotKey(accountID))
	return nil
}
