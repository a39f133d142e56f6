package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/account-explorer/internal/config"
	apperrors "github.com/account-explorer/internal/errors"
	"github.com/account-explorer/internal/types"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each account's snapshot history in a Redis list.
// LPUSH plus LTRIM gives an atomic prepend-and-trim, so concurrent
// appends cannot corrupt the history or grow it past the cap.
type RedisStore struct {
	client *redis.Client
	cap    int
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg *config.RedisConfig, retentionCap int) (*RedisStore, error) {
	if retentionCap <= 0 {
		retentionCap = DefaultRetentionCap
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.MaxConnections,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, cap: retentionCap}, nil
}

// NewRedisStoreWithClient wraps an existing client, mainly for tests
func NewRedisStoreWithClient(client *redis.Client, retentionCap int) *RedisStore {
	if retentionCap <= 0 {
		retentionCap = DefaultRetentionCap
	}
	return &RedisStore{client: client, cap: retentionCap}
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// History returns the account's snapshots, newest first. Entries that no
// longer unmarshal are skipped rather than surfaced.
func (s *RedisStore) History(ctx context.Context, accountID string) ([]types.Snapshot, error) {
	raw, err := s.client.LRange(ctx, snapshotKey(accountID), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("history read", err)
	}

	snapshots := make([]types.Snapshot, 0, len(raw))
	for _, item := range raw {
		var snap types.Snapshot
		if err := json.Unmarshal([]byte(item), &snap); err != nil {
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// Latest returns the most recent snapshot, or nil when none exists
func (s *RedisStore) Latest(ctx context.Context, accountID string) (*types.Snapshot, error) {
	item, err := s.client.LIndex(ctx, snapshotKey(accountID), 0).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("latest read", err)
	}

	var snap types.Snapshot
	if err := json.Unmarshal([]byte(item), &snap); err != nil {
		// Corrupt head entry reads as no previous snapshot.
		return nil, nil
	}
	return &snap, nil
}

// Append prepends a snapshot and trims the history to the retention cap
func (s *RedisStore) Append(ctx context.Context, accountID string, snapshot types.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return apperrors.NewStorageError("snapshot serialization", err)
	}

	key := snapshotKey(accountID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, int64(s.cap-1))
		return nil
	})
	if err != nil {
		return apperrors.NewStorageError("snapshot append", err)
	}
	return nil
}

// Clear removes the account's entire history
func (s *RedisStore) Clear(ctx context.Context, accountID string) error {
	if err := s.client.Del(ctx, snapshotKey(accountID)).Err(); err != nil {
		return apperrors.NewStorageError("history clear", err)
	}
	return nil
}
