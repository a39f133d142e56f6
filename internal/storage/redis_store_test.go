package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/account-explorer/internal/types"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T, cap int) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreWithClient(client, cap), mr
}

func testSnapshot(account string, balance int64) types.Snapshot {
	return types.Snapshot{
		Account:    account,
		Balance:    decimal.NewFromInt(balance),
		TokenCount: 2,
		Metric:     decimal.NewFromInt(balance + 2),
		FetchedAt:  time.Now().UTC(),
	}
}

func TestRedisStore_AppendAndLatest(t *testing.T) {
	store, _ := setupRedisStore(t, 10)
	ctx := context.Background()

	latest, err := store.Latest(ctx, "0xABC")
	require.NoError(t, err)
	assert.Nil(t, latest, "empty history should have no latest snapshot")

	require.NoError(t, store.Append(ctx, "0xABC", testSnapshot("0xABC", 1)))
	require.NoError(t, store.Append(ctx, "0xABC", testSnapshot("0xABC", 2)))

	latest, err = store.Latest(ctx, "0xABC")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Balance.Equal(decimal.NewFromInt(2)), "latest should be the most recent append")
}

func TestRedisStore_HistoryNewestFirst(t *testing.T) {
	store, _ := setupRedisStore(t, 10)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, store.Append(ctx, "0xABC", testSnapshot("0xABC", i)))
	}

	history, err := store.History(ctx, "0xABC")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Balance.Equal(decimal.NewFromInt(3)))
	assert.True(t, history[2].Balance.Equal(decimal.NewFromInt(1)))
}

func TestRedisStore_AppendTrimsToCap(t *testing.T) {
	const cap = 5
	store, _ := setupRedisStore(t, cap)
	ctx := context.Background()

	for i := int64(1); i <= cap+7; i++ {
		require.NoError(t, store.Append(ctx, "0xABC", testSnapshot("0xABC", i)))
	}

	history, err := store.History(ctx, "0xABC")
	require.NoError(t, err)
	require.Len(t, history, cap, "history must never exceed the retention cap")

	// The cap most recent snapshots survive, newest first.
	for i := 0; i < cap; i++ {
		want := decimal.NewFromInt(int64(cap + 7 - i))
		assert.True(t, history[i].Balance.Equal(want), "history[%d] = %s, want %s", i, history[i].Balance, want)
	}
}

func TestRedisStore_ClearThenHistoryIsEmpty(t *testing.T) {
	store, _ := setupRedisStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "0xABC", testSnapshot("0xABC", 1)))
	require.NoError(t, store.Clear(ctx, "0xABC"))

	history, err := store.History(ctx, "0xABC")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRedisStore_ClearIsAccountScoped(t *testing.T) {
	store, _ := setupRedisStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "0xAAA", testSnapshot("0xAAA", 1)))
	require.NoError(t, store.Append(ctx, "0xBBB", testSnapshot("0xBBB", 2)))
	require.NoError(t, store.Clear(ctx, "0xAAA"))

	history, err := store.History(ctx, "0xBBB")
	require.NoError(t, err)
	assert.Len(t, history, 1, "clearing one account must not touch another")
}

func TestRedisStore_CorruptEntriesAreSkipped(t *testing.T) {
	store, mr := setupRedisStore(t, 10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "0xABC", testSnapshot("0xABC", 1)))
	// Inject garbage at the head of the list.
	_, err := mr.Lpush(snapshotKey("0xABC"), "{not json")
	require.NoError(t, err)

	history, err := store.History(ctx, "0xABC")
	require.NoError(t, err, "corruption must be swallowed, not surfaced")
	assert.Len(t, history, 1)

	latest, err := store.Latest(ctx, "0xABC")
	require.NoError(t, err)
	assert.Nil(t, latest, "a corrupt head entry reads as no previous snapshot")
}

func TestSnapshotKeyNamespacing(t *testing.T) {
	for _, account := range []string{"0xABC", "0xDEF", ""} {
		assert.Equal(t, fmt.Sprintf("snapshots:%s", account), snapshotKey(account))
	}
}
