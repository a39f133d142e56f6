package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_EmptyHistory(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	history, err := store.History(ctx, "0xABC")
	require.NoError(t, err)
	assert.Empty(t, history)

	latest, err := store.Latest(ctx, "0xABC")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestMemoryStore_AppendPrependsNewestFirst(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, store.Append(ctx, "0xABC", testSnapshot("0xABC", i)))
	}

	history, err := store.History(ctx, "0xABC")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Balance.Equal(decimal.NewFromInt(3)))

	latest, err := store.Latest(ctx, "0xABC")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Balance.Equal(decimal.NewFromInt(3)))
}

func TestMemoryStore_ClearThenHistoryIsEmpty(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "0xABC", testSnapshot("0xABC", 1)))
	require.NoError(t, store.Clear(ctx, "0xABC"))

	history, err := store.History(ctx, "0xABC")
	require.NoError(t, err)
	assert.Empty(t, history)

	// Clearing an account that was never written must be a no-op.
	require.NoError(t, store.Clear(ctx, "0xNEVER"))
}

func TestMemoryStore_HistoryReturnsCopy(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "0xABC", testSnapshot("0xABC", 1)))

	history, err := store.History(ctx, "0xABC")
	require.NoError(t, err)
	history[0].Account = "mutated"

	again, err := store.History(ctx, "0xABC")
	require.NoError(t, err)
	assert.Equal(t, "0xABC", again[0].Account, "callers must not be able to mutate stored history")
}
