package leaderboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/storage"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
	carol = "0x3333333333333333333333333333333333333333"
)

func TestMemoryBoard_Ranking(t *testing.T) {
	ctx := context.Background()
	board := NewMemoryBoard()

	require.NoError(t, board.SetScore(ctx, "solidity", alice, 10))
	require.NoError(t, board.SetScore(ctx, "solidity", bob, 30))
	require.NoError(t, board.SetScore(ctx, "solidity", carol, 10))
	require.NoError(t, board.SetScore(ctx, "defi", alice, 60))

	top, err := board.Top(ctx, "solidity", 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, Entry{Rank: 1, UserAddress: bob, Points: 30}, top[0])
	// equal scores: higher address first, as in Redis
	assert.Equal(t, carol, top[1].UserAddress)
	assert.Equal(t, alice, top[2].UserAddress)

	top, err = board.Top(ctx, "solidity", 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)

	rank, err := board.Rank(ctx, "solidity", alice)
	require.NoError(t, err)
	require.NotNil(t, rank)
	assert.Equal(t, int64(3), rank.Rank)

	rank, err = board.Rank(ctx, "advocate", alice)
	require.NoError(t, err)
	assert.Nil(t, rank)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 25, ClampLimit(25))
	assert.Equal(t, MaxLimit, ClampLimit(MaxLimit+1))
}

func TestRebuilder_RebuildAll(t *testing.T) {
	ctx := context.Background()
	reg, err := curriculum.LoadDefault()
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	board := NewMemoryBoard()

	// stale entry that no longer matches any record
	require.NoError(t, board.SetScore(ctx, "solidity", carol, 999))

	rec := models.NewCompletionRecord(alice, "solidity")
	rec.SetChapter("solidity-fundamentals", []string{"types-and-variables", "functions", "visibility"})
	rec.SetChapter("gas-optimization", []string{"storage-layout", "calldata-vs-memory"})
	require.NoError(t, store.SaveCompletion(ctx, rec))

	rec = models.NewCompletionRecord(bob, "solidity")
	rec.SetChapter("contract-patterns", []string{"ownable"})
	require.NoError(t, store.SaveCompletion(ctx, rec))

	// non-scoring modules are skipped
	rec = models.NewCompletionRecord(alice, "web3-basics")
	rec.SetChapter("wallets-and-keys", []string{"key-pairs", "seed-phrases", "connecting-a-wallet"})
	require.NoError(t, store.SaveCompletion(ctx, rec))

	NewRebuilder(reg, store, board, 0).RebuildAll(ctx)

	top, err := board.Top(ctx, "solidity", 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, Entry{Rank: 1, UserAddress: alice, Points: 40}, top[0])
	assert.Equal(t, Entry{Rank: 2, UserAddress: bob, Points: 0}, top[1])

	top, err = board.Top(ctx, "web3-basics", 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
