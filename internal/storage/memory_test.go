package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/progress-engine/internal/models"
)

const alice = "0x1111111111111111111111111111111111111111"

func TestMemoryStore_SaveCompletionCAS(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := models.NewCompletionRecord(alice, "web3-basics")
	rec.AddSection("intro", "what-is-a-blockchain")
	require.NoError(t, store.SaveCompletion(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	// a second writer that also started from "no record" loses
	stale := models.NewCompletionRecord(alice, "web3-basics")
	assert.ErrorIs(t, store.SaveCompletion(ctx, stale), models.ErrVersionConflict)

	got, err := store.GetCompletion(ctx, alice, "web3-basics")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"what-is-a-blockchain"}, got.Chapters["intro"])

	got.AddSection("intro", "blocks")
	require.NoError(t, store.SaveCompletion(ctx, got))
	assert.Equal(t, int64(2), got.Version)

	// mutating the returned copy does not touch the store
	got.AddSection("intro", "hashes")
	again, _ := store.GetCompletion(ctx, alice, "web3-basics")
	assert.Len(t, again.Chapters["intro"], 2)
}

func TestMemoryStore_GetCompletionMissing(t *testing.T) {
	store := NewMemoryStore()
	rec, err := store.GetCompletion(context.Background(), alice, "defi")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_Claims(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	claim := &models.CertificationClaim{ID: "c1", UserAddress: alice, ModuleID: "solidity", Level: 2, Claimed: true}
	inserted, err := store.InsertClaim(ctx, claim)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.InsertClaim(ctx, &models.CertificationClaim{ID: "c2", UserAddress: alice, ModuleID: "solidity"})
	require.NoError(t, err)
	assert.False(t, inserted)

	found, err := store.FindClaim(ctx, alice, "solidity")
	require.NoError(t, err)
	assert.Equal(t, "c1", found.ID)
}

func TestMemoryStore_Ledger(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	ok, err := store.AppendLedgerClaim(ctx, &models.CertificationClaim{ID: "a", UserAddress: alice, ModuleID: "defi"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.AppendLedgerClaim(ctx, &models.CertificationClaim{ID: "b", UserAddress: alice, ModuleID: "advocate"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.AppendLedgerClaim(ctx, &models.CertificationClaim{ID: "c", UserAddress: alice, ModuleID: "defi"})
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := store.ListLedgerClaims(ctx, alice)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "defi", all[0].ModuleID)
	assert.Equal(t, "advocate", all[1].ModuleID)

	found, err := store.FindLedgerClaim(ctx, alice, "advocate")
	require.NoError(t, err)
	assert.Equal(t, "b", found.ID)
}

func TestMemoryStore_Submissions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"s2", "s1", "s3"} {
		require.NoError(t, store.CreateSubmission(ctx, &models.ChallengeSubmission{
			ID:           id,
			UserAddress:  alice,
			ChallengeID:  "connect-wallet",
			ReviewAction: models.ReviewPending,
			SubmittedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}

	accepted, err := store.QueryAccepted(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, accepted)

	reviewed, err := store.ReviewSubmission(ctx, "s1", models.ReviewAccepted, "ops")
	require.NoError(t, err)
	require.NotNil(t, reviewed)
	assert.Equal(t, "ops", reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.ReviewedAt)

	_, err = store.ReviewSubmission(ctx, "s1", models.ReviewRejected, "ops")
	assert.ErrorIs(t, err, models.ErrAlreadyReviewed)

	missing, err := store.ReviewSubmission(ctx, "nope", models.ReviewAccepted, "ops")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = store.ReviewSubmission(ctx, "s2", models.ReviewAccepted, "ops")
	require.NoError(t, err)

	accepted, err = store.QueryAccepted(ctx, alice, "connect-wallet")
	require.NoError(t, err)
	require.Len(t, accepted, 2)
	assert.Equal(t, "s2", accepted[0].ID)
	assert.Equal(t, "s1", accepted[1].ID)

	accepted, err = store.QueryAccepted(ctx, alice, "deploy-contract")
	require.NoError(t, err)
	assert.Empty(t, accepted)
}
