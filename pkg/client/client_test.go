package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/progress-engine/internal/api"
	"github.com/terra-clan/progress-engine/internal/certification"
	"github.com/terra-clan/progress-engine/internal/config"
	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/events"
	"github.com/terra-clan/progress-engine/internal/leaderboard"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/progress"
	"github.com/terra-clan/progress-engine/internal/storage"
)

const (
	alice    = "0x1111111111111111111111111111111111111111"
	adminKey = "sk_client_test_admin"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	reg, err := curriculum.LoadDefault()
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	store.AddClient(&models.ApiClient{ID: 1, Name: "sdk-test", ApiKey: adminKey, IsActive: true, Permissions: []string{"*"}})
	board := leaderboard.NewMemoryBoard()
	hub := events.NewHub()

	srv := api.NewServer(config.ServerConfig{}, api.Dependencies{
		Registry:      reg,
		Progress:      progress.NewService(reg, store, progress.Options{Board: board, Events: hub}),
		Certification: certification.NewService(reg, store, store, hub, nil),
		Board:         board,
		Events:        hub,
		Clients:       store,
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_CurriculumAndProgress(t *testing.T) {
	ctx := context.Background()
	c := NewClient(newTestServer(t).URL)

	require.NoError(t, c.Health(ctx))

	modules, err := c.ListModules(ctx)
	require.NoError(t, err)
	require.Len(t, modules, 4)
	assert.Equal(t, ScoringByLevel, modules[1].Scoring)
	assert.Equal(t, ClaimLedger, modules[2].ClaimMode)

	mod, err := c.GetModule(ctx, "defi")
	require.NoError(t, err)
	assert.Len(t, mod.Chapters, 3)

	tiers, err := c.ListTiers(ctx)
	require.NoError(t, err)
	assert.Len(t, tiers, 4)

	res, err := c.CompleteSection(ctx, CompleteSectionRequest{
		UserAddress:     alice,
		ModuleID:        "defi",
		ChapterID:       "lending",
		SectionID:       "collateral",
		FinalizeChapter: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Record.Points)

	got, err := c.GetProgress(ctx, alice, "defi")
	require.NoError(t, err)
	assert.Equal(t, []string{"lending"}, got.Progress.CompletedChapters)

	board, err := c.GetLeaderboard(ctx, "defi", 5, alice)
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	require.NotNil(t, board.Me)
	assert.Equal(t, 30, board.Me.Points)
}

func TestClient_CertificationFlow(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)
	learner := NewClient(ts.URL)
	admin := NewClient(ts.URL, WithAPIKey(adminKey))

	for _, challenge := range []string{"connect-wallet", "read-balance"} {
		sub, err := learner.SubmitChallenge(ctx, SubmitChallengeRequest{UserAddress: alice, ChallengeID: challenge})
		require.NoError(t, err)

		// learners cannot review their own work
		_, err = learner.ReviewSubmission(ctx, sub.ID, ReviewAccepted)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

		_, err = admin.ReviewSubmission(ctx, sub.ID, ReviewAccepted)
		require.NoError(t, err)
	}

	elig, err := learner.CheckEligibility(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, elig.HighestEligibleLevel)
	assert.Equal(t, 1, elig.HighestEligibleLevel.Level)

	claim, err := learner.Claim(ctx, ClaimRequest{UserAddress: alice, ModuleID: "advocate"})
	require.NoError(t, err)
	assert.False(t, claim.Already)
	assert.Equal(t, "Web3 Explorer", claim.Claim.LevelName)

	again, err := learner.Claim(ctx, ClaimRequest{UserAddress: alice, ModuleID: "advocate"})
	require.NoError(t, err)
	assert.True(t, again.Already)

	stored, err := learner.GetClaim(ctx, alice, "advocate")
	require.NoError(t, err)
	assert.Equal(t, claim.Claim.ID, stored.ID)

	held, err := learner.ListClaims(ctx, alice)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "advocate", held[0].ModuleID)
}

func TestClient_GetSubmission(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)
	learner := NewClient(ts.URL)
	admin := NewClient(ts.URL, WithAPIKey(adminKey))

	sub, err := learner.SubmitChallenge(ctx, SubmitChallengeRequest{
		UserAddress:    alice,
		ChallengeID:    "deploy-contract",
		GithubUsername: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, ReviewPending, sub.ReviewAction)

	_, err = learner.GetSubmission(ctx, sub.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	got, err := admin.GetSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "deploy-contract", got.ChallengeID)
	assert.Equal(t, "alice", got.GithubUsername)

	_, err = admin.GetSubmission(ctx, "00000000-0000-0000-0000-000000000000")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "submission_not_found", apiErr.Code)
}

func TestClient_Errors(t *testing.T) {
	ctx := context.Background()
	c := NewClient(newTestServer(t).URL)

	_, err := c.GetModule(ctx, "rust")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "module_not_found", apiErr.Code)

	_, err = c.CompleteSection(ctx, CompleteSectionRequest{UserAddress: alice, ModuleID: "defi"})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "validation_error", apiErr.Code)

	_, err = c.GetClaim(ctx, alice, "solidity")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "claim_not_found", apiErr.Code)
}
