package certification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/models"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func accepted(id, challenge string, offset time.Duration) *models.ChallengeSubmission {
	return &models.ChallengeSubmission{
		ID:           id,
		ChallengeID:  challenge,
		ReviewAction: models.ReviewAccepted,
		SubmittedAt:  base.Add(offset),
	}
}

func defaultTiers(t *testing.T) []curriculum.Tier {
	t.Helper()
	reg, err := curriculum.LoadDefault()
	require.NoError(t, err)
	return reg.Tiers()
}

func TestEvaluate_HighestEligibleLevel(t *testing.T) {
	tiers := defaultTiers(t)

	tests := []struct {
		name       string
		challenges []string
		want       string
	}{
		{name: "nothing accepted", challenges: nil, want: ""},
		{name: "partial first tier", challenges: []string{"connect-wallet"}, want: ""},
		{name: "explorer", challenges: []string{"connect-wallet", "read-balance"}, want: "explorer"},
		{name: "builder", challenges: []string{"connect-wallet", "read-balance", "send-transaction"}, want: "builder"},
		{
			name:       "gap below developer",
			challenges: []string{"connect-wallet", "read-balance", "deploy-contract", "verify-contract"},
			want:       "explorer",
		},
		{
			name: "architect",
			challenges: []string{"connect-wallet", "read-balance", "send-transaction",
				"deploy-contract", "verify-contract", "upgradeable-proxy", "gas-golf"},
			want: "architect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var subs []*models.ChallengeSubmission
			for i, c := range tt.challenges {
				subs = append(subs, accepted(c, c, time.Duration(i)*time.Minute))
			}

			result := Evaluate(tiers, subs)
			require.Len(t, result.Tiers, len(tiers))
			if tt.want == "" {
				assert.Nil(t, result.HighestEligibleLevel)
				return
			}
			require.NotNil(t, result.HighestEligibleLevel)
			assert.Equal(t, tt.want, result.HighestEligibleLevel.LevelKey)
		})
	}
}

func TestEvaluate_Counts(t *testing.T) {
	tiers := defaultTiers(t)
	result := Evaluate(tiers, []*models.ChallengeSubmission{
		accepted("a", "connect-wallet", 0),
		accepted("b", "deploy-contract", time.Minute),
	})

	developer := result.Tiers[2]
	assert.Equal(t, "developer", developer.LevelKey)
	assert.Equal(t, 2, developer.CompletedRequiredChallenges)
	assert.Equal(t, 5, developer.TotalRequiredChallenges)
	assert.False(t, developer.Eligible)
	require.Len(t, developer.Challenges, 5)
	assert.True(t, developer.Challenges[0].Completed)
	assert.False(t, developer.Challenges[1].Completed)
	assert.Nil(t, developer.Challenges[1].SubmittedAt)
}

func TestEvaluate_IgnoresUnacceptedAndReportsEarliest(t *testing.T) {
	tiers := defaultTiers(t)

	late := accepted("late", "connect-wallet", time.Hour)
	late.GithubUsername = "late-user"
	early := accepted("early", "connect-wallet", 0)
	early.GithubUsername = "early-user"
	pending := accepted("p", "read-balance", 0)
	pending.ReviewAction = models.ReviewPending
	rejected := accepted("r", "read-balance", 0)
	rejected.ReviewAction = models.ReviewRejected

	result := Evaluate(tiers, []*models.ChallengeSubmission{late, pending, early, rejected})

	explorer := result.Tiers[0]
	assert.False(t, explorer.Eligible)
	assert.Equal(t, 1, explorer.CompletedRequiredChallenges)
	cs := explorer.Challenges[0]
	assert.Equal(t, "early", cs.SubmissionID)
	assert.Equal(t, "early-user", cs.GithubUsername)
	require.NotNil(t, cs.SubmittedAt)
	assert.True(t, cs.SubmittedAt.Equal(base))
}

func TestEvaluate_TieBreakFirstDeclared(t *testing.T) {
	tiers := []curriculum.Tier{
		{LevelKey: "first", Name: "First", Level: 2, RequiredChallenges: []string{"a"}},
		{LevelKey: "second", Name: "Second", Level: 2, RequiredChallenges: []string{"b"}},
		{LevelKey: "low", Name: "Low", Level: 1, RequiredChallenges: []string{"a"}},
	}

	result := Evaluate(tiers, []*models.ChallengeSubmission{
		accepted("1", "b", 0),
		accepted("2", "a", 0),
	})
	require.NotNil(t, result.HighestEligibleLevel)
	assert.Equal(t, "first", result.HighestEligibleLevel.LevelKey)
}

func TestEvaluate_Monotonic(t *testing.T) {
	tiers := defaultTiers(t)
	all := []string{"gas-golf", "connect-wallet", "verify-contract", "read-balance",
		"upgradeable-proxy", "send-transaction", "deploy-contract"}

	var subs []*models.ChallengeSubmission
	best := 0
	for i, c := range all {
		subs = append(subs, accepted(c, c, time.Duration(i)*time.Minute))
		result := Evaluate(tiers, subs)
		level := 0
		if result.HighestEligibleLevel != nil {
			level = result.HighestEligibleLevel.Level
		}
		assert.GreaterOrEqual(t, level, best)
		best = level
	}
	assert.Equal(t, 4, best)
}
