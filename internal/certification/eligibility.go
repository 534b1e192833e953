package certification

import (
	"time"

	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/models"
)

// ChallengeStatus is one required challenge of a tier
type ChallengeStatus struct {
	ID             string     `json:"id"`
	Completed      bool       `json:"completed"`
	SubmissionID   string     `json:"submissionId,omitempty"`
	SubmittedAt    *time.Time `json:"submittedAt,omitempty"`
	GithubUsername string     `json:"githubUsername,omitempty"`
	RepoURL        string     `json:"repoUrl,omitempty"`
}

// TierStatus is a learner's standing against one rung of the ladder
type TierStatus struct {
	LevelKey                    string            `json:"levelKey"`
	Name                        string            `json:"name"`
	Level                       int               `json:"level"`
	Eligible                    bool              `json:"eligible"`
	CompletedRequiredChallenges int               `json:"completedRequiredChallenges"`
	TotalRequiredChallenges     int               `json:"totalRequiredChallenges"`
	Challenges                  []ChallengeStatus `json:"challenges"`
}

// TierRef identifies a tier
type TierRef struct {
	LevelKey string `json:"levelKey"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
}

// Eligibility is the full evaluation of the ladder for one learner
type Eligibility struct {
	UserAddress          string       `json:"userAddress"`
	Tiers                []TierStatus `json:"tiers"`
	HighestEligibleLevel *TierRef     `json:"highestEligibleLevel"`
}

// Evaluate checks every tier against a learner's submissions. Only accepted
// submissions count; when a challenge was accepted more than once the
// earliest submission is reported. Among eligible tiers sharing the highest
// level, the first declared wins.
func Evaluate(tiers []curriculum.Tier, submissions []*models.ChallengeSubmission) Eligibility {
	earliest := make(map[string]*models.ChallengeSubmission, len(submissions))
	for _, sub := range submissions {
		if sub == nil || !sub.IsAccepted() {
			continue
		}
		cur, ok := earliest[sub.ChallengeID]
		if !ok || sub.SubmittedAt.Before(cur.SubmittedAt) ||
			(sub.SubmittedAt.Equal(cur.SubmittedAt) && sub.ID < cur.ID) {
			earliest[sub.ChallengeID] = sub
		}
	}

	result := Eligibility{Tiers: make([]TierStatus, 0, len(tiers))}
	for _, tier := range tiers {
		status := TierStatus{
			LevelKey:                tier.LevelKey,
			Name:                    tier.Name,
			Level:                   tier.Level,
			TotalRequiredChallenges: len(tier.RequiredChallenges),
			Challenges:              make([]ChallengeStatus, 0, len(tier.RequiredChallenges)),
		}

		for _, id := range tier.RequiredChallenges {
			cs := ChallengeStatus{ID: id}
			if sub, ok := earliest[id]; ok {
				submittedAt := sub.SubmittedAt
				cs.Completed = true
				cs.SubmissionID = sub.ID
				cs.SubmittedAt = &submittedAt
				cs.GithubUsername = sub.GithubUsername
				cs.RepoURL = sub.RepoURL
				status.CompletedRequiredChallenges++
			}
			status.Challenges = append(status.Challenges, cs)
		}
		status.Eligible = status.CompletedRequiredChallenges == status.TotalRequiredChallenges

		if status.Eligible && (result.HighestEligibleLevel == nil || tier.Level > result.HighestEligibleLevel.Level) {
			result.HighestEligibleLevel = &TierRef{LevelKey: tier.LevelKey, Name: tier.Name, Level: tier.Level}
		}

		result.Tiers = append(result.Tiers, status)
	}

	return result
}
