package storage

import (
	"context"

	"github.com/terra-clan/progress-engine/internal/models"
)

// CompletionStore persists learners' completion records.
//
// SaveCompletion is a compare-and-set on rec.Version: it succeeds only if the
// stored version still equals rec.Version (0 meaning "no record yet") and
// returns models.ErrVersionConflict otherwise. On success rec.Version is
// advanced to the stored value.
type CompletionStore interface {
	GetCompletion(ctx context.Context, userAddress, moduleID string) (*models.CompletionRecord, error)
	SaveCompletion(ctx context.Context, rec *models.CompletionRecord) error
	ListCompletions(ctx context.Context, moduleID string) ([]*models.CompletionRecord, error)
}

// ClaimStore persists certification claims. Insert and append report false
// when a claim for the same user and module already exists.
type ClaimStore interface {
	FindClaim(ctx context.Context, userAddress, moduleID string) (*models.CertificationClaim, error)
	InsertClaim(ctx context.Context, claim *models.CertificationClaim) (bool, error)

	FindLedgerClaim(ctx context.Context, userAddress, moduleID string) (*models.CertificationClaim, error)
	AppendLedgerClaim(ctx context.Context, claim *models.CertificationClaim) (bool, error)
	ListLedgerClaims(ctx context.Context, userAddress string) ([]*models.CertificationClaim, error)
}

// ClientStore looks up admin API clients
type ClientStore interface {
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error
}

// Repository is the primary progress database
type Repository interface {
	CompletionStore
	ClaimStore
	ClientStore

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// SubmissionStore persists challenge submissions. It lives in its own
// relational database.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub *models.ChallengeSubmission) error
	GetSubmission(ctx context.Context, id string) (*models.ChallengeSubmission, error)
	ReviewSubmission(ctx context.Context, id string, action models.ReviewAction, reviewer string) (*models.ChallengeSubmission, error)
	// QueryAccepted returns ACCEPTED submissions oldest first, optionally
	// restricted to the given challenge ids.
	QueryAccepted(ctx context.Context, userAddress string, challengeIDs ...string) ([]*models.ChallengeSubmission, error)

	Ping(ctx context.Context) error
	Close() error
}
