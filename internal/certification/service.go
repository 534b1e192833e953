package certification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/progress-engine/internal/curriculum"
	"github.com/terra-clan/progress-engine/internal/events"
	"github.com/terra-clan/progress-engine/internal/metrics"
	"github.com/terra-clan/progress-engine/internal/models"
	"github.com/terra-clan/progress-engine/internal/storage"
)

// Service evaluates eligibility, records claims and manages challenge
// submissions
type Service struct {
	registry    *curriculum.Registry
	claims      storage.ClaimStore
	submissions storage.SubmissionStore
	events      events.Publisher
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewService creates a new certification service. publisher and m may be nil.
func NewService(registry *curriculum.Registry, claims storage.ClaimStore, submissions storage.SubmissionStore, publisher events.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		registry:    registry,
		claims:      claims,
		submissions: submissions,
		events:      publisher,
		metrics:     m,
		now:         time.Now,
	}
}

// CheckEligibility evaluates the ladder against the learner's accepted submissions
func (s *Service) CheckEligibility(ctx context.Context, userAddress string) (*Eligibility, error) {
	address, err := models.NormalizeAddress(userAddress)
	if err != nil {
		return nil, err
	}

	accepted, err := s.submissions.QueryAccepted(ctx, address, s.registry.ChallengeIDs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}

	result := Evaluate(s.registry.Tiers(), accepted)
	result.UserAddress = address
	return &result, nil
}

// Claim records a certification for a module. A repeated claim is not an
// error: it returns the stored claim with Already set.
func (s *Service) Claim(ctx context.Context, req *models.ClaimRequest) (*models.ClaimResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address, err := models.NormalizeAddress(req.UserAddress)
	if err != nil {
		return nil, err
	}

	level, levelName, err := s.completeTier(req.Level, req.LevelName)
	if err != nil {
		return nil, err
	}

	mod, ok := s.registry.LookupKey(req.ModuleID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrModuleNotFound, req.ModuleID)
	}
	moduleKey := mod.ID.String()

	existing, err := s.findClaim(ctx, mod, address)
	if err != nil {
		s.metrics.Claim(moduleKey, metrics.OutcomeError)
		return nil, err
	}
	if existing != nil {
		s.metrics.Claim(moduleKey, metrics.OutcomeAlready)
		return &models.ClaimResult{Already: true, Claim: existing}, nil
	}

	if level == 0 && levelName == "" {
		eligibility, err := s.CheckEligibility(ctx, address)
		if err != nil {
			s.metrics.Claim(moduleKey, metrics.OutcomeError)
			return nil, err
		}
		if best := eligibility.HighestEligibleLevel; best != nil {
			level, levelName = best.Level, best.Name
		}
	}

	claim := &models.CertificationClaim{
		ID:              uuid.New().String(),
		UserAddress:     address,
		ModuleID:        moduleKey,
		Level:           level,
		LevelName:       levelName,
		Claimed:         true,
		MintedAt:        s.now().UTC(),
		TransactionHash: req.TransactionHash,
		MetadataURL:     req.MetadataURL,
		ImageURL:        req.ImageURL,
	}

	var inserted bool
	if mod.ClaimMode == curriculum.ClaimLedger {
		inserted, err = s.claims.AppendLedgerClaim(ctx, claim)
	} else {
		inserted, err = s.claims.InsertClaim(ctx, claim)
	}
	if err != nil {
		s.metrics.Claim(moduleKey, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to store claim: %w", err)
	}

	if !inserted {
		// lost a race with a concurrent claim
		stored, err := s.findClaim(ctx, mod, address)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			stored = claim
		}
		s.metrics.Claim(moduleKey, metrics.OutcomeAlready)
		return &models.ClaimResult{Already: true, Claim: stored}, nil
	}

	s.metrics.Claim(moduleKey, metrics.OutcomeClaimed)
	slog.Info("certification claimed",
		"address", address,
		"module", moduleKey,
		"level", level,
		"claim_id", claim.ID,
	)
	s.publishClaim(ctx, claim)

	return &models.ClaimResult{Already: false, Claim: claim}, nil
}

// completeTier fills in the missing half of a partially named tier from the
// ladder. Both empty is left for the caller to default; a half that matches
// no tier, or a pair that names two different tiers, is a validation error.
func (s *Service) completeTier(level int, name string) (int, string, error) {
	if level == 0 && name == "" {
		return 0, "", nil
	}
	for _, tier := range s.registry.Tiers() {
		switch {
		case level != 0 && name != "":
			if tier.Level == level && tier.Name == name {
				return level, name, nil
			}
		case name != "":
			if tier.Name == name {
				return tier.Level, tier.Name, nil
			}
		default:
			if tier.Level == level {
				return tier.Level, tier.Name, nil
			}
		}
	}
	return 0, "", fmt.Errorf("%w: level %d and levelName %q do not name a certification tier", models.ErrValidation, level, name)
}

// GetClaim returns a learner's claim for a module
func (s *Service) GetClaim(ctx context.Context, userAddress, moduleID string) (*models.CertificationClaim, error) {
	address, err := models.NormalizeAddress(userAddress)
	if err != nil {
		return nil, err
	}

	mod, ok := s.registry.LookupKey(moduleID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrModuleNotFound, moduleID)
	}

	claim, err := s.findClaim(ctx, mod, address)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, models.ErrClaimNotFound
	}
	return claim, nil
}

// ListCertifications returns every claim a learner holds, in module listing
// order. Ledger-mode claims come from the learner's shared ledger; entries
// for modules the registry no longer lists are kept at the end.
func (s *Service) ListCertifications(ctx context.Context, userAddress string) ([]*models.CertificationClaim, error) {
	address, err := models.NormalizeAddress(userAddress)
	if err != nil {
		return nil, err
	}

	ledger, err := s.claims.ListLedgerClaims(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load certification ledger: %w", err)
	}
	byModule := make(map[string]*models.CertificationClaim, len(ledger))
	for _, c := range ledger {
		byModule[c.ModuleID] = c
	}

	claims := make([]*models.CertificationClaim, 0, len(ledger))
	for _, mod := range s.registry.Modules() {
		key := mod.ID.String()
		if mod.ClaimMode == curriculum.ClaimLedger {
			if c, ok := byModule[key]; ok {
				claims = append(claims, c)
				delete(byModule, key)
			}
			continue
		}

		c, err := s.claims.FindClaim(ctx, address, key)
		if err != nil {
			return nil, fmt.Errorf("failed to load claim: %w", err)
		}
		if c != nil {
			claims = append(claims, c)
		}
	}

	for _, c := range ledger {
		if _, ok := byModule[c.ModuleID]; ok {
			claims = append(claims, c)
		}
	}
	return claims, nil
}

func (s *Service) findClaim(ctx context.Context, mod *curriculum.Module, address string) (*models.CertificationClaim, error) {
	var (
		claim *models.CertificationClaim
		err   error
	)
	if mod.ClaimMode == curriculum.ClaimLedger {
		claim, err = s.claims.FindLedgerClaim(ctx, address, mod.ID.String())
	} else {
		claim, err = s.claims.FindClaim(ctx, address, mod.ID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}
	return claim, nil
}

func (s *Service) publishClaim(ctx context.Context, claim *models.CertificationClaim) {
	if s.events == nil {
		return
	}
	ev := events.ProgressEvent{
		Type:        events.TypeCertificationClaimed,
		UserAddress: claim.UserAddress,
		ModuleID:    claim.ModuleID,
		Level:       claim.Level,
		Timestamp:   claim.MintedAt,
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.Warn("failed to publish claim event", "error", err, "address", claim.UserAddress)
	}
}

// Submit stores a new challenge submission awaiting review
func (s *Service) Submit(ctx context.Context, req *models.SubmitChallengeRequest) (*models.ChallengeSubmission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	address, err := models.NormalizeAddress(req.UserAddress)
	if err != nil {
		return nil, err
	}

	if !s.registry.HasChallenge(req.ChallengeID) {
		return nil, fmt.Errorf("%w: %s", models.ErrChallengeNotFound, req.ChallengeID)
	}

	sub := &models.ChallengeSubmission{
		ID:             uuid.New().String(),
		UserAddress:    address,
		ChallengeID:    req.ChallengeID,
		ReviewAction:   models.ReviewPending,
		GithubUsername: req.GithubUsername,
		RepoURL:        req.RepoURL,
		SubmittedAt:    s.now().UTC(),
	}

	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	slog.Info("challenge submitted",
		"address", address,
		"challenge", sub.ChallengeID,
		"submission_id", sub.ID,
	)
	return sub, nil
}

// GetSubmission returns a submission by id
func (s *Service) GetSubmission(ctx context.Context, id string) (*models.ChallengeSubmission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrSubmissionNotFound, id)
	}

	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrSubmissionNotFound, id)
	}
	return sub, nil
}

// Review records an admin's verdict on a pending submission
func (s *Service) Review(ctx context.Context, id string, req *models.ReviewRequest, reviewer string) (*models.ChallengeSubmission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrSubmissionNotFound, id)
	}

	sub, err := s.submissions.ReviewSubmission(ctx, id, req.Action, reviewer)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyReviewed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to review submission: %w", err)
	}
	if sub == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrSubmissionNotFound, id)
	}

	slog.Info("submission reviewed",
		"submission_id", id,
		"action", string(req.Action),
		"reviewer", reviewer,
	)
	return sub, nil
}
