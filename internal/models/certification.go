package models

import "time"

// ReviewAction is the outcome of a challenge submission review
type ReviewAction string

const (
	ReviewPending  ReviewAction = "PENDING"
	ReviewAccepted ReviewAction = "ACCEPTED"
	ReviewRejected ReviewAction = "REJECTED"
)

// ChallengeSubmission is a learner's answer to a coding challenge
type ChallengeSubmission struct {
	ID             string       `json:"id"`
	UserAddress    string       `json:"userAddress"`
	ChallengeID    string       `json:"challengeId"`
	ReviewAction   ReviewAction `json:"reviewAction"`
	GithubUsername string       `json:"githubUsername,omitempty"`
	RepoURL        string       `json:"repoUrl,omitempty"`
	SubmittedAt    time.Time    `json:"submittedAt"`
	ReviewedAt     *time.Time   `json:"reviewedAt,omitempty"`
	ReviewedBy     string       `json:"reviewedBy,omitempty"`
}

// IsAccepted returns true if the submission counts toward certification
func (s *ChallengeSubmission) IsAccepted() bool {
	return s.ReviewAction == ReviewAccepted
}

// CertificationClaim records that a learner has taken a certification.
// It is created at most once per (user, module) and never deleted.
type CertificationClaim struct {
	ID              string    `json:"id"`
	UserAddress     string    `json:"userAddress"`
	ModuleID        string    `json:"moduleId"`
	Level           int       `json:"level"`
	LevelName       string    `json:"levelName"`
	Claimed         bool      `json:"claimed"`
	MintedAt        time.Time `json:"mintedAt"`
	TransactionHash string    `json:"transactionHash,omitempty"`
	MetadataURL     string    `json:"metadataUrl,omitempty"`
	ImageURL        string    `json:"imageUrl,omitempty"`
}

// ClaimRequest asks to record a certification claim
type ClaimRequest struct {
	UserAddress     string `json:"userAddress" validate:"required,eth_addr"`
	ModuleID        string `json:"moduleId" validate:"required"`
	Level           int    `json:"level,omitempty" validate:"gte=0"`
	LevelName       string `json:"levelName,omitempty"`
	TransactionHash string `json:"transactionHash,omitempty"`
	MetadataURL     string `json:"metadataUrl,omitempty" validate:"omitempty,url"`
	ImageURL        string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// Validate checks required fields
func (r *ClaimRequest) Validate() error {
	return Validate(r)
}

// ClaimResult is returned by a claim request. Already is set when the
// claim existed before the request.
type ClaimResult struct {
	Already bool                `json:"already"`
	Claim   *CertificationClaim `json:"claim"`
}

// SubmitChallengeRequest represents a new challenge submission
type SubmitChallengeRequest struct {
	UserAddress    string `json:"userAddress" validate:"required,eth_addr"`
	ChallengeID    string `json:"challengeId" validate:"required"`
	GithubUsername string `json:"githubUsername,omitempty"`
	RepoURL        string `json:"repoUrl,omitempty" validate:"omitempty,url"`
}

// Validate checks required fields
func (r *SubmitChallengeRequest) Validate() error {
	return Validate(r)
}

// ReviewRequest carries an admin's verdict on a submission
type ReviewRequest struct {
	Action ReviewAction `json:"action" validate:"required,oneof=ACCEPTED REJECTED"`
}

// Validate checks required fields
func (r *ReviewRequest) Validate() error {
	return Validate(r)
}
