package client

import "time"

// Module scoring and claim modes as reported by the API
const (
	ScoringByLevel = "level"
	ScoringNone    = "none"

	ClaimRecord = "record"
	ClaimLedger = "ledger"
)

// Review verdicts
const (
	ReviewPending  = "PENDING"
	ReviewAccepted = "ACCEPTED"
	ReviewRejected = "REJECTED"
)

// ModuleSummary is one entry of the module listing
type ModuleSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Scoring     string `json:"scoring"`
	ClaimMode   string `json:"claimMode"`
	Chapters    int    `json:"chapters"`
}

// Section is the smallest completable unit
type Section struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Chapter is an ordered unit within a module
type Chapter struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Level    string    `json:"level"`
	Sections []Section `json:"sections"`
}

// Module is a module's full curriculum
type Module struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Scoring     string    `json:"scoring"`
	ClaimMode   string    `json:"claimMode"`
	Chapters    []Chapter `json:"chapters"`
}

// Tier is one rung of the certification ladder
type Tier struct {
	LevelKey           string   `json:"levelKey"`
	Name               string   `json:"name"`
	Level              int      `json:"level"`
	RequiredChallenges []string `json:"requiredChallenges"`
}

// CompleteSectionRequest records one section as done. FinalizeChapter marks
// every available section of the chapter complete.
type CompleteSectionRequest struct {
	UserAddress     string `json:"userAddress"`
	ModuleID        string `json:"moduleId"`
	ChapterID       string `json:"chapterId"`
	SectionID       string `json:"sectionId"`
	FinalizeChapter bool   `json:"finalizeChapter,omitempty"`
}

// CompletionRecord is the stored completion snapshot for one module
type CompletionRecord struct {
	UserAddress       string              `json:"userAddress"`
	ModuleID          string              `json:"moduleId"`
	Chapters          map[string][]string `json:"chapters"`
	CompletedChapters []string            `json:"completedChapters"`
	ChapterPoints     map[string]int      `json:"chapterPoints,omitempty"`
	Points            int                 `json:"points"`
	IsCompleted       bool                `json:"isCompleted"`
	Version           int64               `json:"version"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// ChapterProgress is one chapter's completion state
type ChapterProgress struct {
	ChapterID           string   `json:"chapterId"`
	Level               string   `json:"level"`
	CompletedSectionIDs []string `json:"completedSectionIds"`
	TotalSections       int      `json:"totalSections"`
	Percent             float64  `json:"percent"`
	Done                bool     `json:"done"`
}

// ModuleProgress is the derived view of a completion record
type ModuleProgress struct {
	ModuleID          string            `json:"moduleId"`
	Chapters          []ChapterProgress `json:"chapters"`
	CompletedChapters []string          `json:"completedChapters"`
	ChapterPoints     map[string]int    `json:"chapterPoints,omitempty"`
	Points            int               `json:"points"`
	IsCompleted       bool              `json:"isCompleted"`
}

// Chapter returns progress for one chapter, or nil
func (p *ModuleProgress) Chapter(id string) *ChapterProgress {
	for i := range p.Chapters {
		if p.Chapters[i].ChapterID == id {
			return &p.Chapters[i]
		}
	}
	return nil
}

// Progress is returned by the progress endpoints. Changed is false when a
// completion request did not alter the record.
type Progress struct {
	Record   *CompletionRecord `json:"record"`
	Progress ModuleProgress    `json:"progress"`
	Changed  bool              `json:"changed"`
}

// ChallengeStatus is one required challenge of a tier
type ChallengeStatus struct {
	ID             string     `json:"id"`
	Completed      bool       `json:"completed"`
	SubmissionID   string     `json:"submissionId,omitempty"`
	SubmittedAt    *time.Time `json:"submittedAt,omitempty"`
	GithubUsername string     `json:"githubUsername,omitempty"`
	RepoURL        string     `json:"repoUrl,omitempty"`
}

// TierStatus is a learner's standing against one tier
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

// Eligibility is the evaluation of the whole ladder for one learner
type Eligibility struct {
	UserAddress          string       `json:"userAddress"`
	Tiers                []TierStatus `json:"tiers"`
	HighestEligibleLevel *TierRef     `json:"highestEligibleLevel"`
}

// ClaimRequest asks to record a certification. Leaving both Level and
// LevelName empty claims the learner's highest eligible tier.
type ClaimRequest struct {
	UserAddress     string `json:"userAddress"`
	ModuleID        string `json:"moduleId"`
	Level           int    `json:"level,omitempty"`
	LevelName       string `json:"levelName,omitempty"`
	TransactionHash string `json:"transactionHash,omitempty"`
	MetadataURL     string `json:"metadataUrl,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// Claim is a recorded certification
type Claim struct {
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

// ClaimResult is returned by Claim. Already is set when the claim existed
// before the request.
type ClaimResult struct {
	Already bool   `json:"already"`
	Claim   *Claim `json:"claim"`
}

// SubmitChallengeRequest represents a new challenge submission
type SubmitChallengeRequest struct {
	UserAddress    string `json:"userAddress"`
	ChallengeID    string `json:"challengeId"`
	GithubUsername string `json:"githubUsername,omitempty"`
	RepoURL        string `json:"repoUrl,omitempty"`
}

// Submission is a learner's challenge submission
type Submission struct {
	ID             string     `json:"id"`
	UserAddress    string     `json:"userAddress"`
	ChallengeID    string     `json:"challengeId"`
	ReviewAction   string     `json:"reviewAction"`
	GithubUsername string     `json:"githubUsername,omitempty"`
	RepoURL        string     `json:"repoUrl,omitempty"`
	SubmittedAt    time.Time  `json:"submittedAt"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy     string     `json:"reviewedBy,omitempty"`
}

type reviewRequest struct {
	Action string `json:"action"`
}

// LeaderboardEntry is one ranked learner
type LeaderboardEntry struct {
	Rank        int64  `json:"rank"`
	UserAddress string `json:"userAddress"`
	Points      int    `json:"points"`
}

// Leaderboard is a page of ranked learners
type Leaderboard struct {
	ModuleID string             `json:"moduleId"`
	Entries  []LeaderboardEntry `json:"entries"`
	Total    int                `json:"total"`
	Me       *LeaderboardEntry  `json:"me,omitempty"`
}
