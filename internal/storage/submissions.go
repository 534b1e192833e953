package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/terra-clan/progress-engine/internal/models"
)

// SQLSubmissionStore implements SubmissionStore on database/sql with the lib/pq driver
type SQLSubmissionStore struct {
	db *sql.DB
}

// NewSQLSubmissionStore opens the submissions database
func NewSQLSubmissionStore(ctx context.Context, dsn string) (*SQLSubmissionStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open submissions database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping submissions database: %w", err)
	}

	return &SQLSubmissionStore{db: db}, nil
}

const submissionColumns = `id, user_address, challenge_id, review_action, github_username, repo_url, submitted_at, reviewed_at, reviewed_by`

// CreateSubmission inserts a new submission
func (s *SQLSubmissionStore) CreateSubmission(ctx context.Context, sub *models.ChallengeSubmission) error {
	query := `INSERT INTO challenge_submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		sub.ID,
		sub.UserAddress,
		sub.ChallengeID,
		string(sub.ReviewAction),
		nullString(sub.GithubUsername),
		nullString(sub.RepoURL),
		sub.SubmittedAt,
		nullTime(sub.ReviewedAt),
		nullString(sub.ReviewedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// GetSubmission returns a submission by id, or nil if not found
func (s *SQLSubmissionStore) GetSubmission(ctx context.Context, id string) (*models.ChallengeSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM challenge_submissions WHERE id = $1`

	sub, err := scanSubmission(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

// ReviewSubmission moves a PENDING submission to its final state.
// Returns nil if the submission does not exist and models.ErrAlreadyReviewed
// if it has been reviewed before.
func (s *SQLSubmissionStore) ReviewSubmission(ctx context.Context, id string, action models.ReviewAction, reviewer string) (*models.ChallengeSubmission, error) {
	query := `
		UPDATE challenge_submissions
		SET review_action = $2, reviewed_at = NOW(), reviewed_by = $3
		WHERE id = $1 AND review_action = 'PENDING'
		RETURNING ` + submissionColumns

	sub, err := scanSubmission(s.db.QueryRowContext(ctx, query, id, string(action), nullString(reviewer)))
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to review submission: %w", err)
	}

	existing, err := s.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	return nil, models.ErrAlreadyReviewed
}

// QueryAccepted returns a user's ACCEPTED submissions, oldest first
func (s *SQLSubmissionStore) QueryAccepted(ctx context.Context, userAddress string, challengeIDs ...string) ([]*models.ChallengeSubmission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM challenge_submissions
		WHERE user_address = $1 AND review_action = 'ACCEPTED'`
	args := []interface{}{userAddress}

	if len(challengeIDs) > 0 {
		query += ` AND challenge_id = ANY($2)`
		args = append(args, pq.Array(challengeIDs))
	}
	query += ` ORDER BY submitted_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []*models.ChallengeSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}

// Ping checks database connectivity
func (s *SQLSubmissionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle
func (s *SQLSubmissionStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*models.ChallengeSubmission, error) {
	var sub models.ChallengeSubmission
	var action string
	var github, repo, reviewedBy sql.NullString
	var reviewedAt sql.NullTime

	err := row.Scan(
		&sub.ID,
		&sub.UserAddress,
		&sub.ChallengeID,
		&action,
		&github,
		&repo,
		&sub.SubmittedAt,
		&reviewedAt,
		&reviewedBy,
	)
	if err != nil {
		return nil, err
	}

	sub.ReviewAction = models.ReviewAction(action)
	sub.GithubUsername = github.String
	sub.RepoURL = repo.String
	sub.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		sub.ReviewedAt = &reviewedAt.Time
	}

	return &sub, nil
}
