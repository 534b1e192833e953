package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/progress-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 25
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 2
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Completion records ---

const completionColumns = `user_address, module_id, chapters, completed_chapters, chapter_points, points, is_completed, version, updated_at`

// GetCompletion returns a learner's record for a module, or nil if none exists
func (r *PostgresRepository) GetCompletion(ctx context.Context, userAddress, moduleID string) (*models.CompletionRecord, error) {
	query := `SELECT ` + completionColumns + ` FROM completion_records WHERE user_address = $1 AND module_id = $2`

	rec, err := scanCompletion(r.pool.QueryRow(ctx, query, userAddress, moduleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get completion record: %w", err)
	}
	return rec, nil
}

// SaveCompletion writes a record if its version still matches the stored one
func (r *PostgresRepository) SaveCompletion(ctx context.Context, rec *models.CompletionRecord) error {
	chaptersJSON, err := json.Marshal(rec.Chapters)
	if err != nil {
		return fmt.Errorf("failed to marshal chapters: %w", err)
	}
	completedJSON, err := json.Marshal(rec.CompletedChapters)
	if err != nil {
		return fmt.Errorf("failed to marshal completed chapters: %w", err)
	}
	var pointsJSON []byte
	if rec.ChapterPoints != nil {
		if pointsJSON, err = json.Marshal(rec.ChapterPoints); err != nil {
			return fmt.Errorf("failed to marshal chapter points: %w", err)
		}
	}

	var query string
	if rec.Version == 0 {
		query = `
			INSERT INTO completion_records (` + completionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8)
			ON CONFLICT (user_address, module_id) DO NOTHING
		`
	} else {
		query = `
			UPDATE completion_records
			SET chapters = $3, completed_chapters = $4, chapter_points = $5, points = $6,
			    is_completed = $7, version = version + 1, updated_at = $8
			WHERE user_address = $1 AND module_id = $2 AND version = $9
		`
	}

	args := []interface{}{
		rec.UserAddress,
		rec.ModuleID,
		chaptersJSON,
		completedJSON,
		pointsJSON,
		rec.Points,
		rec.IsCompleted,
		rec.UpdatedAt,
	}
	if rec.Version != 0 {
		args = append(args, rec.Version)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to save completion record: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrVersionConflict
	}

	rec.Version++
	return nil
}

// ListCompletions returns every record for a module
func (r *PostgresRepository) ListCompletions(ctx context.Context, moduleID string) ([]*models.CompletionRecord, error) {
	query := `SELECT ` + completionColumns + ` FROM completion_records WHERE module_id = $1 ORDER BY user_address`

	rows, err := r.pool.Query(ctx, query, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completion records: %w", err)
	}
	defer rows.Close()

	var records []*models.CompletionRecord
	for rows.Next() {
		rec, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan completion record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func scanCompletion(row pgx.Row) (*models.CompletionRecord, error) {
	var rec models.CompletionRecord
	var chaptersJSON, completedJSON, pointsJSON []byte

	err := row.Scan(
		&rec.UserAddress,
		&rec.ModuleID,
		&chaptersJSON,
		&completedJSON,
		&pointsJSON,
		&rec.Points,
		&rec.IsCompleted,
		&rec.Version,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(chaptersJSON, &rec.Chapters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chapters: %w", err)
	}
	if err := json.Unmarshal(completedJSON, &rec.CompletedChapters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed chapters: %w", err)
	}
	if pointsJSON != nil {
		if err := json.Unmarshal(pointsJSON, &rec.ChapterPoints); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chapter points: %w", err)
		}
	}
	if rec.Chapters == nil {
		rec.Chapters = make(map[string][]string)
	}

	return &rec, nil
}

// --- Certification claims ---

// FindClaim returns the claim row for a user and module, or nil
func (r *PostgresRepository) FindClaim(ctx context.Context, userAddress, moduleID string) (*models.CertificationClaim, error) {
	query := `
		SELECT id, user_address, module_id, level, level_name, claimed, minted_at, transaction_hash, metadata_url, image_url
		FROM certification_claims
		WHERE user_address = $1 AND module_id = $2
	`

	var c models.CertificationClaim
	var txHash, metadataURL, imageURL sql.NullString

	err := r.pool.QueryRow(ctx, query, userAddress, moduleID).Scan(
		&c.ID,
		&c.UserAddress,
		&c.ModuleID,
		&c.Level,
		&c.LevelName,
		&c.Claimed,
		&c.MintedAt,
		&txHash,
		&metadataURL,
		&imageURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	c.TransactionHash = txHash.String
	c.MetadataURL = metadataURL.String
	c.ImageURL = imageURL.String

	return &c, nil
}

// InsertClaim stores a claim unless one exists for the same user and module
func (r *PostgresRepository) InsertClaim(ctx context.Context, c *models.CertificationClaim) (bool, error) {
	query := `
		INSERT INTO certification_claims (id, user_address, module_id, level, level_name, claimed, minted_at, transaction_hash, metadata_url, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_address, module_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.UserAddress,
		c.ModuleID,
		c.Level,
		c.LevelName,
		c.Claimed,
		c.MintedAt,
		nullString(c.TransactionHash),
		nullString(c.MetadataURL),
		nullString(c.ImageURL),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert claim: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// FindLedgerClaim returns a module's entry in the user's certification ledger, or nil
func (r *PostgresRepository) FindLedgerClaim(ctx context.Context, userAddress, moduleID string) (*models.CertificationClaim, error) {
	query := `
		SELECT elem
		FROM certification_ledgers l, jsonb_array_elements(l.certifications) AS elem
		WHERE l.user_address = $1 AND elem->>'moduleId' = $2
		LIMIT 1
	`

	var data []byte
	if err := r.pool.QueryRow(ctx, query, userAddress, moduleID).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ledger claim: %w", err)
	}

	var c models.CertificationClaim
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger claim: %w", err)
	}
	return &c, nil
}

// AppendLedgerClaim pushes a claim onto the user's ledger unless the module is
// already present. The check and the append happen in one statement.
func (r *PostgresRepository) AppendLedgerClaim(ctx context.Context, c *models.CertificationClaim) (bool, error) {
	claimJSON, err := json.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("failed to marshal claim: %w", err)
	}

	query := `
		INSERT INTO certification_ledgers (user_address, certifications, updated_at)
		VALUES ($1, jsonb_build_array($2::jsonb), NOW())
		ON CONFLICT (user_address) DO UPDATE
		SET certifications = certification_ledgers.certifications || EXCLUDED.certifications,
		    updated_at = NOW()
		WHERE NOT certification_ledgers.certifications @> jsonb_build_array(jsonb_build_object('moduleId', $3::text))
	`

	result, err := r.pool.Exec(ctx, query, c.UserAddress, claimJSON, c.ModuleID)
	if err != nil {
		return false, fmt.Errorf("failed to append ledger claim: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ListLedgerClaims returns the user's ledger in append order
func (r *PostgresRepository) ListLedgerClaims(ctx context.Context, userAddress string) ([]*models.CertificationClaim, error) {
	var data []byte
	err := r.pool.QueryRow(ctx,
		`SELECT certifications FROM certification_ledgers WHERE user_address = $1`,
		userAddress,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}

	var claims []*models.CertificationClaim
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger: %w", err)
	}
	return claims, nil
}

// --- API clients ---

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions, metadata
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var lastUsedAt sql.NullTime
	var permissionsJSON, metadataJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&client.CreatedAt,
		&lastUsedAt,
		&permissionsJSON,
		&metadataJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if lastUsedAt.Valid {
		client.LastUsedAt = &lastUsedAt.Time
	}
	if permissionsJSON != nil {
		if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &client.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}
	return nil
}

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
