package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
)

// PostgresVersionRepository implements the VersionRepository interface.
// The versions table is append-only; rows are never updated or deleted.
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *RepositoryConfig) repositories.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Append inserts the next version row for a project. The unique
// constraint on (project_id, version_number) rejects concurrent writers
// that raced to the same number.
func (r *PostgresVersionRepository) Append(ctx context.Context, version *models.Version) error {
	patch, err := json.Marshal(version.Patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, version_number, patch, author_id, change_kind, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.Versions)

	executor := GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		version.ProjectID,
		version.VersionNumber,
		patch,
		version.AuthorID,
		version.ChangeKind,
		version.Summary,
		version.CreatedAt,
	).Scan(&version.ID, &version.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("version %d already recorded: %w", version.VersionNumber, domain.ErrConflict)
		}
		return fmt.Errorf("append version: %w", err)
	}

	return nil
}

// ListByProject returns all versions ordered by version_number ASC
func (r *PostgresVersionRepository) ListByProject(ctx context.Context, projectID string) ([]models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, version_number, patch, author_id, change_kind, summary, created_at
		FROM %s
		WHERE project_id = $1
		ORDER BY version_number ASC
	`, r.tables.Versions)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		var (
			version models.Version
			patch   []byte
		)
		err := rows.Scan(
			&version.ID,
			&version.ProjectID,
			&version.VersionNumber,
			&patch,
			&version.AuthorID,
			&version.ChangeKind,
			&version.Summary,
			&version.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		if err := json.Unmarshal(patch, &version.Patch); err != nil {
			return nil, fmt.Errorf("decode patch: %w", err)
		}
		versions = append(versions, version)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	if versions == nil {
		versions = []models.Version{}
	}

	return versions, nil
}

// Count returns how many versions exist for a project
func (r *PostgresVersionRepository) Count(ctx context.Context, projectID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE project_id = $1
	`, r.tables.Versions)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count versions: %w", err)
	}

	return count, nil
}
