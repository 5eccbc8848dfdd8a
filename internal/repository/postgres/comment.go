package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
)

// PostgresCommentRepository implements the CommentRepository interface
type PostgresCommentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(config *RepositoryConfig) repositories.CommentRepository {
	return &PostgresCommentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create attaches a comment to a section row
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (section_id, author_id, body, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, r.tables.Comments)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		comment.SectionID,
		comment.AuthorID,
		comment.Body,
		comment.Status,
		comment.CreatedAt,
	).Scan(&comment.ID, &comment.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("section %s: %w", comment.SectionID, domain.ErrNotFound)
		}
		return fmt.Errorf("create comment: %w", err)
	}

	return nil
}

// ListBySection retrieves comments for a section row, oldest first
func (r *PostgresCommentRepository) ListBySection(ctx context.Context, sectionID string) ([]models.Comment, error) {
	query := fmt.Sprintf(`
		SELECT id, section_id, author_id, body, status, created_at
		FROM %s
		WHERE section_id = $1
		ORDER BY created_at ASC
	`, r.tables.Comments)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID,
			&comment.SectionID,
			&comment.AuthorID,
			&comment.Body,
			&comment.Status,
			&comment.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	if comments == nil {
		comments = []models.Comment{}
	}

	return comments, nil
}

// Resolve marks a comment resolved
func (r *PostgresCommentRepository) Resolve(ctx context.Context, id string) (*models.Comment, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1
		WHERE id = $2
		RETURNING id, section_id, author_id, body, status, created_at
	`, r.tables.Comments)

	var comment models.Comment
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, models.CommentResolved, id).Scan(
		&comment.ID,
		&comment.SectionID,
		&comment.AuthorID,
		&comment.Body,
		&comment.Status,
		&comment.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("resolve comment: %w", err)
	}

	return &comment, nil
}
