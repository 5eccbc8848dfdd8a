package repositories

import (
	"context"

	"soaforge/internal/domain/models"
)

// VersionRepository defines data access for the append-only version
// log. Versions are never updated or deleted.
type VersionRepository interface {
	// Append inserts the next version row for a project
	Append(ctx context.Context, version *models.Version) error

	// ListByProject returns all versions ordered by version_number ASC
	ListByProject(ctx context.Context, projectID string) ([]models.Version, error)

	// Count returns how many versions exist for a project
	Count(ctx context.Context, projectID string) (int, error)
}

// CommentRepository defines data access for section review comments
type CommentRepository interface {
	// Create attaches a comment to a section row
	Create(ctx context.Context, comment *models.Comment) error

	// ListBySection retrieves comments for a section row, oldest first
	ListBySection(ctx context.Context, sectionID string) ([]models.Comment, error)

	// Resolve marks a comment resolved
	Resolve(ctx context.Context, id string) (*models.Comment, error)
}
