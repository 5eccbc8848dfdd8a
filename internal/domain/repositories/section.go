package repositories

import (
	"context"

	"soaforge/internal/domain/models"
)

// SectionRepository defines data access operations for sections.
// Hierarchy traversal (descendant closure) and ordering are service
// concerns; the repository only guarantees per-project key uniqueness.
type SectionRepository interface {
	// Create inserts one section; returns domain.ErrConflict when the
	// section key already exists in the project
	Create(ctx context.Context, section *models.Section) error

	// ReplaceAll deletes every section for the project and inserts the
	// given set in a single transaction (bulk regeneration)
	ReplaceAll(ctx context.Context, projectID string, sections []models.Section) error

	// GetByKey retrieves a section by its key within a project
	GetByKey(ctx context.Context, projectID, sectionKey string) (*models.Section, error)

	// ListByProject retrieves all sections for a project (unordered)
	ListByProject(ctx context.Context, projectID string) ([]models.Section, error)

	// Update persists title/content/sources/missing fields/status/version
	Update(ctx context.Context, section *models.Section) error

	// DeleteByKeys deletes the given section keys in one operation
	DeleteByKeys(ctx context.Context, projectID string, sectionKeys []string) error

	// SetAllStatus flips every section in the project to the given
	// status and version (finalize)
	SetAllStatus(ctx context.Context, projectID string, status models.SectionStatus, version int) error
}
