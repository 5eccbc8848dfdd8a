package repositories

import (
	"context"

	"soaforge/internal/domain/models"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create creates a new project and fills in generated ID and timestamps
	Create(ctx context.Context, project *models.Project) error

	// GetByID retrieves a project scoped to its owner
	GetByID(ctx context.Context, id, ownerID string) (*models.Project, error)

	// List retrieves all projects for an owner, ordered by updated_at DESC
	List(ctx context.Context, ownerID string) ([]models.Project, error)

	// UpdateStatus transitions a project's status
	UpdateStatus(ctx context.Context, id string, status models.ProjectStatus) error
}

// DocumentRepository defines data access operations for source documents
type DocumentRepository interface {
	// Create registers a parsed source document for a project
	Create(ctx context.Context, doc *models.Document) error

	// ListByProject retrieves all source documents for a project
	ListByProject(ctx context.Context, projectID string) ([]models.Document, error)
}
