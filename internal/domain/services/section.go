package services

import (
	"context"

	"soaforge/internal/domain/models"
)

// AddSectionRequest creates a single section from a catalog template.
type AddSectionRequest struct {
	ProjectID  string                `json:"-"`
	AuthorID   string                `json:"-"`
	SectionKey string                `json:"section_key"`
	Content    models.SectionContent `json:"content"`
}

// UpdateSectionRequest replaces a section's content (manual edit).
type UpdateSectionRequest struct {
	ProjectID  string                `json:"-"`
	AuthorID   string                `json:"-"`
	SectionKey string                `json:"section_key"`
	Content    models.SectionContent `json:"content"`
	Sources    []models.SourceRef    `json:"sources,omitempty"`
}

// DeleteResult reports what a cascade delete removed.
type DeleteResult struct {
	DeletedKeys []string `json:"deleted_keys"`
	NewVersion  int      `json:"new_version"`
}

// SectionService owns the hierarchical section tree for a project.
type SectionService interface {
	// List returns the project's sections in document order
	// (deduplicated, numeric key ordering, parents before children)
	List(ctx context.Context, projectID string) ([]models.Section, error)

	// UpsertGenerated atomically replaces all sections for a project
	// with a freshly generated set
	UpsertGenerated(ctx context.Context, projectID string, generated []GeneratedSection) ([]models.Section, error)

	// Add creates one section from its catalog template; fails with a
	// conflict when the key already exists
	Add(ctx context.Context, req *AddSectionRequest) (*models.Section, error)

	// UpdateContent applies a manual edit, marks the section reviewed
	// and records a new version
	UpdateContent(ctx context.Context, req *UpdateSectionRequest) (*models.Section, error)

	// Delete removes a section and every descendant (transitive closure
	// over parent keys) in one operation, then records a new version
	Delete(ctx context.Context, projectID, sectionKey, authorID string) (*DeleteResult, error)

	// Regenerate asks the generation client for a single section and
	// replaces it, recording a new version
	Regenerate(ctx context.Context, projectID, sectionKey, authorID string) (*models.Section, error)
}
