package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
)

// ProjectRepository is an in-memory ProjectRepository.
type ProjectRepository struct {
	store *Store
}

// NewProjectRepository creates an in-memory project repository.
func NewProjectRepository(store *Store) repositories.ProjectRepository {
	return &ProjectRepository{store: store}
}

func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, p := range r.store.projects {
		if p.OwnerID == project.OwnerID && p.Name == project.Name {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("project '%s' already exists", project.Name),
				ResourceType: "project",
				ResourceID:   p.ID,
			}
		}
	}

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	cp := *project
	r.store.projects[project.ID] = &cp
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]models.Project, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	projects := []models.Project{}
	for _, p := range r.store.projects {
		if p.OwnerID == ownerID {
			projects = append(projects, *p)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.projects[id]
	if !ok {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// DocumentRepository is an in-memory DocumentRepository.
type DocumentRepository struct {
	store *Store
}

// NewDocumentRepository creates an in-memory document repository.
func NewDocumentRepository(store *Store) repositories.DocumentRepository {
	return &DocumentRepository{store: store}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	cp := *doc
	r.store.documents[doc.ProjectID] = append(r.store.documents[doc.ProjectID], &cp)
	return nil
}

func (r *DocumentRepository) ListByProject(ctx context.Context, projectID string) ([]models.Document, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	docs := []models.Document{}
	for _, d := range r.store.documents[projectID] {
		docs = append(docs, *d)
	}
	return docs, nil
}
