package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
)

// VersionRepository is an in-memory VersionRepository.
type VersionRepository struct {
	store *Store
}

// NewVersionRepository creates an in-memory version repository.
func NewVersionRepository(store *Store) repositories.VersionRepository {
	return &VersionRepository{store: store}
}

func (r *VersionRepository) Append(ctx context.Context, version *models.Version) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	log := r.store.versions[version.ProjectID]
	for _, v := range log {
		if v.VersionNumber == version.VersionNumber {
			return fmt.Errorf("version %d already recorded: %w", version.VersionNumber, domain.ErrConflict)
		}
	}

	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}

	cp := *version
	cp.Patch = append(models.Patch(nil), version.Patch...)
	r.store.versions[version.ProjectID] = append(log, &cp)
	return nil
}

func (r *VersionRepository) ListByProject(ctx context.Context, projectID string) ([]models.Version, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	versions := []models.Version{}
	for _, v := range r.store.versions[projectID] {
		cp := *v
		cp.Patch = append(models.Patch(nil), v.Patch...)
		versions = append(versions, cp)
	}
	return versions, nil
}

func (r *VersionRepository) Count(ctx context.Context, projectID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.versions[projectID]), nil
}
