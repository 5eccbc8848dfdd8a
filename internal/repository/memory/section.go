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

// SectionRepository is an in-memory SectionRepository.
type SectionRepository struct {
	store *Store
}

// NewSectionRepository creates an in-memory section repository.
func NewSectionRepository(store *Store) repositories.SectionRepository {
	return &SectionRepository{store: store}
}

func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.createLocked(section)
}

func (r *SectionRepository) createLocked(section *models.Section) error {
	byKey := r.store.sections[section.ProjectID]
	if byKey == nil {
		byKey = make(map[string]*models.Section)
		r.store.sections[section.ProjectID] = byKey
	}

	if _, exists := byKey[section.SectionKey]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("section '%s' already exists in this project", section.SectionKey),
			ResourceType: "section",
			ResourceID:   section.SectionKey,
		}
	}

	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	section.UpdatedAt = time.Now().UTC()

	cp := copySection(section)
	byKey[section.SectionKey] = cp
	return nil
}

func (r *SectionRepository) ReplaceAll(ctx context.Context, projectID string, sections []models.Section) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.sections[projectID] = make(map[string]*models.Section)
	for i := range sections {
		if err := r.createLocked(&sections[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SectionRepository) GetByKey(ctx context.Context, projectID, sectionKey string) (*models.Section, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.sections[projectID][sectionKey]
	if !ok {
		return nil, fmt.Errorf("section %s: %w", sectionKey, domain.ErrNotFound)
	}
	return copySection(s), nil
}

func (r *SectionRepository) ListByProject(ctx context.Context, projectID string) ([]models.Section, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sections := []models.Section{}
	for _, s := range r.store.sections[projectID] {
		sections = append(sections, *copySection(s))
	}
	return sections, nil
}

func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.sections[section.ProjectID][section.SectionKey]
	if !ok {
		return fmt.Errorf("section %s: %w", section.SectionKey, domain.ErrNotFound)
	}

	section.ID = existing.ID
	section.UpdatedAt = time.Now().UTC()
	r.store.sections[section.ProjectID][section.SectionKey] = copySection(section)
	return nil
}

func (r *SectionRepository) DeleteByKeys(ctx context.Context, projectID string, sectionKeys []string) error {
	if len(sectionKeys) == 0 {
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	byKey := r.store.sections[projectID]
	deleted := 0
	for _, key := range sectionKeys {
		if _, ok := byKey[key]; ok {
			delete(byKey, key)
			deleted++
		}
	}
	if deleted == 0 {
		return fmt.Errorf("sections %v: %w", sectionKeys, domain.ErrNotFound)
	}
	return nil
}

func (r *SectionRepository) SetAllStatus(ctx context.Context, projectID string, status models.SectionStatus, version int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, s := range r.store.sections[projectID] {
		s.Status = status
		s.Version = version
		s.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func copySection(s *models.Section) *models.Section {
	cp := *s
	if s.ParentKey != nil {
		pk := *s.ParentKey
		cp.ParentKey = &pk
	}
	cp.Sources = append([]models.SourceRef(nil), s.Sources...)
	cp.MissingFields = append([]string(nil), s.MissingFields...)
	cp.Content.Bullets = append([]string(nil), s.Content.Bullets...)
	cp.Content.Tables = append([]models.Table(nil), s.Content.Tables...)
	return &cp
}
