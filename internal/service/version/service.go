// Package version records document history as an append-only log of
// invertible patches and reconstructs any historical snapshot from it.
package version

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
	"soaforge/internal/domain/services"
)

// Service implements services.VersionService on top of the version
// repository. A per-project mutex serializes version creation so two
// writers cannot both claim the same version number.
type Service struct {
	versions repositories.VersionRepository
	sections repositories.SectionRepository
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a version service. The section repository is used
// by Rollback to push restored values back into the working copy.
func NewService(versions repositories.VersionRepository, sections repositories.SectionRepository, logger *slog.Logger) *Service {
	return &Service{
		versions: versions,
		sections: sections,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

var _ services.VersionService = (*Service)(nil)

func (s *Service) projectLock(projectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[projectID] = lock
	}
	return lock
}

// CreateVersion diffs prev against next and appends the result. An
// empty diff records nothing and returns the current version number.
func (s *Service) CreateVersion(ctx context.Context, projectID string, prev, next []models.VersionableSection, kind models.ChangeKind, summary, authorID string) (int, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	patch, err := Diff(prev, next)
	if err != nil {
		return 0, &domain.VersionError{Op: "diff", Err: err}
	}

	count, err := s.versions.Count(ctx, projectID)
	if err != nil {
		return 0, &domain.VersionError{Op: "count", Err: err}
	}

	if len(patch) == 0 {
		s.logger.Debug("skipping empty version", "project_id", projectID, "current_version", count)
		return count, nil
	}

	v := &models.Version{
		ProjectID:     projectID,
		VersionNumber: count + 1,
		Patch:         patch,
		AuthorID:      authorID,
		ChangeKind:    kind,
		Summary:       summary,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.versions.Append(ctx, v); err != nil {
		return 0, &domain.VersionError{Op: "append", Err: err}
	}

	s.logger.Info("version recorded",
		"project_id", projectID,
		"version", v.VersionNumber,
		"change_kind", kind,
		"ops", len(patch),
	)
	return v.VersionNumber, nil
}

// History lists all versions for a project, oldest first.
func (s *Service) History(ctx context.Context, projectID string) ([]services.HistoryEntry, error) {
	versions, err := s.versions.ListByProject(ctx, projectID)
	if err != nil {
		return nil, &domain.VersionError{Op: "history", Err: err}
	}

	entries := make([]services.HistoryEntry, 0, len(versions))
	for _, v := range versions {
		entries = append(entries, services.HistoryEntry{
			Version:    v.VersionNumber,
			ChangeKind: v.ChangeKind,
			Summary:    v.Summary,
			AuthorID:   v.AuthorID,
			CreatedAt:  v.CreatedAt,
			PatchSize:  len(v.Patch),
		})
	}
	return entries, nil
}

// ContentAtVersion reconstructs the snapshot at a version number by
// replaying patches forward from the empty tree. Version 1's patch is
// a diff from empty, so the replay is complete by construction.
// Targets beyond the latest version serve the latest state.
func (s *Service) ContentAtVersion(ctx context.Context, projectID string, target int) ([]models.VersionableSection, error) {
	versions, err := s.versions.ListByProject(ctx, projectID)
	if err != nil {
		return nil, &domain.VersionError{Op: "reconstruct", Err: err}
	}
	if target < 1 || len(versions) == 0 {
		return nil, &domain.VersionError{
			Op:  "reconstruct",
			Err: fmt.Errorf("version %d out of range [1, %d]: %w", target, len(versions), domain.ErrNotFound),
		}
	}
	if target > len(versions) {
		target = len(versions)
	}

	snapshot := []models.VersionableSection{}
	for _, v := range versions {
		if v.VersionNumber > target {
			break
		}
		snapshot, err = Apply(snapshot, v.Patch)
		if err != nil {
			return nil, &domain.VersionError{
				Op:  "reconstruct",
				Err: fmt.Errorf("apply version %d: %w", v.VersionNumber, err),
			}
		}
	}
	return snapshot, nil
}

// ContentAtVersionBackward reconstructs the same snapshot as
// ContentAtVersion but walks the other way: it starts from the working
// copy and unwinds patches newest-first with Invert. The two paths
// share no replay code, so agreement between them is a cross-check on
// the patch log.
func (s *Service) ContentAtVersionBackward(ctx context.Context, projectID string, target int) ([]models.VersionableSection, error) {
	versions, err := s.versions.ListByProject(ctx, projectID)
	if err != nil {
		return nil, &domain.VersionError{Op: "unwind", Err: err}
	}
	if target < 1 || len(versions) == 0 {
		return nil, &domain.VersionError{
			Op:  "unwind",
			Err: fmt.Errorf("version %d out of range [1, %d]: %w", target, len(versions), domain.ErrNotFound),
		}
	}
	if target > len(versions) {
		target = len(versions)
	}

	persisted, err := s.sections.ListByProject(ctx, projectID)
	if err != nil {
		return nil, &domain.VersionError{Op: "unwind", Err: err}
	}
	head := make([]models.VersionableSection, 0, len(persisted))
	for _, sec := range persisted {
		head = append(head, models.VersionableFromSection(sec))
	}
	snapshot := sortSnapshot(head)

	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		if v.VersionNumber <= target {
			break
		}
		snapshot, err = Apply(snapshot, Invert(v.Patch))
		if err != nil {
			return nil, &domain.VersionError{
				Op:  "unwind",
				Err: fmt.Errorf("unwind version %d: %w", v.VersionNumber, err),
			}
		}
	}
	return snapshot, nil
}

// Compare computes the patch transforming the snapshot at from into
// the snapshot at to. Comparing a version with itself yields an empty
// patch.
func (s *Service) Compare(ctx context.Context, projectID string, from, to int) (*services.Comparison, error) {
	fromSnap, err := s.ContentAtVersion(ctx, projectID, from)
	if err != nil {
		return nil, err
	}
	toSnap, err := s.ContentAtVersion(ctx, projectID, to)
	if err != nil {
		return nil, err
	}

	patch, err := Diff(fromSnap, toSnap)
	if err != nil {
		return nil, &domain.VersionError{Op: "compare", Err: err}
	}
	if patch == nil {
		patch = models.Patch{}
	}

	return &services.Comparison{
		From:        from,
		To:          to,
		Patch:       patch,
		ChangeCount: len(patch),
	}, nil
}

// Rollback restores the snapshot at the target version by recording it
// as a new version on top of history. Nothing is rewritten, so the
// rollback itself can be rolled back. Sections created after the
// target keep their current state; deletions since the target are not
// replayed either. Restored values are written through to the working
// copy.
func (s *Service) Rollback(ctx context.Context, projectID string, target int, authorID string) (int, error) {
	targetSnap, err := s.ContentAtVersion(ctx, projectID, target)
	if err != nil {
		return 0, err
	}

	count, err := s.versions.Count(ctx, projectID)
	if err != nil {
		return 0, &domain.VersionError{Op: "rollback", Err: err}
	}
	current, err := s.ContentAtVersion(ctx, projectID, count)
	if err != nil {
		return 0, err
	}

	targetByKey := make(map[string]models.VersionableSection, len(targetSnap))
	for _, sec := range targetSnap {
		targetByKey[sec.SectionKey] = sec
	}
	merged := make([]models.VersionableSection, len(current))
	for i, sec := range current {
		if restored, ok := targetByKey[sec.SectionKey]; ok {
			merged[i] = restored
		} else {
			merged[i] = sec
		}
	}

	summary := fmt.Sprintf("Rolled back to version %d", target)
	newVersion, err := s.CreateVersion(ctx, projectID, current, merged, models.ChangeKindEdit, summary, authorID)
	if err != nil {
		return 0, err
	}
	if newVersion == count {
		// Already at the target state, nothing to restore.
		return newVersion, nil
	}

	if err := s.restoreSections(ctx, projectID, targetByKey, newVersion); err != nil {
		return 0, err
	}
	return newVersion, nil
}

// restoreSections overwrites the persisted sections that existed at
// the rollback target with their restored values.
func (s *Service) restoreSections(ctx context.Context, projectID string, targetByKey map[string]models.VersionableSection, newVersion int) error {
	persisted, err := s.sections.ListByProject(ctx, projectID)
	if err != nil {
		return &domain.VersionError{Op: "rollback", Err: err}
	}
	for i := range persisted {
		restored, ok := targetByKey[persisted[i].SectionKey]
		if !ok {
			continue
		}
		persisted[i].Title = restored.Title
		persisted[i].Content = restored.Content
		persisted[i].Sources = restored.Sources
		persisted[i].Status = restored.Status
		persisted[i].Version = newVersion
		if err := s.sections.Update(ctx, &persisted[i]); err != nil {
			return &domain.VersionError{Op: "rollback", Err: err}
		}
	}
	return nil
}
