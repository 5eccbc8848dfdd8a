package services

import (
	"context"
	"time"

	"soaforge/internal/domain/models"
)

// HistoryEntry is a lightweight view of one version for listings.
type HistoryEntry struct {
	Version    int               `json:"version"`
	ChangeKind models.ChangeKind `json:"change_kind"`
	Summary    string            `json:"summary"`
	AuthorID   string            `json:"author_id"`
	CreatedAt  time.Time         `json:"created_at"`
	PatchSize  int               `json:"patch_size"`
}

// Comparison describes the delta between two versions as a patch that
// transforms the older snapshot into the newer one.
type Comparison struct {
	From        int           `json:"from"`
	To          int           `json:"to"`
	Patch       models.Patch  `json:"patch"`
	ChangeCount int           `json:"change_count"`
}

// VersionService records and reconstructs document history.
//
// Version numbers are 1-based and dense per project. Reconstruction of
// any historical version is exact: patches carry the prior values they
// overwrote, so walking backward from the current snapshot and walking
// forward from version 1 agree.
type VersionService interface {
	// CreateVersion diffs prev against next, appends a version with the
	// resulting patch and returns the new version number. A diff with
	// no operations returns the current version number unchanged.
	CreateVersion(ctx context.Context, projectID string, prev, next []models.VersionableSection, kind models.ChangeKind, summary, authorID string) (int, error)

	// History lists all versions for a project, oldest first.
	History(ctx context.Context, projectID string) ([]HistoryEntry, error)

	// ContentAtVersion reconstructs the full section snapshot as it was
	// at the given version number.
	ContentAtVersion(ctx context.Context, projectID string, version int) ([]models.VersionableSection, error)

	// Compare computes the delta between two version numbers.
	Compare(ctx context.Context, projectID string, from, to int) (*Comparison, error)

	// Rollback restores the snapshot at the target version by applying
	// it as a new version on top of history; nothing is rewritten.
	// Returns the new version number.
	Rollback(ctx context.Context, projectID string, target int, authorID string) (int, error)
}
