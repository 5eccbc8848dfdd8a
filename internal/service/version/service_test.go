package version

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/repository/memory"
)

func newTestService() *Service {
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(memory.NewVersionRepository(store), memory.NewSectionRepository(store), logger)
}

func TestCreateVersion_DenseNumbering(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	projectID := "p1"

	empty := []models.VersionableSection{}
	v1 := []models.VersionableSection{
		textSection("M1", "Client Background", "first", models.SectionStatusGenerated),
	}
	v2 := []models.VersionableSection{
		textSection("M1", "Client Background", "second", models.SectionStatusReviewed),
	}

	n, err := svc.CreateVersion(ctx, projectID, empty, v1, models.ChangeKindGeneration, "Generated sections", "advisor-1")
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if n != 1 {
		t.Fatalf("first version = %d, want 1", n)
	}

	n, err = svc.CreateVersion(ctx, projectID, v1, v2, models.ChangeKindEdit, "Edited M1", "advisor-1")
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if n != 2 {
		t.Fatalf("second version = %d, want 2", n)
	}
}

func TestCreateVersion_EmptyDiffRecordsNothing(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	projectID := "p1"

	snap := []models.VersionableSection{
		textSection("M1", "Client Background", "same", models.SectionStatusGenerated),
	}

	if _, err := svc.CreateVersion(ctx, projectID, nil, snap, models.ChangeKindGeneration, "Generated", "advisor-1"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	n, err := svc.CreateVersion(ctx, projectID, snap, snap, models.ChangeKindEdit, "No-op save", "advisor-1")
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if n != 1 {
		t.Fatalf("no-op save returned version %d, want 1", n)
	}

	history, err := svc.History(ctx, projectID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
}

func TestContentAtVersion_ForwardAndBackwardAgree(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sectionRepo := memory.NewSectionRepository(store)
	svc := NewService(memory.NewVersionRepository(store), sectionRepo, logger)
	projectID := "p1"

	snapshots := [][]models.VersionableSection{
		{
			textSection("M1", "Client Background", "v1", models.SectionStatusGenerated),
			textSection("M2", "Summary of Advice", "v1", models.SectionStatusGenerated),
		},
		{
			textSection("M1", "Client Background", "v2 edited", models.SectionStatusReviewed),
			textSection("M2", "Summary of Advice", "v1", models.SectionStatusGenerated),
			textSection("M5", "Recommendations", "added", models.SectionStatusGenerated),
		},
		{
			textSection("M1", "Client Background", "v2 edited", models.SectionStatusReviewed),
			textSection("M5", "Recommendations", "added", models.SectionStatusGenerated),
		},
	}

	prev := []models.VersionableSection{}
	for i, next := range snapshots {
		if _, err := svc.CreateVersion(ctx, projectID, prev, next, models.ChangeKindEdit, "change", "advisor-1"); err != nil {
			t.Fatalf("CreateVersion %d: %v", i+1, err)
		}
		prev = next
	}

	// Forward reconstruction of every version matches the snapshot it was
	// created from.
	for i, want := range snapshots {
		got, err := svc.ContentAtVersion(ctx, projectID, i+1)
		if err != nil {
			t.Fatalf("ContentAtVersion(%d): %v", i+1, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("version %d:\n got  %+v\n want %+v", i+1, got, want)
		}
	}

	// Backward unwind starts from the working copy, so mirror the latest
	// snapshot into the section repository the way edits would have.
	for _, sec := range snapshots[len(snapshots)-1] {
		if err := sectionRepo.Create(ctx, &models.Section{
			ProjectID:  projectID,
			SectionKey: sec.SectionKey,
			Title:      sec.Title,
			Content:    sec.Content,
			Sources:    sec.Sources,
			Status:     sec.Status,
			Version:    len(snapshots),
		}); err != nil {
			t.Fatalf("Create %s: %v", sec.SectionKey, err)
		}
	}

	for i := range snapshots {
		forward, err := svc.ContentAtVersion(ctx, projectID, i+1)
		if err != nil {
			t.Fatalf("ContentAtVersion(%d): %v", i+1, err)
		}
		backward, err := svc.ContentAtVersionBackward(ctx, projectID, i+1)
		if err != nil {
			t.Fatalf("ContentAtVersionBackward(%d): %v", i+1, err)
		}
		if !reflect.DeepEqual(forward, backward) {
			t.Errorf("version %d: forward and backward reconstructions differ:\n forward  %+v\n backward %+v", i+1, forward, backward)
		}
	}
}

func TestContentAtVersion_OutOfRange(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.ContentAtVersion(ctx, "p1", 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty history, got %v", err)
	}

	snap := []models.VersionableSection{
		textSection("M1", "Client Background", "x", models.SectionStatusGenerated),
	}
	if _, err := svc.CreateVersion(ctx, "p1", nil, snap, models.ChangeKindGeneration, "Generated", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	for _, target := range []int{0, -1} {
		if _, err := svc.ContentAtVersion(ctx, "p1", target); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("version %d: expected ErrNotFound, got %v", target, err)
		}
	}

	// A target beyond the latest version serves the latest state.
	got, err := svc.ContentAtVersion(ctx, "p1", 7)
	if err != nil {
		t.Fatalf("ContentAtVersion(7): %v", err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("over-range target:\n got  %+v\n want %+v", got, snap)
	}
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	projectID := "p1"

	v1 := []models.VersionableSection{
		textSection("M1", "Client Background", "one", models.SectionStatusGenerated),
	}
	v2 := []models.VersionableSection{
		textSection("M1", "Client Background", "two", models.SectionStatusGenerated),
		textSection("M2", "Summary of Advice", "new", models.SectionStatusGenerated),
	}

	if _, err := svc.CreateVersion(ctx, projectID, nil, v1, models.ChangeKindGeneration, "Generated", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if _, err := svc.CreateVersion(ctx, projectID, v1, v2, models.ChangeKindEdit, "Edited", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	cmp, err := svc.Compare(ctx, projectID, 1, 2)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.ChangeCount != 2 {
		t.Errorf("ChangeCount = %d, want 2", cmp.ChangeCount)
	}

	// Applying the comparison patch to the older snapshot yields the newer.
	got, err := Apply(v1, cmp.Patch)
	if err != nil {
		t.Fatalf("Apply comparison patch: %v", err)
	}
	if !reflect.DeepEqual(got, v2) {
		t.Errorf("comparison patch does not transform v1 into v2")
	}

	same, err := svc.Compare(ctx, projectID, 2, 2)
	if err != nil {
		t.Fatalf("Compare same: %v", err)
	}
	if same.ChangeCount != 0 {
		t.Errorf("self-comparison ChangeCount = %d, want 0", same.ChangeCount)
	}
}

func TestRollback_AppendsNewVersion(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	projectID := "p1"

	v1 := []models.VersionableSection{
		textSection("M1", "Client Background", "original", models.SectionStatusGenerated),
	}
	v2 := []models.VersionableSection{
		textSection("M1", "Client Background", "heavily edited", models.SectionStatusReviewed),
	}

	if _, err := svc.CreateVersion(ctx, projectID, nil, v1, models.ChangeKindGeneration, "Generated", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if _, err := svc.CreateVersion(ctx, projectID, v1, v2, models.ChangeKindEdit, "Edited", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	n, err := svc.Rollback(ctx, projectID, 1, "advisor-1")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if n != 3 {
		t.Fatalf("rollback version = %d, want 3 (history is append-only)", n)
	}

	restored, err := svc.ContentAtVersion(ctx, projectID, 3)
	if err != nil {
		t.Fatalf("ContentAtVersion: %v", err)
	}
	if !reflect.DeepEqual(restored, v1) {
		t.Errorf("rollback result:\n got  %+v\n want %+v", restored, v1)
	}

	// Prior versions are untouched.
	still, err := svc.ContentAtVersion(ctx, projectID, 2)
	if err != nil {
		t.Fatalf("ContentAtVersion(2): %v", err)
	}
	if !reflect.DeepEqual(still, v2) {
		t.Errorf("rollback rewrote history at version 2")
	}
}

func TestRollback_LeavesLaterAdditionsAlone(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	projectID := "p1"

	v1 := []models.VersionableSection{
		textSection("M1", "Client Background", "original", models.SectionStatusGenerated),
	}
	v2 := []models.VersionableSection{
		textSection("M1", "Client Background", "edited", models.SectionStatusReviewed),
		textSection("M2", "Scope of Advice", "added later", models.SectionStatusReviewed),
	}

	if _, err := svc.CreateVersion(ctx, projectID, nil, v1, models.ChangeKindGeneration, "Generated", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if _, err := svc.CreateVersion(ctx, projectID, v1, v2, models.ChangeKindEdit, "Edited", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	n, err := svc.Rollback(ctx, projectID, 1, "a")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	restored, err := svc.ContentAtVersion(ctx, projectID, n)
	if err != nil {
		t.Fatalf("ContentAtVersion: %v", err)
	}
	want := []models.VersionableSection{
		textSection("M1", "Client Background", "original", models.SectionStatusGenerated),
		textSection("M2", "Scope of Advice", "added later", models.SectionStatusReviewed),
	}
	if !reflect.DeepEqual(restored, want) {
		t.Errorf("rollback result:\n got  %+v\n want %+v", restored, want)
	}
}

func TestRollback_RestoresWorkingCopy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sectionRepo := memory.NewSectionRepository(store)
	svc := NewService(memory.NewVersionRepository(store), sectionRepo, logger)
	projectID := "p1"

	if err := sectionRepo.Create(ctx, &models.Section{
		ProjectID:  projectID,
		SectionKey: "M1",
		Title:      "Client Background",
		Content:    models.SectionContent{Text: "edited"},
		Status:     models.SectionStatusReviewed,
		Version:    2,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	v1 := []models.VersionableSection{
		textSection("M1", "Client Background", "original", models.SectionStatusGenerated),
	}
	v2 := []models.VersionableSection{
		textSection("M1", "Client Background", "edited", models.SectionStatusReviewed),
	}
	if _, err := svc.CreateVersion(ctx, projectID, nil, v1, models.ChangeKindGeneration, "Generated", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if _, err := svc.CreateVersion(ctx, projectID, v1, v2, models.ChangeKindEdit, "Edited", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	n, err := svc.Rollback(ctx, projectID, 1, "a")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	sec, err := sectionRepo.GetByKey(ctx, projectID, "M1")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if sec.Content.Text != "original" {
		t.Errorf("working copy content = %q, want %q", sec.Content.Text, "original")
	}
	if sec.Status != models.SectionStatusGenerated {
		t.Errorf("working copy status = %q, want %q", sec.Status, models.SectionStatusGenerated)
	}
	if sec.Version != n {
		t.Errorf("working copy version = %d, want %d", sec.Version, n)
	}
}

func TestRollback_ToCurrentIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	projectID := "p1"

	v1 := []models.VersionableSection{
		textSection("M1", "Client Background", "x", models.SectionStatusGenerated),
	}
	if _, err := svc.CreateVersion(ctx, projectID, nil, v1, models.ChangeKindGeneration, "Generated", "a"); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}

	n, err := svc.Rollback(ctx, projectID, 1, "a")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if n != 1 {
		t.Errorf("rollback to current = version %d, want 1 (no new version)", n)
	}
}
