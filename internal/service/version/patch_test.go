package version

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
)

func textSection(key, title, text string, status models.SectionStatus) models.VersionableSection {
	return models.VersionableSection{
		SectionKey: key,
		Title:      title,
		Content:    models.SectionContent{Text: text},
		Status:     status,
	}
}

func TestDiff_AddRemoveReplace(t *testing.T) {
	prev := []models.VersionableSection{
		textSection("M1", "Client Background", "old text", models.SectionStatusGenerated),
		textSection("M2", "Summary of Advice", "gone", models.SectionStatusGenerated),
	}
	next := []models.VersionableSection{
		textSection("M1", "Client Background", "new text", models.SectionStatusReviewed),
		textSection("M3", "Client Profile", "fresh", models.SectionStatusGenerated),
	}

	patch, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	// M1 content + status replace, M2 remove, M3 add.
	if len(patch) != 4 {
		t.Fatalf("expected 4 ops, got %d: %+v", len(patch), patch)
	}

	wantPaths := []string{"/M1/content", "/M1/status", "/M2", "/M3"}
	for i, want := range wantPaths {
		if patch[i].Path != want {
			t.Errorf("op %d: path = %q, want %q", i, patch[i].Path, want)
		}
	}

	if patch[2].Op != models.PatchOpRemove {
		t.Errorf("op 2: op = %q, want remove", patch[2].Op)
	}
	if len(patch[2].Prior) == 0 {
		t.Error("remove op must carry the prior section")
	}
	if patch[3].Op != models.PatchOpAdd {
		t.Errorf("op 3: op = %q, want add", patch[3].Op)
	}

	var removed models.VersionableSection
	if err := json.Unmarshal(patch[2].Prior, &removed); err != nil {
		t.Fatalf("decode remove prior: %v", err)
	}
	if removed.Content.Text != "gone" {
		t.Errorf("remove prior content = %q, want %q", removed.Content.Text, "gone")
	}
}

func TestDiff_Empty(t *testing.T) {
	snap := []models.VersionableSection{
		textSection("M1", "Client Background", "same", models.SectionStatusGenerated),
	}

	patch, err := Diff(snap, snap)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(patch) != 0 {
		t.Fatalf("identical snapshots should diff to nothing, got %+v", patch)
	}
}

func TestDiff_OrderIsNumeric(t *testing.T) {
	var next []models.VersionableSection
	for _, key := range []string{"M10", "M2", "M3_S1", "M1"} {
		next = append(next, textSection(key, key, "x", models.SectionStatusGenerated))
	}

	patch, err := Diff(nil, next)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	wantPaths := []string{"/M1", "/M2", "/M3_S1", "/M10"}
	for i, want := range wantPaths {
		if patch[i].Path != want {
			t.Errorf("op %d: path = %q, want %q", i, patch[i].Path, want)
		}
	}
}

func TestApply_RoundTrip(t *testing.T) {
	prev := []models.VersionableSection{
		textSection("M1", "Client Background", "one", models.SectionStatusGenerated),
		textSection("M3_S1", "Personal Details", "two", models.SectionStatusGenerated),
		textSection("M3_S2", "Income Details", "three", models.SectionStatusReviewed),
	}
	next := []models.VersionableSection{
		textSection("M1", "Client Background", "one edited", models.SectionStatusReviewed),
		textSection("M3_S2", "Income Details", "three", models.SectionStatusReviewed),
		textSection("M5", "Recommendations", "brand new", models.SectionStatusGenerated),
	}

	patch, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	got, err := Apply(prev, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(got, next) {
		t.Errorf("forward apply mismatch:\n got  %+v\n want %+v", got, next)
	}

	back, err := Apply(next, Invert(patch))
	if err != nil {
		t.Fatalf("Apply inverse: %v", err)
	}
	if !reflect.DeepEqual(back, prev) {
		t.Errorf("backward apply mismatch:\n got  %+v\n want %+v", back, prev)
	}
}

func TestInvert_Involution(t *testing.T) {
	prev := []models.VersionableSection{
		textSection("M1", "Client Background", "a", models.SectionStatusGenerated),
	}
	next := []models.VersionableSection{
		textSection("M1", "Client Background", "b", models.SectionStatusReviewed),
		textSection("M2", "Summary of Advice", "c", models.SectionStatusGenerated),
	}

	patch, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	again := Invert(Invert(patch))
	if !reflect.DeepEqual(again, patch) {
		t.Errorf("double inversion changed the patch:\n got  %+v\n want %+v", again, patch)
	}
}

func TestApply_StructuralMismatch(t *testing.T) {
	snap := []models.VersionableSection{
		textSection("M1", "Client Background", "a", models.SectionStatusGenerated),
	}

	value, _ := json.Marshal(textSection("M1", "Client Background", "a", models.SectionStatusGenerated))

	tests := []struct {
		name string
		op   models.PatchOp
	}{
		{
			name: "add over existing key",
			op:   models.PatchOp{Op: models.PatchOpAdd, Path: "/M1", Value: value},
		},
		{
			name: "remove missing key",
			op:   models.PatchOp{Op: models.PatchOpRemove, Path: "/M9"},
		},
		{
			name: "replace on missing key",
			op:   models.PatchOp{Op: models.PatchOpReplace, Path: "/M9/title", Value: []byte(`"x"`)},
		},
		{
			name: "malformed path",
			op:   models.PatchOp{Op: models.PatchOpRemove, Path: "M1"},
		},
		{
			name: "unknown op",
			op:   models.PatchOp{Op: "move", Path: "/M1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(snap, models.Patch{tt.op})
			if !errors.Is(err, domain.ErrInvalidState) {
				t.Errorf("expected ErrInvalidState, got %v", err)
			}
		})
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	prev := []models.VersionableSection{
		textSection("M1", "Client Background", "original", models.SectionStatusGenerated),
	}
	next := []models.VersionableSection{
		textSection("M1", "Client Background", "changed", models.SectionStatusGenerated),
	}

	patch, err := Diff(prev, next)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if _, err := Apply(prev, patch); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if prev[0].Content.Text != "original" {
		t.Errorf("input snapshot mutated: %q", prev[0].Content.Text)
	}
}
