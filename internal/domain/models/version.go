package models

import (
	"encoding/json"
	"time"
)

// ChangeKind classifies what produced a version.
type ChangeKind string

const (
	ChangeKindGeneration ChangeKind = "generation"
	ChangeKindEdit       ChangeKind = "edit"
	ChangeKindApproval   ChangeKind = "approval"
)

// VersionableSection is the subset of Section fields that participates
// in diffing and reconstruction. ParentKey and ContentType are template
// metadata and are intentionally excluded from the diff domain.
type VersionableSection struct {
	SectionKey string         `json:"section_key"`
	Title      string         `json:"title"`
	Content    SectionContent `json:"content"`
	Sources    []SourceRef    `json:"sources"`
	Status     SectionStatus  `json:"status"`
}

// VersionableFromSection projects a section row into its diffable form.
func VersionableFromSection(s Section) VersionableSection {
	return VersionableSection{
		SectionKey: s.SectionKey,
		Title:      s.Title,
		Content:    s.Content,
		Sources:    s.Sources,
		Status:     s.Status,
	}
}

// Patch op kinds.
const (
	PatchOpAdd     = "add"
	PatchOpRemove  = "remove"
	PatchOpReplace = "replace"
)

// PatchOp is one structural operation in a patch. Paths address the
// section collection by key: "/M3_S1" for whole-section add/remove,
// "/M3_S1/title" (or /content, /sources, /status) for field replaces.
//
// Prior always carries the value being removed or overwritten, captured
// at patch-creation time. Without it the inverse of a remove or replace
// cannot be computed and backward reconstruction is unsound.
type PatchOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
	Prior json.RawMessage `json:"prior,omitempty"`
}

// Patch is an ordered list of structural operations describing the
// difference between two section collections.
type Patch []PatchOp

// Version is one immutable entry in a project's append-only version
// log. Applying every patch in order from the empty tree reproduces the
// current section state exactly.
type Version struct {
	ID            string     `json:"id" db:"id"`
	ProjectID     string     `json:"project_id" db:"project_id"`
	VersionNumber int        `json:"version_number" db:"version_number"`
	Patch         Patch      `json:"patch" db:"patch"`
	AuthorID      string     `json:"author_id" db:"author_id"`
	ChangeKind    ChangeKind `json:"change_kind" db:"change_kind"`
	Summary       string     `json:"summary" db:"summary"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
