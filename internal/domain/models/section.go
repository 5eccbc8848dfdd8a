package models

import "time"

// SectionStatus tracks a section through generation and review.
type SectionStatus string

const (
	SectionStatusPending   SectionStatus = "pending"
	SectionStatusGenerated SectionStatus = "generated"
	SectionStatusReviewed  SectionStatus = "reviewed"
	SectionStatusApproved  SectionStatus = "approved"
)

// ContentType describes the shape of a section's content.
type ContentType string

const (
	ContentTypeText    ContentType = "text"
	ContentTypeTable   ContentType = "table"
	ContentTypeBullets ContentType = "bullets"
	ContentTypeMixed   ContentType = "mixed"
)

// Table is a simple rectangular table inside section content.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// SectionContent holds the free-form content of a section. Any
// combination of the three fields may be populated depending on the
// section's content type.
type SectionContent struct {
	Text    string   `json:"text,omitempty"`
	Tables  []Table  `json:"tables,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
}

// IsEmpty reports whether the content carries nothing renderable.
func (c SectionContent) IsEmpty() bool {
	return c.Text == "" && len(c.Tables) == 0 && len(c.Bullets) == 0
}

// SourceRef attributes a piece of section content to a source document.
type SourceRef struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	Excerpt      string `json:"excerpt"`
	Location     string `json:"location,omitempty"`
}

// Section is a node in the hierarchical advice document tree.
// SectionKey encodes the node's place in the hierarchy
// (e.g. "M3", "M3_S1", "M3_S7_SS1") and is unique per project.
type Section struct {
	ID            string         `json:"id" db:"id"`
	ProjectID     string         `json:"project_id" db:"project_id"`
	SectionKey    string         `json:"section_key" db:"section_key"`
	ParentKey     *string        `json:"parent_key,omitempty" db:"parent_key"`
	Title         string         `json:"title" db:"title"`
	ContentType   ContentType    `json:"content_type" db:"content_type"`
	Content       SectionContent `json:"content" db:"content"`
	Sources       []SourceRef    `json:"sources" db:"sources"`
	MissingFields []string       `json:"missing_fields" db:"missing_fields"`
	Status        SectionStatus  `json:"status" db:"status"`
	Version       int            `json:"version" db:"version"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}
