package models

import "time"

// CommentStatus tracks whether a review comment is still open.
type CommentStatus string

const (
	CommentOpen     CommentStatus = "open"
	CommentResolved CommentStatus = "resolved"
)

// Comment is reviewer feedback attached to a section row. Orthogonal to
// version control: comments never appear in patches.
type Comment struct {
	ID        string        `json:"id" db:"id"`
	SectionID string        `json:"section_id" db:"section_id"`
	AuthorID  string        `json:"author_id" db:"author_id"`
	Body      string        `json:"body" db:"body"`
	Status    CommentStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}
