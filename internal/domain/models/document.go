package models

import "time"

// Document is a source document attached to a project. Text extraction
// happens upstream; the row stores the already-parsed content the
// generation step reads from.
type Document struct {
	ID            string    `json:"id" db:"id"`
	ProjectID     string    `json:"project_id" db:"project_id"`
	Name          string    `json:"name" db:"name"`
	FileType      string    `json:"file_type" db:"file_type"`
	ParsedContent string    `json:"parsed_content" db:"parsed_content"`
	UploadedAt    time.Time `json:"uploaded_at" db:"uploaded_at"`
}
