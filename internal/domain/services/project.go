package services

import (
	"context"

	"soaforge/internal/domain/models"
)

// CreateProjectRequest carries the fields a client supplies when
// opening a new advice project.
type CreateProjectRequest struct {
	OwnerID     string  `json:"-"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// UploadDocumentRequest attaches one parsed source document to a
// project. Content is the extracted plain text, not the raw file.
type UploadDocumentRequest struct {
	ProjectID string `json:"-"`
	Name      string `json:"name"`
	FileType  string `json:"file_type"`
	Content   string `json:"content"`
}

// CreateCommentRequest opens a review comment against a section.
type CreateCommentRequest struct {
	ProjectID  string `json:"-"`
	AuthorID   string `json:"-"`
	SectionKey string `json:"section_key"`
	Body       string `json:"body"`
}

// ProjectService manages advice projects and their source documents.
type ProjectService interface {
	Create(ctx context.Context, req *CreateProjectRequest) (*models.Project, error)
	Get(ctx context.Context, projectID, ownerID string) (*models.Project, error)
	List(ctx context.Context, ownerID string) ([]models.Project, error)

	UploadDocument(ctx context.Context, req *UploadDocumentRequest) (*models.Document, error)
	ListDocuments(ctx context.Context, projectID string) ([]models.Document, error)
}

// CommentService manages review comments on sections.
type CommentService interface {
	Create(ctx context.Context, req *CreateCommentRequest) (*models.Comment, error)
	ListBySection(ctx context.Context, projectID, sectionKey string) ([]models.Comment, error)
	Resolve(ctx context.Context, commentID, actorID string) (*models.Comment, error)
}
