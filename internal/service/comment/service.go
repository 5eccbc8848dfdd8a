// Package comment manages reviewer feedback on sections. Comments live
// beside the document and never enter the version log.
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"soaforge/internal/config"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
	"soaforge/internal/domain/services"
)

// commentService implements the CommentService interface
type commentService struct {
	comments repositories.CommentRepository
	sections repositories.SectionRepository
	logger   *slog.Logger
}

// NewService creates a new comment service
func NewService(
	comments repositories.CommentRepository,
	sections repositories.SectionRepository,
	logger *slog.Logger,
) services.CommentService {
	return &commentService{
		comments: comments,
		sections: sections,
		logger:   logger,
	}
}

// Create opens a comment against a section, addressed by its key.
func (s *commentService) Create(ctx context.Context, req *services.CreateCommentRequest) (*models.Comment, error) {
	if err := validateCreate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	section, err := s.sections.GetByKey(ctx, req.ProjectID, req.SectionKey)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		SectionID: section.ID,
		AuthorID:  req.AuthorID,
		Body:      req.Body,
		Status:    models.CommentOpen,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("comment created",
		"project_id", req.ProjectID, "section_key", req.SectionKey,
		"comment_id", comment.ID, "author_id", req.AuthorID)
	return comment, nil
}

// ListBySection retrieves comments for a section, oldest first.
func (s *commentService) ListBySection(ctx context.Context, projectID, sectionKey string) ([]models.Comment, error) {
	section, err := s.sections.GetByKey(ctx, projectID, sectionKey)
	if err != nil {
		return nil, err
	}
	return s.comments.ListBySection(ctx, section.ID)
}

// Resolve marks a comment resolved.
func (s *commentService) Resolve(ctx context.Context, commentID, actorID string) (*models.Comment, error) {
	comment, err := s.comments.Resolve(ctx, commentID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("comment resolved", "comment_id", commentID, "actor_id", actorID)
	return comment, nil
}

func validateCreate(req *services.CreateCommentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.SectionKey, validation.Required),
		validation.Field(&req.Body,
			validation.Required,
			validation.Length(1, config.MaxCommentLength),
		),
	)
}
