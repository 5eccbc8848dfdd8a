// Package project manages advice projects and their uploaded source
// documents.
package project

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

// projectService implements the ProjectService interface
type projectService struct {
	projects  repositories.ProjectRepository
	documents repositories.DocumentRepository
	logger    *slog.Logger
}

// NewService creates a new project service
func NewService(
	projects repositories.ProjectRepository,
	documents repositories.DocumentRepository,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projects:  projects,
		documents: documents,
		logger:    logger,
	}
}

// Create creates a new draft project.
func (s *projectService) Create(ctx context.Context, req *services.CreateProjectRequest) (*models.Project, error) {
	if err := validateCreate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now().UTC()
	project := &models.Project{
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created", "project_id", project.ID, "owner_id", req.OwnerID)
	return project, nil
}

// Get retrieves a project scoped to its owner.
func (s *projectService) Get(ctx context.Context, projectID, ownerID string) (*models.Project, error) {
	return s.projects.GetByID(ctx, projectID, ownerID)
}

// List retrieves all projects for an owner.
func (s *projectService) List(ctx context.Context, ownerID string) ([]models.Project, error) {
	return s.projects.List(ctx, ownerID)
}

// UploadDocument registers one parsed source document for a project.
func (s *projectService) UploadDocument(ctx context.Context, req *services.UploadDocumentRequest) (*models.Document, error) {
	if err := validateUpload(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc := &models.Document{
		ProjectID:     req.ProjectID,
		Name:          req.Name,
		FileType:      req.FileType,
		ParsedContent: req.Content,
		UploadedAt:    time.Now().UTC(),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document uploaded",
		"project_id", req.ProjectID, "document_id", doc.ID,
		"name", doc.Name, "chars", len(req.Content))
	return doc, nil
}

// ListDocuments retrieves all source documents for a project.
func (s *projectService) ListDocuments(ctx context.Context, projectID string) ([]models.Document, error) {
	return s.documents.ListByProject(ctx, projectID)
}

func validateCreate(req *services.CreateProjectRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxProjectNameLength),
		),
	)
}

func validateUpload(req *services.UploadDocumentRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxDocumentNameLength),
		),
		validation.Field(&req.FileType,
			validation.Required,
			validation.In("pdf", "docx", "txt", "md"),
		),
		validation.Field(&req.Content,
			validation.Required,
			validation.Length(1, config.MaxDocumentContentLength),
		),
	)
}
