package repositories

import (
	"context"

	"soaforge/internal/domain/models"
)

// WorkflowRepository defines data access for the single workflow state
// row per project. All reads and writes for one project go through that
// row, so row-level consistency serializes pollers against step writes.
type WorkflowRepository interface {
	// Create inserts the state row; returns domain.ErrConflict if one
	// already exists for the project (the 1:1 constraint)
	Create(ctx context.Context, state *models.WorkflowState) error

	// GetByProject retrieves the state row for a project
	GetByProject(ctx context.Context, projectID string) (*models.WorkflowState, error)

	// Update persists current_step, step_statuses and run_handle
	Update(ctx context.Context, state *models.WorkflowState) error
}
