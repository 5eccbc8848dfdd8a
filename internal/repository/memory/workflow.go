package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
)

// WorkflowRepository is an in-memory WorkflowRepository.
type WorkflowRepository struct {
	store *Store
}

// NewWorkflowRepository creates an in-memory workflow repository.
func NewWorkflowRepository(store *Store) repositories.WorkflowRepository {
	return &WorkflowRepository{store: store}
}

func (r *WorkflowRepository) Create(ctx context.Context, state *models.WorkflowState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.workflows[state.ProjectID]; exists {
		return &domain.ConflictError{
			Message:      "workflow already exists for this project",
			ResourceType: "workflow_state",
			ResourceID:   state.ProjectID,
		}
	}

	if state.ID == "" {
		state.ID = uuid.NewString()
	}
	state.UpdatedAt = time.Now().UTC()

	r.store.workflows[state.ProjectID] = copyWorkflowState(state)
	return nil
}

func (r *WorkflowRepository) GetByProject(ctx context.Context, projectID string) (*models.WorkflowState, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	state, ok := r.store.workflows[projectID]
	if !ok {
		return nil, fmt.Errorf("workflow for project %s: %w", projectID, domain.ErrNotFound)
	}
	return copyWorkflowState(state), nil
}

func (r *WorkflowRepository) Update(ctx context.Context, state *models.WorkflowState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.workflows[state.ProjectID]
	if !ok {
		return fmt.Errorf("workflow for project %s: %w", state.ProjectID, domain.ErrNotFound)
	}

	state.ID = existing.ID
	state.UpdatedAt = time.Now().UTC()
	r.store.workflows[state.ProjectID] = copyWorkflowState(state)
	return nil
}

func copyWorkflowState(state *models.WorkflowState) *models.WorkflowState {
	cp := *state
	cp.StepStatuses = state.StepStatuses.Clone()
	if state.RunHandle != nil {
		h := *state.RunHandle
		cp.RunHandle = &h
	}
	return &cp
}
