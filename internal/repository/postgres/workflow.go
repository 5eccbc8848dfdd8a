package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
)

// PostgresWorkflowRepository implements the WorkflowRepository interface.
// One row per project; step_statuses is a JSONB map keyed step1..step6.
type PostgresWorkflowRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(config *RepositoryConfig) repositories.WorkflowRepository {
	return &PostgresWorkflowRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts the state row for a project
func (r *PostgresWorkflowRepository) Create(ctx context.Context, state *models.WorkflowState) error {
	statuses, err := json.Marshal(state.StepStatuses)
	if err != nil {
		return fmt.Errorf("encode step statuses: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, current_step, step_statuses, run_handle, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, updated_at
	`, r.tables.WorkflowStates)

	executor := GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		state.ProjectID,
		state.CurrentStep,
		statuses,
		state.RunHandle,
		state.UpdatedAt,
	).Scan(&state.ID, &state.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "workflow already exists for this project",
				ResourceType: "workflow_state",
				ResourceID:   state.ProjectID,
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s: %w", state.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create workflow state: %w", err)
	}

	return nil
}

// GetByProject retrieves the state row for a project
func (r *PostgresWorkflowRepository) GetByProject(ctx context.Context, projectID string) (*models.WorkflowState, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, current_step, step_statuses, run_handle, updated_at
		FROM %s
		WHERE project_id = $1
	`, r.tables.WorkflowStates)

	var (
		state    models.WorkflowState
		statuses []byte
	)
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, projectID).Scan(
		&state.ID,
		&state.ProjectID,
		&state.CurrentStep,
		&statuses,
		&state.RunHandle,
		&state.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("workflow for project %s: %w", projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get workflow state: %w", err)
	}

	if err := json.Unmarshal(statuses, &state.StepStatuses); err != nil {
		return nil, fmt.Errorf("decode step statuses: %w", err)
	}

	return &state, nil
}

// Update persists current_step, step_statuses and run_handle
func (r *PostgresWorkflowRepository) Update(ctx context.Context, state *models.WorkflowState) error {
	statuses, err := json.Marshal(state.StepStatuses)
	if err != nil {
		return fmt.Errorf("encode step statuses: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET current_step = $1, step_statuses = $2, run_handle = $3, updated_at = NOW()
		WHERE project_id = $4
		RETURNING updated_at
	`, r.tables.WorkflowStates)

	executor := GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		state.CurrentStep,
		statuses,
		state.RunHandle,
		state.ProjectID,
	).Scan(&state.UpdatedAt)

	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("workflow for project %s: %w", state.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("update workflow state: %w", err)
	}

	return nil
}
