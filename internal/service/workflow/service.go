// Package workflow drives a project's advice pipeline through its six
// persisted steps: document parsing, section generation, compliance
// validation, two human approval gates and finalization. All state
// lives in one row per project; consumers poll that row for progress.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"soaforge/internal/catalog"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
	"soaforge/internal/domain/services"
)

// Engine implements the WorkflowService interface.
type Engine struct {
	workflows repositories.WorkflowRepository
	projects  repositories.ProjectRepository
	documents repositories.DocumentRepository
	sections  repositories.SectionRepository
	sectSvc   services.SectionService
	versions  services.VersionService
	generator services.GenerationClient
	validator services.ComplianceValidator
	catalog   *catalog.Catalog
	logger    *slog.Logger

	mu     sync.Mutex
	active map[string]string // projectID -> run handle of the in-process run
}

// NewEngine creates a workflow engine.
func NewEngine(
	workflows repositories.WorkflowRepository,
	projects repositories.ProjectRepository,
	documents repositories.DocumentRepository,
	sections repositories.SectionRepository,
	sectSvc services.SectionService,
	versions services.VersionService,
	generator services.GenerationClient,
	validator services.ComplianceValidator,
	cat *catalog.Catalog,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		workflows: workflows,
		projects:  projects,
		documents: documents,
		sections:  sections,
		sectSvc:   sectSvc,
		versions:  versions,
		generator: generator,
		validator: validator,
		catalog:   cat,
		logger:    logger,
	}
}

var _ services.WorkflowService = (*Engine)(nil)

// StartOrResume begins or continues a run from the first non-completed
// step. Exactly one run per project may be active at a time.
func (e *Engine) StartOrResume(ctx context.Context, projectID, actorID string) (string, error) {
	state, err := e.workflows.GetByProject(ctx, projectID)
	if err != nil {
		state, err = e.createState(ctx, projectID, err)
		if err != nil {
			return "", err
		}
	}

	// A failed step is terminal; the operator resets before re-running.
	if failed := firstFailedStep(state); failed != 0 {
		return "", fmt.Errorf("step %d has failed, reset required before re-running: %w", failed, domain.ErrInvalidState)
	}

	e.mu.Lock()
	if e.active == nil {
		e.active = make(map[string]string)
	}
	if _, running := e.active[projectID]; running {
		e.mu.Unlock()
		return "", fmt.Errorf("project %s: %w", projectID, domain.ErrRunActive)
	}
	handle := uuid.NewString()
	e.active[projectID] = handle
	e.mu.Unlock()

	// A persisted handle with no in-process run is left over from a
	// crashed run; the new handle takes over.
	if state.RunHandle != nil {
		e.logger.Warn("taking over stale workflow run",
			"project_id", projectID, "stale_handle", *state.RunHandle)
	}

	state.RunHandle = &handle
	if err := e.workflows.Update(ctx, state); err != nil {
		e.release(projectID)
		return "", err
	}

	e.logger.Info("workflow run started",
		"project_id", projectID, "run_handle", handle, "actor_id", actorID,
		"current_step", state.StepStatuses.CurrentStep())
	return handle, nil
}

func (e *Engine) createState(ctx context.Context, projectID string, getErr error) (*models.WorkflowState, error) {
	if !isNotFound(getErr) {
		return nil, getErr
	}
	state := &models.WorkflowState{
		ProjectID:    projectID,
		CurrentStep:  models.StepParse,
		StepStatuses: models.NewStepStatuses(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := e.workflows.Create(ctx, state); err != nil {
		// Lost a race with a concurrent starter; reread theirs.
		if isConflict(err) {
			return e.workflows.GetByProject(ctx, projectID)
		}
		return nil, err
	}
	return state, nil
}

func (e *Engine) release(projectID string) {
	e.mu.Lock()
	delete(e.active, projectID)
	e.mu.Unlock()
}

// GetState returns the persisted workflow state.
func (e *Engine) GetState(ctx context.Context, projectID string) (*models.WorkflowState, error) {
	return e.workflows.GetByProject(ctx, projectID)
}

// Approve records a human approval for an awaiting step.
func (e *Engine) Approve(ctx context.Context, projectID string, step int, actorID string) (*services.ApprovalResult, error) {
	if step != models.StepApproval1 && step != models.StepApproval2 {
		return nil, fmt.Errorf("step %d is not an approval step: %w", step, domain.ErrInvalidState)
	}

	state, err := e.workflows.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if got := state.StepStatuses.Get(step); got != models.StepAwaitingApproval {
		return nil, fmt.Errorf("step %d is %s, not awaiting approval: %w", step, got, domain.ErrInvalidState)
	}

	state.StepStatuses.Set(step, models.StepCompleted)
	result := &services.ApprovalResult{
		ProjectID: projectID,
		Step:      step,
	}

	switch step {
	case models.StepApproval1:
		// The second gate is human work too; it opens immediately.
		state.StepStatuses.Set(models.StepApproval2, models.StepAwaitingApproval)
		state.CurrentStep = models.StepApproval2
		result.NextStep = models.StepApproval2

	case models.StepApproval2:
		if err := e.finalize(ctx, projectID, actorID, state); err != nil {
			return nil, err
		}
		result.NextStep = models.StepFinalize
		result.Completed = true
	}

	if err := e.workflows.Update(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Info("workflow step approved",
		"project_id", projectID, "step", step, "actor_id", actorID,
		"completed", result.Completed)

	result.StepStatuses = state.StepStatuses.Clone()
	return result, nil
}

// Reject fails an awaiting step and returns the project to its
// editable state. The document is corrected by hand, then the operator
// resets and re-triggers generation.
func (e *Engine) Reject(ctx context.Context, projectID string, step int, actorID, reason string) (*services.ApprovalResult, error) {
	if step != models.StepApproval1 && step != models.StepApproval2 {
		return nil, fmt.Errorf("step %d is not an approval step: %w", step, domain.ErrInvalidState)
	}

	state, err := e.workflows.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if got := state.StepStatuses.Get(step); got != models.StepAwaitingApproval {
		return nil, fmt.Errorf("step %d is %s, not awaiting approval: %w", step, got, domain.ErrInvalidState)
	}

	state.StepStatuses.Set(step, models.StepFailed)
	state.CurrentStep = step
	if err := e.workflows.Update(ctx, state); err != nil {
		return nil, err
	}
	if err := e.projects.UpdateStatus(ctx, projectID, models.ProjectStatusInProgress); err != nil {
		e.logger.Warn("update project status", "project_id", projectID, "error", err)
	}

	e.logger.Info("workflow step rejected",
		"project_id", projectID, "step", step, "actor_id", actorID, "reason", reason)

	return &services.ApprovalResult{
		ProjectID:    projectID,
		Step:         step,
		NextStep:     step,
		StepStatuses: state.StepStatuses.Clone(),
		Comments:     reason,
	}, nil
}

// Reset clears a stuck or failed run so generation can be re-run from
// scratch. Permitted only while the current step is in progress or has
// failed; a healthy run parked at a gate is handled through approval.
func (e *Engine) Reset(ctx context.Context, projectID, actorID string) (*models.WorkflowState, error) {
	state, err := e.workflows.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	current := state.StepStatuses.CurrentStep()
	got := state.StepStatuses.Get(current)
	if got != models.StepInProgress && got != models.StepFailed {
		return nil, fmt.Errorf("step %d is %s, reset requires in_progress or failed: %w", current, got, domain.ErrInvalidState)
	}

	for step := models.StepGenerate; step <= models.StepCount; step++ {
		state.StepStatuses.Set(step, models.StepPending)
	}
	// With steps 2..6 pending again, the current step is the last one
	// still standing, parse.
	state.CurrentStep = state.StepStatuses.CurrentStep()
	state.RunHandle = nil
	if err := e.workflows.Update(ctx, state); err != nil {
		return nil, err
	}
	e.release(projectID)

	e.logger.Info("workflow reset", "project_id", projectID, "actor_id", actorID)
	return state, nil
}

// firstFailedStep returns the lowest failed step index, or 0 when no
// step has failed.
func firstFailedStep(state *models.WorkflowState) int {
	for step := models.StepParse; step <= models.StepCount; step++ {
		if state.StepStatuses.Get(step) == models.StepFailed {
			return step
		}
	}
	return 0
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}
