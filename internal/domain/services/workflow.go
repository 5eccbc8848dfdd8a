package services

import (
	"context"

	"soaforge/internal/domain/models"
)

// RunResult summarizes a workflow run after it stops, whether it
// completed its range, paused for approval or failed.
type RunResult struct {
	ProjectID    string              `json:"project_id"`
	RunHandle    string              `json:"run_handle"`
	CurrentStep  int                 `json:"current_step"`
	StepStatuses models.StepStatuses `json:"step_statuses"`
	Findings     *Findings           `json:"findings,omitempty"`
	// FailedSections counts the catalog templates generation could not
	// produce; a non-zero count is a warning, not a failure.
	FailedSections int    `json:"failed_sections,omitempty"`
	FailedStep     int    `json:"failed_step,omitempty"`
	Err            string `json:"error,omitempty"`
}

// ApprovalResult reports the workflow position after a human decision.
type ApprovalResult struct {
	ProjectID    string              `json:"project_id"`
	Step         int                 `json:"step"`
	NextStep     int                 `json:"next_step"`
	StepStatuses models.StepStatuses `json:"step_statuses"`
	Completed    bool                `json:"completed"`
	// Comments echoes the operator's rejection reason; empty on approval.
	Comments string `json:"comments,omitempty"`
}

// WorkflowService drives the six-step advice pipeline for a project.
type WorkflowService interface {
	// StartOrResume begins or continues a run from the first
	// non-completed step. Starting a project that already has an active
	// run returns ErrRunActive. Returns the run handle.
	StartOrResume(ctx context.Context, projectID, actorID string) (string, error)

	// RunSteps executes steps synchronously from the current position
	// until an approval gate, a failure or completion.
	RunSteps(ctx context.Context, projectID, runHandle string) (*RunResult, error)

	// GetState returns the persisted workflow state.
	GetState(ctx context.Context, projectID string) (*models.WorkflowState, error)

	// Approve records a human approval for an awaiting step. Approving
	// the second approval step also completes finalization and the
	// project.
	Approve(ctx context.Context, projectID string, step int, actorID string) (*ApprovalResult, error)

	// Reject fails an awaiting step with a reason and returns the
	// project to editing. The failed step needs a Reset before the run
	// can go again.
	Reject(ctx context.Context, projectID string, step int, actorID, reason string) (*ApprovalResult, error)

	// Reset clears generation state so it can be re-run. Permitted only
	// while generation is in progress or has failed.
	Reset(ctx context.Context, projectID, actorID string) (*models.WorkflowState, error)
}
