package models

import (
	"fmt"
	"time"
)

// StepStatus is the wire-level status vocabulary for workflow steps.
type StepStatus string

const (
	StepPending          StepStatus = "pending"
	StepInProgress       StepStatus = "in_progress"
	StepCompleted        StepStatus = "completed"
	StepFailed           StepStatus = "failed"
	StepAwaitingApproval StepStatus = "awaiting_approval"
)

// The six ordered workflow steps.
const (
	StepParse     = 1
	StepGenerate  = 2
	StepValidate  = 3
	StepApproval1 = 4
	StepApproval2 = 5
	StepFinalize  = 6

	StepCount = 6
)

// StepKey returns the JSON key for a step index ("step1".."step6").
func StepKey(step int) string {
	return fmt.Sprintf("step%d", step)
}

// StepStatuses maps step keys to statuses. It always contains all six
// keys once a workflow state exists.
type StepStatuses map[string]StepStatus

// NewStepStatuses returns a full set of pending statuses.
func NewStepStatuses() StepStatuses {
	s := make(StepStatuses, StepCount)
	for i := 1; i <= StepCount; i++ {
		s[StepKey(i)] = StepPending
	}
	return s
}

// Get returns the status for a step index, defaulting to pending.
func (s StepStatuses) Get(step int) StepStatus {
	if st, ok := s[StepKey(step)]; ok {
		return st
	}
	return StepPending
}

// Set records the status for a step index.
func (s StepStatuses) Set(step int, status StepStatus) {
	s[StepKey(step)] = status
}

// Clone returns an independent copy.
func (s StepStatuses) Clone() StepStatuses {
	out := make(StepStatuses, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// CurrentStep derives the highest step index that is not pending.
// Returns 1 when nothing has started.
func (s StepStatuses) CurrentStep() int {
	current := 1
	for i := 1; i <= StepCount; i++ {
		if s.Get(i) != StepPending {
			current = i
		}
	}
	return current
}

// WorkflowState is the single persisted state row for a project's
// workflow run. Mutated exclusively by the workflow engine; read by
// polling consumers.
type WorkflowState struct {
	ID           string       `json:"id" db:"id"`
	ProjectID    string       `json:"project_id" db:"project_id"`
	CurrentStep  int          `json:"current_step" db:"current_step"`
	StepStatuses StepStatuses `json:"step_statuses" db:"step_statuses"`
	RunHandle    *string      `json:"run_handle,omitempty" db:"run_handle"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}
