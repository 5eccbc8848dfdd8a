package handler

import (
	"context"
	"log/slog"
	"net/http"

	"soaforge/internal/domain/services"
	"soaforge/internal/httputil"
)

// WorkflowHandler handles workflow run and approval HTTP requests
type WorkflowHandler struct {
	workflowService services.WorkflowService
	sectionService  services.SectionService
	projectService  services.ProjectService
	validator       services.ComplianceValidator
	logger          *slog.Logger
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(
	workflowService services.WorkflowService,
	sectionService services.SectionService,
	projectService services.ProjectService,
	validator services.ComplianceValidator,
	logger *slog.Logger,
) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService: workflowService,
		sectionService:  sectionService,
		projectService:  projectService,
		validator:       validator,
		logger:          logger,
	}
}

func (h *WorkflowHandler) authorize(w http.ResponseWriter, r *http.Request) (projectID, userID string, ok bool) {
	userID, ok = requireUserID(w, r)
	if !ok {
		return "", "", false
	}

	projectID = r.PathValue("id")
	if _, err := h.projectService.Get(r.Context(), projectID, userID); err != nil {
		handleError(w, err)
		return "", "", false
	}

	return projectID, userID, true
}

// StartWorkflow begins or resumes a run and returns 202 immediately.
// The steps execute in the background; clients poll GET /workflow for
// progress.
// POST /api/projects/{id}/workflow
func (h *WorkflowHandler) StartWorkflow(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	runHandle, err := h.workflowService.StartOrResume(r.Context(), projectID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	state, err := h.workflowService.GetState(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	// The run outlives the request, so it gets its own context.
	go func() {
		result, err := h.workflowService.RunSteps(context.Background(), projectID, runHandle)
		if err != nil {
			h.logger.Error("workflow run failed",
				"project_id", projectID,
				"run_handle", runHandle,
				"error", err,
			)
			return
		}
		h.logger.Info("workflow run paused or completed",
			"project_id", projectID,
			"run_handle", runHandle,
			"current_step", result.CurrentStep,
		)
	}()

	httputil.RespondJSON(w, http.StatusAccepted, map[string]interface{}{
		"project_id":    projectID,
		"run_handle":    runHandle,
		"current_step":  state.CurrentStep,
		"step_statuses": state.StepStatuses,
	})
}

// GetWorkflowState returns the persisted workflow state for polling
// GET /api/projects/{id}/workflow
func (h *WorkflowHandler) GetWorkflowState(w http.ResponseWriter, r *http.Request) {
	projectID, _, ok := h.authorize(w, r)
	if !ok {
		return
	}

	state, err := h.workflowService.GetState(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, state)
}

// ResetWorkflow clears generation state so it can be re-run
// POST /api/projects/{id}/workflow/reset
func (h *WorkflowHandler) ResetWorkflow(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	state, err := h.workflowService.Reset(r.Context(), projectID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, state)
}

// approvalRequest carries a human decision on an awaiting step.
type approvalRequest struct {
	Step     int    `json:"step"`
	Action   string `json:"action"`
	Comments string `json:"comments"`
}

// HandleApproval records an approve or reject decision for a gate step
// POST /api/projects/{id}/approve
func (h *WorkflowHandler) HandleApproval(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req approvalRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch req.Action {
	case "approve":
		result, err := h.workflowService.Approve(r.Context(), projectID, req.Step, userID)
		if err != nil {
			handleError(w, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, result)
	case "reject":
		result, err := h.workflowService.Reject(r.Context(), projectID, req.Step, userID, req.Comments)
		if err != nil {
			handleError(w, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, result)
	default:
		httputil.RespondError(w, http.StatusBadRequest, "action must be approve or reject")
	}
}

// GetCompliance re-runs the advisory compliance checks against the
// current sections without touching workflow state
// GET /api/projects/{id}/compliance
func (h *WorkflowHandler) GetCompliance(w http.ResponseWriter, r *http.Request) {
	projectID, _, ok := h.authorize(w, r)
	if !ok {
		return
	}

	sections, err := h.sectionService.List(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	findings := h.validator.Validate(sections)
	httputil.RespondJSON(w, http.StatusOK, findings)
}
