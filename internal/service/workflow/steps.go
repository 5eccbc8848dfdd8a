package workflow

import (
	"context"
	"fmt"
	"time"

	"soaforge/internal/config"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/services"
)

// RunSteps executes steps synchronously from the current position until
// an approval gate, a failure or completion. The HTTP layer calls it
// from a goroutine after StartOrResume; tests call it directly.
func (e *Engine) RunSteps(ctx context.Context, projectID, runHandle string) (*services.RunResult, error) {
	defer e.release(projectID)

	state, err := e.workflows.GetByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if state.RunHandle == nil || *state.RunHandle != runHandle {
		return nil, fmt.Errorf("run handle %s is not the active run: %w", runHandle, domain.ErrInvalidState)
	}

	result := &services.RunResult{
		ProjectID: projectID,
		RunHandle: runHandle,
	}

	for step := models.StepParse; step <= models.StepCount; step++ {
		switch state.StepStatuses.Get(step) {
		case models.StepCompleted:
			continue
		case models.StepAwaitingApproval:
			// Already parked at a gate; nothing for the engine to do.
			return e.finishRun(ctx, state, result, step)
		}

		if step == models.StepApproval1 || step == models.StepApproval2 {
			state.StepStatuses.Set(step, models.StepAwaitingApproval)
			state.CurrentStep = step
			if err := e.projects.UpdateStatus(ctx, projectID, models.ProjectStatusReview); err != nil {
				e.logger.Warn("update project status", "project_id", projectID, "error", err)
			}
			return e.finishRun(ctx, state, result, step)
		}
		if step == models.StepFinalize {
			// Finalization only happens through the second approval.
			return e.finishRun(ctx, state, result, step)
		}

		state.StepStatuses.Set(step, models.StepInProgress)
		state.CurrentStep = step
		if err := e.workflows.Update(ctx, state); err != nil {
			return nil, err
		}

		if err := e.runStep(ctx, projectID, step, result); err != nil {
			state.StepStatuses.Set(step, models.StepFailed)
			result.FailedStep = step
			result.Err = err.Error()
			e.logger.Error("workflow step failed",
				"project_id", projectID, "step", step, "error", err)
			if _, ferr := e.finishRun(ctx, state, result, step); ferr != nil {
				return nil, ferr
			}
			return result, &domain.StepError{Step: step, Err: err}
		}

		state.StepStatuses.Set(step, models.StepCompleted)
		if err := e.workflows.Update(ctx, state); err != nil {
			return nil, err
		}
		e.logger.Info("workflow step completed", "project_id", projectID, "step", step)
	}

	return e.finishRun(ctx, state, result, models.StepCount)
}

// finishRun clears the run handle and persists the final state of this
// run segment.
func (e *Engine) finishRun(ctx context.Context, state *models.WorkflowState, result *services.RunResult, step int) (*services.RunResult, error) {
	state.RunHandle = nil
	if err := e.workflows.Update(ctx, state); err != nil {
		return nil, err
	}
	result.CurrentStep = step
	result.StepStatuses = state.StepStatuses.Clone()
	return result, nil
}

func (e *Engine) runStep(ctx context.Context, projectID string, step int, result *services.RunResult) error {
	switch step {
	case models.StepParse:
		return e.stepParse(ctx, projectID)
	case models.StepGenerate:
		return e.stepGenerate(ctx, projectID, result)
	case models.StepValidate:
		return e.stepValidate(ctx, projectID, result)
	}
	return fmt.Errorf("no runner for step %d: %w", step, domain.ErrInvalidState)
}

// stepParse checks the uploaded source material is usable. Text
// extraction happens at upload time, so this step gates on presence and
// quality rather than doing the parsing itself.
func (e *Engine) stepParse(ctx context.Context, projectID string) error {
	docs, err := e.documents.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("%w: no source documents uploaded", domain.ErrValidation)
	}

	usable := 0
	for _, doc := range docs {
		if len(doc.ParsedContent) < config.MinDocumentContentLength {
			e.logger.Warn("source document too short to use",
				"project_id", projectID, "document", doc.Name, "chars", len(doc.ParsedContent))
			continue
		}
		quality := assessDocumentQuality(doc.ParsedContent)
		if quality.Score < goodQualityScore {
			e.logger.Warn("source document quality is low",
				"project_id", projectID, "document", doc.Name,
				"score", quality.Score, "notes", quality.Notes)
		} else {
			e.logger.Debug("source document assessed",
				"project_id", projectID, "document", doc.Name, "score", quality.Score)
		}
		usable++
	}
	if usable == 0 {
		return fmt.Errorf("%w: no source document has usable text", domain.ErrValidation)
	}
	return nil
}

// stepGenerate drafts the full section set from the source documents.
// Partial output is fine; the shortfall against the catalog is carried
// in the run result as a warning. Zero output fails the step.
func (e *Engine) stepGenerate(ctx context.Context, projectID string, result *services.RunResult) error {
	if err := e.projects.UpdateStatus(ctx, projectID, models.ProjectStatusInProgress); err != nil {
		e.logger.Warn("update project status", "project_id", projectID, "error", err)
	}

	docs, err := e.documents.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}

	sources := make([]services.SourceDocument, 0, len(docs))
	for _, d := range docs {
		if len(d.ParsedContent) < config.MinDocumentContentLength {
			continue
		}
		sources = append(sources, services.SourceDocument{
			ID:   d.ID,
			Name: d.Name,
			Text: d.ParsedContent,
		})
	}

	generated, err := e.generator.Generate(ctx, projectID, sources, nil)
	if err != nil {
		return fmt.Errorf("generate sections: %w", err)
	}
	if len(generated) == 0 {
		return fmt.Errorf("%w: generation produced no sections", domain.ErrValidation)
	}

	sections, err := e.sectSvc.UpsertGenerated(ctx, projectID, generated)
	if err != nil {
		return err
	}

	if failed := len(e.catalog.Keys()) - len(sections); failed > 0 {
		result.FailedSections = failed
		e.logger.Warn("generation incomplete",
			"project_id", projectID, "sections", len(sections), "failed", failed)
	}

	e.logger.Info("sections generated",
		"project_id", projectID, "sections", len(sections), "requested", len(generated))
	return nil
}

// stepValidate runs the compliance pass. Findings are advisory: they
// ride along in the run result for the approvers but never fail the
// step.
func (e *Engine) stepValidate(ctx context.Context, projectID string, result *services.RunResult) error {
	sections, err := e.sections.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}

	findings := e.validator.Validate(sections)
	result.Findings = &findings

	e.logger.Info("compliance validated",
		"project_id", projectID,
		"critical_issues", len(findings.CriticalIssues),
		"warnings", len(findings.Warnings))
	return nil
}

// finalize marks every section approved, records the approval version
// and completes the project. Runs as part of approving the second gate.
func (e *Engine) finalize(ctx context.Context, projectID, actorID string, state *models.WorkflowState) error {
	sections, err := e.sections.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}

	prev := make([]models.VersionableSection, 0, len(sections))
	next := make([]models.VersionableSection, 0, len(sections))
	for _, s := range sections {
		prev = append(prev, models.VersionableFromSection(s))
		approved := s
		approved.Status = models.SectionStatusApproved
		next = append(next, models.VersionableFromSection(approved))
	}

	versionNum, err := e.versions.CreateVersion(ctx, projectID, prev, next,
		models.ChangeKindApproval, "Document approved and finalized", actorID)
	if err != nil {
		return err
	}
	if err := e.sections.SetAllStatus(ctx, projectID, models.SectionStatusApproved, versionNum); err != nil {
		return err
	}
	if err := e.projects.UpdateStatus(ctx, projectID, models.ProjectStatusCompleted); err != nil {
		return err
	}

	state.StepStatuses.Set(models.StepFinalize, models.StepCompleted)
	state.CurrentStep = models.StepFinalize
	state.UpdatedAt = time.Now().UTC()

	e.logger.Info("workflow finalized",
		"project_id", projectID, "version", versionNum, "sections", len(sections))
	return nil
}
