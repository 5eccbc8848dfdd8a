package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"soaforge/internal/catalog"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/services"
	"soaforge/internal/repository/memory"
	"soaforge/internal/service/compliance"
	sectionsvc "soaforge/internal/service/section"
	versionsvc "soaforge/internal/service/version"
)

// countingGenerator returns canned sections and records call counts.
type countingGenerator struct {
	sections []services.GeneratedSection
	err      error
	calls    int
}

func (g *countingGenerator) Generate(ctx context.Context, projectID string, docs []services.SourceDocument, filter []string) ([]services.GeneratedSection, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.sections, nil
}

type engineFixture struct {
	engine   *Engine
	gen      *countingGenerator
	store    *memory.Store
	catalog  *catalog.Catalog
	versions services.VersionService
	sections services.SectionService
}

func newEngineFixture(t *testing.T) (*engineFixture, context.Context) {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gen := &countingGenerator{sections: fullDraft()}

	sectionRepo := memory.NewSectionRepository(store)
	docRepo := memory.NewDocumentRepository(store)
	versions := versionsvc.NewService(memory.NewVersionRepository(store), sectionRepo, logger)
	sections := sectionsvc.NewService(sectionRepo, docRepo, versions, gen, cat, memory.NewTransactionManager(), logger)

	engine := NewEngine(
		memory.NewWorkflowRepository(store),
		memory.NewProjectRepository(store),
		docRepo,
		sectionRepo,
		sections,
		versions,
		gen,
		compliance.NewValidator(cat),
		cat,
		logger,
	)
	return &engineFixture{engine: engine, gen: gen, store: store, catalog: cat, versions: versions, sections: sections}, context.Background()
}

func fullDraft() []services.GeneratedSection {
	keys := []string{"M1", "M2", "M5", "M8", "M9", "M10"}
	var out []services.GeneratedSection
	for _, k := range keys {
		text := "Substantive drafted advice content for this section of the document."
		if k == "M8" {
			text = "The initial advice fee is $2,500 and the ongoing fee is $3,300 per annum."
		}
		out = append(out, services.GeneratedSection{
			SectionKey: k,
			Content:    models.SectionContent{Text: text},
			Sources:    []models.SourceRef{{DocumentName: "fact-find.pdf", Excerpt: "supporting quote"}},
		})
	}
	return out
}

func seedProject(t *testing.T, ctx context.Context, f *engineFixture, withDoc bool) string {
	t.Helper()
	projects := memory.NewProjectRepository(f.store)
	project := &models.Project{OwnerID: "advisor-1", Name: "Smith SoA", Status: models.ProjectStatusDraft}
	if err := projects.Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if withDoc {
		docs := memory.NewDocumentRepository(f.store)
		err := docs.Create(ctx, &models.Document{
			ProjectID:     project.ID,
			Name:          "fact-find.pdf",
			FileType:      "pdf",
			ParsedContent: "John Smith, age 58, income 120k, super balance 430k, wants to retire at 65.",
		})
		if err != nil {
			t.Fatalf("create document: %v", err)
		}
	}
	return project.ID
}

func runToGate(t *testing.T, ctx context.Context, f *engineFixture, projectID string) *services.RunResult {
	t.Helper()
	handle, err := f.engine.StartOrResume(ctx, projectID, "advisor-1")
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	result, err := f.engine.RunSteps(ctx, projectID, handle)
	if err != nil {
		t.Fatalf("RunSteps: %v", err)
	}
	return result
}

func TestRun_HappyPathToFirstGate(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)

	result := runToGate(t, ctx, f, projectID)

	if result.CurrentStep != models.StepApproval1 {
		t.Errorf("current step = %d, want %d", result.CurrentStep, models.StepApproval1)
	}
	for step := models.StepParse; step <= models.StepValidate; step++ {
		if got := result.StepStatuses.Get(step); got != models.StepCompleted {
			t.Errorf("step %d = %s, want completed", step, got)
		}
	}
	if got := result.StepStatuses.Get(models.StepApproval1); got != models.StepAwaitingApproval {
		t.Errorf("approval step = %s, want awaiting_approval", got)
	}
	if result.Findings == nil {
		t.Fatal("validation findings missing from run result")
	}
	if len(result.Findings.CriticalIssues) != 0 {
		t.Errorf("unexpected critical issues: %v", result.Findings.CriticalIssues)
	}

	// Generation recorded version 1.
	history, err := f.versions.History(ctx, projectID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0].ChangeKind != models.ChangeKindGeneration {
		t.Errorf("history = %+v, want one generation version", history)
	}

	// Project moved to review at the gate.
	projects := memory.NewProjectRepository(f.store)
	project, err := projects.GetByID(ctx, projectID, "advisor-1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.Status != models.ProjectStatusReview {
		t.Errorf("project status = %s, want review", project.Status)
	}
}

func TestRun_NoDocumentsFailsParse(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, false)

	handle, err := f.engine.StartOrResume(ctx, projectID, "advisor-1")
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}

	result, err := f.engine.RunSteps(ctx, projectID, handle)
	var stepErr *domain.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != models.StepParse {
		t.Fatalf("expected StepError at parse, got %v", err)
	}
	if got := result.StepStatuses.Get(models.StepParse); got != models.StepFailed {
		t.Errorf("parse status = %s, want failed", got)
	}
	if result.FailedStep != models.StepParse {
		t.Errorf("failed step = %d, want %d", result.FailedStep, models.StepParse)
	}
}

func TestRun_EmptyGenerationFailsStep(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)
	f.gen.sections = nil

	handle, err := f.engine.StartOrResume(ctx, projectID, "advisor-1")
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}

	result, err := f.engine.RunSteps(ctx, projectID, handle)
	var stepErr *domain.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != models.StepGenerate {
		t.Fatalf("expected StepError at generate, got %v", err)
	}
	if got := result.StepStatuses.Get(models.StepGenerate); got != models.StepFailed {
		t.Errorf("generate status = %s, want failed", got)
	}
	// Parse stays completed; the failure does not cascade backwards.
	if got := result.StepStatuses.Get(models.StepParse); got != models.StepCompleted {
		t.Errorf("parse status = %s, want completed", got)
	}
}

func TestRun_PartialGenerationSucceeds(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)

	// Only two of the requested sections come back.
	f.gen.sections = fullDraft()[:2]

	result := runToGate(t, ctx, f, projectID)
	if got := result.StepStatuses.Get(models.StepGenerate); got != models.StepCompleted {
		t.Errorf("generate status = %s, want completed (partial output is usable)", got)
	}

	sections, err := f.sections.List(ctx, projectID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sections) != 2 {
		t.Errorf("persisted %d sections, want 2", len(sections))
	}

	// The compliance pass flags what generation could not produce.
	if len(result.Findings.CriticalIssues) == 0 {
		t.Error("expected critical findings for the missing required sections")
	}

	// The shortfall against the full template set rides along as a
	// warning, in the run result and in the version summary.
	wantFailed := len(f.catalog.Keys()) - 2
	if result.FailedSections != wantFailed {
		t.Errorf("failed sections = %d, want %d", result.FailedSections, wantFailed)
	}
	history, err := f.versions.History(ctx, projectID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	wantSummary := fmt.Sprintf("Generated 2 sections, %d failed", wantFailed)
	if got := history[len(history)-1].Summary; got != wantSummary {
		t.Errorf("version summary = %q, want %q", got, wantSummary)
	}
}

func TestStartOrResume_RejectsConcurrentRun(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)

	if _, err := f.engine.StartOrResume(ctx, projectID, "advisor-1"); err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}

	_, err := f.engine.StartOrResume(ctx, projectID, "advisor-2")
	if !errors.Is(err, domain.ErrRunActive) {
		t.Errorf("expected ErrRunActive, got %v", err)
	}
}

func TestResume_AfterFailureRequiresReset(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)

	// First run fails at generation.
	f.gen.err = errors.New("model timeout")
	handle, err := f.engine.StartOrResume(ctx, projectID, "advisor-1")
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if _, err := f.engine.RunSteps(ctx, projectID, handle); err == nil {
		t.Fatal("expected first run to fail")
	}

	// There is no automatic retry: resuming over a failed step is
	// refused until the operator resets.
	f.gen.err = nil
	if _, err := f.engine.StartOrResume(ctx, projectID, "advisor-1"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("resume over failed step: got %v, want ErrInvalidState", err)
	}

	if _, err := f.engine.Reset(ctx, projectID, "advisor-1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	// The rerun starts from generation, not from parse.
	result := runToGate(t, ctx, f, projectID)
	if result.CurrentStep != models.StepApproval1 {
		t.Errorf("current step = %d, want %d", result.CurrentStep, models.StepApproval1)
	}
	if f.gen.calls != 2 {
		t.Errorf("generator called %d times, want 2 (one failure, one rerun)", f.gen.calls)
	}
}

func TestApprove_FullFlowCompletesProject(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)
	runToGate(t, ctx, f, projectID)

	first, err := f.engine.Approve(ctx, projectID, models.StepApproval1, "reviewer-1")
	if err != nil {
		t.Fatalf("Approve step 4: %v", err)
	}
	if first.NextStep != models.StepApproval2 || first.Completed {
		t.Errorf("first approval result = %+v", first)
	}
	if got := first.StepStatuses.Get(models.StepApproval2); got != models.StepAwaitingApproval {
		t.Errorf("second gate = %s, want awaiting_approval", got)
	}

	second, err := f.engine.Approve(ctx, projectID, models.StepApproval2, "compliance-1")
	if err != nil {
		t.Fatalf("Approve step 5: %v", err)
	}
	if !second.Completed {
		t.Error("second approval should complete the workflow")
	}
	if got := second.StepStatuses.Get(models.StepFinalize); got != models.StepCompleted {
		t.Errorf("finalize = %s, want completed", got)
	}

	// Sections are approved and stamped with the approval version.
	sections, err := f.sections.List(ctx, projectID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, s := range sections {
		if s.Status != models.SectionStatusApproved {
			t.Errorf("section %s status = %s, want approved", s.SectionKey, s.Status)
		}
	}

	// History: generation then approval.
	history, err := f.versions.History(ctx, projectID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 || history[1].ChangeKind != models.ChangeKindApproval {
		t.Errorf("history = %+v, want generation then approval", history)
	}

	// Project completed.
	projects := memory.NewProjectRepository(f.store)
	project, err := projects.GetByID(ctx, projectID, "advisor-1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.Status != models.ProjectStatusCompleted {
		t.Errorf("project status = %s, want completed", project.Status)
	}
}

func TestApprove_InvalidStates(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)
	runToGate(t, ctx, f, projectID)

	// Second gate cannot be approved before the first.
	if _, err := f.engine.Approve(ctx, projectID, models.StepApproval2, "x"); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("approving gate 2 early: got %v, want ErrInvalidState", err)
	}
	// Non-approval steps cannot be approved at all.
	if _, err := f.engine.Approve(ctx, projectID, models.StepValidate, "x"); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("approving step 3: got %v, want ErrInvalidState", err)
	}
	// Double approval of the same gate.
	if _, err := f.engine.Approve(ctx, projectID, models.StepApproval1, "x"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.engine.Approve(ctx, projectID, models.StepApproval1, "x"); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("double approval: got %v, want ErrInvalidState", err)
	}
}

func TestReject_FailsGateAndReturnsProjectToEditing(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)
	runToGate(t, ctx, f, projectID)

	rejected, err := f.engine.Reject(ctx, projectID, models.StepApproval1, "reviewer-1", "fees unclear")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got := rejected.StepStatuses.Get(models.StepApproval1); got != models.StepFailed {
		t.Errorf("gate after reject = %s, want failed", got)
	}
	if got := rejected.StepStatuses.Get(models.StepApproval2); got != models.StepPending {
		t.Errorf("second gate after reject = %s, want pending (untouched)", got)
	}
	// The operator's reason comes back with the result.
	if rejected.Comments != "fees unclear" {
		t.Errorf("rejection comments = %q, want the operator's reason", rejected.Comments)
	}

	// The project is editable again.
	projects := memory.NewProjectRepository(f.store)
	project, err := projects.GetByID(ctx, projectID, "advisor-1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if project.Status != models.ProjectStatusInProgress {
		t.Errorf("project status after reject = %s, want in_progress", project.Status)
	}

	// Re-triggering is explicit: resume is refused until a reset, and
	// the reset reruns generation.
	if _, err := f.engine.StartOrResume(ctx, projectID, "advisor-1"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("resume over rejected gate: got %v, want ErrInvalidState", err)
	}
	if _, err := f.engine.Reset(ctx, projectID, "advisor-1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	callsBefore := f.gen.calls
	result := runToGate(t, ctx, f, projectID)
	if result.CurrentStep != models.StepApproval1 {
		t.Errorf("current step = %d, want %d", result.CurrentStep, models.StepApproval1)
	}
	if f.gen.calls != callsBefore+1 {
		t.Errorf("generator called %d times after reset, want %d", f.gen.calls, callsBefore+1)
	}
}

func TestReset_RefusedWhenRunIsHealthy(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)

	// A run parked at an approval gate is not stuck.
	runToGate(t, ctx, f, projectID)
	if _, err := f.engine.Reset(ctx, projectID, "advisor-1"); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("reset while awaiting approval: got %v, want ErrInvalidState", err)
	}
}

func TestReset_AfterFailedGeneration(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)

	f.gen.err = errors.New("model unavailable")
	handle, err := f.engine.StartOrResume(ctx, projectID, "advisor-1")
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if _, err := f.engine.RunSteps(ctx, projectID, handle); err == nil {
		t.Fatal("expected run to fail")
	}

	state, err := f.engine.Reset(ctx, projectID, "advisor-1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	for step := models.StepGenerate; step <= models.StepCount; step++ {
		if got := state.StepStatuses.Get(step); got != models.StepPending {
			t.Errorf("step %d after reset = %s, want pending", step, got)
		}
	}
	// Parse survives the reset.
	if got := state.StepStatuses.Get(models.StepParse); got != models.StepCompleted {
		t.Errorf("parse after reset = %s, want completed", got)
	}
	// The current step rolls back to the last step still standing.
	if state.CurrentStep != models.StepParse {
		t.Errorf("current step after reset = %d, want %d", state.CurrentStep, models.StepParse)
	}
	if state.CurrentStep != state.StepStatuses.CurrentStep() {
		t.Errorf("persisted current step %d disagrees with derived %d", state.CurrentStep, state.StepStatuses.CurrentStep())
	}

	// The workflow runs cleanly after the reset.
	f.gen.err = nil
	result := runToGate(t, ctx, f, projectID)
	if result.CurrentStep != models.StepApproval1 {
		t.Errorf("current step after reset and rerun = %d, want %d", result.CurrentStep, models.StepApproval1)
	}
}

func TestRun_PartialDraftThroughFirstApproval(t *testing.T) {
	f, ctx := newEngineFixture(t)
	projectID := seedProject(t, ctx, f, true)

	// Generation produces a usable but incomplete draft.
	f.gen.sections = fullDraft()[:3]

	result := runToGate(t, ctx, f, projectID)
	if got := result.StepStatuses.Get(models.StepGenerate); got != models.StepCompleted {
		t.Fatalf("generate status = %s, want completed", got)
	}
	if got := result.StepStatuses.Get(models.StepValidate); got != models.StepCompleted {
		t.Fatalf("validate status = %s, want completed", got)
	}

	// The missing required sections surface as critical findings without
	// blocking the run.
	var flagged bool
	for _, issue := range result.Findings.CriticalIssues {
		if strings.Contains(issue, "M8") {
			flagged = true
		}
	}
	if !flagged {
		t.Errorf("expected a critical finding for missing section M8, got %v", result.Findings.CriticalIssues)
	}

	// First approval parks the run at the second gate.
	approval, err := f.engine.Approve(ctx, projectID, models.StepApproval1, "reviewer-1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approval.NextStep != models.StepApproval2 {
		t.Errorf("next step = %d, want %d", approval.NextStep, models.StepApproval2)
	}
	state, err := f.engine.GetState(ctx, projectID)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if got := state.StepStatuses.Get(models.StepApproval1); got != models.StepCompleted {
		t.Errorf("first gate = %s, want completed", got)
	}
	if got := state.StepStatuses.Get(models.StepApproval2); got != models.StepAwaitingApproval {
		t.Errorf("second gate = %s, want awaiting_approval", got)
	}
}
