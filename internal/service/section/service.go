// Package section manages the hierarchical section tree of an advice
// document: ordering, manual edits, cascade deletes and regeneration.
// Every mutation records a version through the version service.
package section

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"soaforge/internal/catalog"
	"soaforge/internal/config"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
	"soaforge/internal/domain/services"
	"soaforge/internal/sectionkey"
)

// sectionService implements the SectionService interface
type sectionService struct {
	sections  repositories.SectionRepository
	documents repositories.DocumentRepository
	versions  services.VersionService
	generator services.GenerationClient
	catalog   *catalog.Catalog
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewService creates a new section service
func NewService(
	sections repositories.SectionRepository,
	documents repositories.DocumentRepository,
	versions services.VersionService,
	generator services.GenerationClient,
	cat *catalog.Catalog,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.SectionService {
	return &sectionService{
		sections:  sections,
		documents: documents,
		versions:  versions,
		generator: generator,
		catalog:   cat,
		txManager: txManager,
		logger:    logger,
	}
}

// List returns the project's sections in document order.
func (s *sectionService) List(ctx context.Context, projectID string) ([]models.Section, error) {
	sections, err := s.sections.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	orderSections(sections)
	return sections, nil
}

// UpsertGenerated replaces the project's sections with a generated set
// and records a generation version.
func (s *sectionService) UpsertGenerated(ctx context.Context, projectID string, generated []services.GeneratedSection) ([]models.Section, error) {
	prev, err := s.snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sections := make([]models.Section, 0, len(generated))
	for _, g := range generated {
		tpl, ok := s.catalog.Get(g.SectionKey)
		if !ok {
			s.logger.Warn("generated section has no catalog template, skipping",
				"project_id", projectID, "section_key", g.SectionKey)
			continue
		}
		title := g.Title
		if title == "" {
			title = tpl.Title
		}
		sections = append(sections, models.Section{
			ProjectID:     projectID,
			SectionKey:    g.SectionKey,
			ParentKey:     tpl.ParentKey(),
			Title:         title,
			ContentType:   tpl.ContentType,
			Content:       g.Content,
			Sources:       g.Sources,
			MissingFields: g.MissingFields,
			Status:        models.SectionStatusGenerated,
			UpdatedAt:     now,
		})
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("generation produced no usable sections: %w", domain.ErrValidation)
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.sections.ReplaceAll(txCtx, projectID, sections)
	})
	if err != nil {
		return nil, fmt.Errorf("replace sections: %w", err)
	}

	next := versionableFrom(sections)
	summary := fmt.Sprintf("Generated %d sections", len(sections))
	if failed := len(s.catalog.Keys()) - len(sections); failed > 0 {
		summary = fmt.Sprintf("Generated %d sections, %d failed", len(sections), failed)
	}
	versionNum, err := s.versions.CreateVersion(ctx, projectID, prev, next, models.ChangeKindGeneration, summary, "system")
	if err != nil {
		return nil, err
	}
	if err := s.stampVersion(ctx, projectID, sections, versionNum); err != nil {
		return nil, err
	}

	orderSections(sections)
	return sections, nil
}

// Add creates one section from its catalog template.
func (s *sectionService) Add(ctx context.Context, req *services.AddSectionRequest) (*models.Section, error) {
	if err := validateAdd(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	tpl, ok := s.catalog.Get(req.SectionKey)
	if !ok {
		return nil, fmt.Errorf("%w: unknown section key %q", domain.ErrValidation, req.SectionKey)
	}
	if tpl.Parent != "" {
		if _, err := s.sections.GetByKey(ctx, req.ProjectID, tpl.Parent); err != nil {
			return nil, fmt.Errorf("%w: parent section %s does not exist", domain.ErrValidation, tpl.Parent)
		}
	}

	prev, err := s.snapshot(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	section := &models.Section{
		ProjectID:   req.ProjectID,
		SectionKey:  req.SectionKey,
		ParentKey:   tpl.ParentKey(),
		Title:       tpl.Title,
		ContentType: tpl.ContentType,
		Content:     req.Content,
		Status:      models.SectionStatusReviewed,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, err
	}

	next := append(append([]models.VersionableSection{}, prev...), models.VersionableFromSection(*section))
	summary := fmt.Sprintf("Added section %s", req.SectionKey)
	versionNum, err := s.versions.CreateVersion(ctx, req.ProjectID, prev, next, models.ChangeKindEdit, summary, req.AuthorID)
	if err != nil {
		return nil, err
	}

	section.Version = versionNum
	if err := s.sections.Update(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

// UpdateContent applies a manual edit and marks the section reviewed.
func (s *sectionService) UpdateContent(ctx context.Context, req *services.UpdateSectionRequest) (*models.Section, error) {
	if req.Content.IsEmpty() {
		return nil, fmt.Errorf("%w: section content cannot be empty", domain.ErrValidation)
	}

	section, err := s.sections.GetByKey(ctx, req.ProjectID, req.SectionKey)
	if err != nil {
		return nil, err
	}

	prev, err := s.snapshot(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	section.Content = req.Content
	if req.Sources != nil {
		section.Sources = req.Sources
	}
	section.Status = models.SectionStatusReviewed

	next := replaceInSnapshot(prev, models.VersionableFromSection(*section))
	summary := fmt.Sprintf("Edited section %s", req.SectionKey)
	versionNum, err := s.versions.CreateVersion(ctx, req.ProjectID, prev, next, models.ChangeKindEdit, summary, req.AuthorID)
	if err != nil {
		return nil, err
	}

	section.Version = versionNum
	if err := s.sections.Update(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

// Delete removes a section and its descendant closure.
func (s *sectionService) Delete(ctx context.Context, projectID, sectionKey, authorID string) (*services.DeleteResult, error) {
	sections, err := s.sections.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	doomed := descendantClosure(sections, sectionKey)
	if len(doomed) == 0 {
		return nil, fmt.Errorf("section %s: %w", sectionKey, domain.ErrNotFound)
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.sections.DeleteByKeys(txCtx, projectID, doomed)
	})
	if err != nil {
		return nil, err
	}

	prev := versionableFrom(sections)
	doomedSet := make(map[string]struct{}, len(doomed))
	for _, k := range doomed {
		doomedSet[k] = struct{}{}
	}
	var next []models.VersionableSection
	for _, v := range prev {
		if _, gone := doomedSet[v.SectionKey]; !gone {
			next = append(next, v)
		}
	}

	summary := fmt.Sprintf("Deleted section %s", sectionKey)
	if len(doomed) > 1 {
		summary = fmt.Sprintf("Deleted section %s and %d descendants", sectionKey, len(doomed)-1)
	}
	versionNum, err := s.versions.CreateVersion(ctx, projectID, prev, next, models.ChangeKindEdit, summary, authorID)
	if err != nil {
		return nil, err
	}

	return &services.DeleteResult{
		DeletedKeys: doomed,
		NewVersion:  versionNum,
	}, nil
}

// Regenerate asks the generation client for a single section and
// replaces it.
func (s *sectionService) Regenerate(ctx context.Context, projectID, sectionKey, authorID string) (*models.Section, error) {
	section, err := s.sections.GetByKey(ctx, projectID, sectionKey)
	if err != nil {
		return nil, err
	}

	docs, err := s.documents.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no source documents to regenerate from", domain.ErrInvalidState)
	}

	sources := make([]services.SourceDocument, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, services.SourceDocument{
			ID:   d.ID,
			Name: d.Name,
			Text: d.ParsedContent,
		})
	}

	generated, err := s.generator.Generate(ctx, projectID, sources, []string{sectionKey})
	if err != nil {
		return nil, fmt.Errorf("regenerate section %s: %w", sectionKey, err)
	}
	if len(generated) == 0 {
		return nil, fmt.Errorf("%w: generation returned nothing for section %s", domain.ErrValidation, sectionKey)
	}

	prev, err := s.snapshot(ctx, projectID)
	if err != nil {
		return nil, err
	}

	g := generated[0]
	if g.Title != "" {
		section.Title = g.Title
	}
	section.Content = g.Content
	section.Sources = g.Sources
	section.MissingFields = g.MissingFields
	section.Status = models.SectionStatusGenerated

	next := replaceInSnapshot(prev, models.VersionableFromSection(*section))
	summary := fmt.Sprintf("Regenerated section %s", sectionKey)
	versionNum, err := s.versions.CreateVersion(ctx, projectID, prev, next, models.ChangeKindGeneration, summary, authorID)
	if err != nil {
		return nil, err
	}

	section.Version = versionNum
	if err := s.sections.Update(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *sectionService) snapshot(ctx context.Context, projectID string) ([]models.VersionableSection, error) {
	sections, err := s.sections.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return versionableFrom(sections), nil
}

func (s *sectionService) stampVersion(ctx context.Context, projectID string, sections []models.Section, versionNum int) error {
	for i := range sections {
		sections[i].Version = versionNum
	}
	return s.sections.SetAllStatus(ctx, projectID, models.SectionStatusGenerated, versionNum)
}

func validateAdd(req *services.AddSectionRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.SectionKey, validation.Required, validation.Length(1, config.MaxSectionTitleLength)),
	)
}

// orderSections sorts sections in document order: numeric by key
// component, parents before their own children.
func orderSections(sections []models.Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sectionkey.Less(sections[i].SectionKey, sections[j].SectionKey)
	})
}

func versionableFrom(sections []models.Section) []models.VersionableSection {
	orderSections(sections)
	out := make([]models.VersionableSection, 0, len(sections))
	for _, s := range sections {
		out = append(out, models.VersionableFromSection(s))
	}
	return out
}

func replaceInSnapshot(snapshot []models.VersionableSection, updated models.VersionableSection) []models.VersionableSection {
	next := make([]models.VersionableSection, len(snapshot))
	copy(next, snapshot)
	for i, v := range next {
		if v.SectionKey == updated.SectionKey {
			next[i] = updated
			return next
		}
	}
	return append(next, updated)
}

// descendantClosure returns the target key plus every key reachable from
// it through parent links, in document order. Empty when the target does
// not exist.
func descendantClosure(sections []models.Section, target string) []string {
	children := make(map[string][]string, len(sections))
	exists := false
	for _, s := range sections {
		if s.SectionKey == target {
			exists = true
		}
		if s.ParentKey != nil {
			children[*s.ParentKey] = append(children[*s.ParentKey], s.SectionKey)
		}
	}
	if !exists {
		return nil
	}

	var closure []string
	queue := []string{target}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		closure = append(closure, key)
		queue = append(queue, children[key]...)
	}
	return sectionkey.Sort(closure)
}
