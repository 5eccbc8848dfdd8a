package handler

import (
	"log/slog"
	"net/http"

	"soaforge/internal/domain/models"
	"soaforge/internal/domain/services"
	"soaforge/internal/httputil"
)

// SectionHandler handles section HTTP requests
type SectionHandler struct {
	sectionService services.SectionService
	projectService services.ProjectService
	logger         *slog.Logger
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(sectionService services.SectionService, projectService services.ProjectService, logger *slog.Logger) *SectionHandler {
	return &SectionHandler{
		sectionService: sectionService,
		projectService: projectService,
		logger:         logger,
	}
}

// authorize verifies the caller owns the project before any section operation.
func (h *SectionHandler) authorize(w http.ResponseWriter, r *http.Request) (projectID, userID string, ok bool) {
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

// ListSections lists a project's sections in document order
// GET /api/projects/{id}/sections
func (h *SectionHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	projectID, _, ok := h.authorize(w, r)
	if !ok {
		return
	}

	sections, err := h.sectionService.List(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	if sections == nil {
		sections = []models.Section{}
	}
	httputil.RespondJSON(w, http.StatusOK, sections)
}

// AddSection creates a new section from its catalog template
// POST /api/projects/{id}/sections
func (h *SectionHandler) AddSection(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req services.AddSectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ProjectID = projectID
	req.AuthorID = userID

	section, err := h.sectionService.Add(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, section)
}

// UpdateSection replaces a section's content as a manual edit. The
// section key travels in the body so the whole edit form posts to one
// place.
// PATCH /api/projects/{id}/sections
func (h *SectionHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req services.UpdateSectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ProjectID = projectID
	req.AuthorID = userID

	section, err := h.sectionService.UpdateContent(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, section)
}

// DeleteSection removes a section and all of its descendants
// DELETE /api/projects/{id}/sections/{key}
func (h *SectionHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	result, err := h.sectionService.Delete(r.Context(), projectID, r.PathValue("key"), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// RegenerateSection asks the generation client for a fresh draft of one section
// POST /api/projects/{id}/sections/{key}/regenerate
func (h *SectionHandler) RegenerateSection(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	section, err := h.sectionService.Regenerate(r.Context(), projectID, r.PathValue("key"), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, section)
}
