package handler

import (
	"log/slog"
	"net/http"

	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/services"
	"soaforge/internal/httputil"
)

// ProjectHandler handles project and document HTTP requests
type ProjectHandler struct {
	projectService services.ProjectService
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService services.ProjectService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// HealthCheck reports liveness for load balancer probes
// GET /health
func (h *ProjectHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProjects retrieves all projects for the user
// GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projects, err := h.projectService.List(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}

// CreateProject creates a new project
// POST /api/projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req services.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OwnerID = userID

	project, err := h.projectService.Create(r.Context(), &req)
	if err != nil {
		// A duplicate name returns the existing project with 409.
		HandleCreateConflict(w, err, func() (*models.Project, error) {
			projects, lerr := h.projectService.List(r.Context(), userID)
			if lerr != nil {
				return nil, lerr
			}
			for i := range projects {
				if projects[i].Name == req.Name {
					return &projects[i], nil
				}
			}
			return nil, domain.ErrNotFound
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// GetProject retrieves a project by ID
// GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	project, err := h.projectService.Get(r.Context(), id, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// UploadDocument attaches a parsed source document to a project
// POST /api/projects/{id}/documents
func (h *ProjectHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projectID := r.PathValue("id")
	if _, err := h.projectService.Get(r.Context(), projectID, userID); err != nil {
		handleError(w, err)
		return
	}

	var req services.UploadDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ProjectID = projectID

	doc, err := h.projectService.UploadDocument(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// ListDocuments lists the source documents attached to a project
// GET /api/projects/{id}/documents
func (h *ProjectHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	projectID := r.PathValue("id")
	if _, err := h.projectService.Get(r.Context(), projectID, userID); err != nil {
		handleError(w, err)
		return
	}

	docs, err := h.projectService.ListDocuments(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	if docs == nil {
		docs = []models.Document{}
	}
	httputil.RespondJSON(w, http.StatusOK, docs)
}
