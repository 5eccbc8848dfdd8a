package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"soaforge/internal/domain/services"
	"soaforge/internal/httputil"
)

// VersionHandler handles version history HTTP requests
type VersionHandler struct {
	versionService services.VersionService
	projectService services.ProjectService
	logger         *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(versionService services.VersionService, projectService services.ProjectService, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		versionService: versionService,
		projectService: projectService,
		logger:         logger,
	}
}

func (h *VersionHandler) authorize(w http.ResponseWriter, r *http.Request) (projectID, userID string, ok bool) {
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

func parseVersionNumber(w http.ResponseWriter, raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		httputil.RespondError(w, http.StatusBadRequest, "version number must be a positive integer")
		return 0, false
	}
	return n, true
}

// GetVersions serves three reads from one route. With no query
// parameters it lists the history oldest first. With ?version=N it
// reconstructs the document as it was at version N. With ?compare=A,B
// it returns the patch transforming version A into version B.
// GET /api/projects/{id}/versions
func (h *VersionHandler) GetVersions(w http.ResponseWriter, r *http.Request) {
	projectID, _, ok := h.authorize(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	switch {
	case query.Get("version") != "":
		h.contentAt(w, r, projectID, query.Get("version"))
	case query.Get("compare") != "":
		h.compare(w, r, projectID, query.Get("compare"))
	default:
		h.history(w, r, projectID)
	}
}

func (h *VersionHandler) history(w http.ResponseWriter, r *http.Request, projectID string) {
	history, err := h.versionService.History(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	if history == nil {
		history = []services.HistoryEntry{}
	}
	httputil.RespondJSON(w, http.StatusOK, history)
}

func (h *VersionHandler) contentAt(w http.ResponseWriter, r *http.Request, projectID, raw string) {
	number, ok := parseVersionNumber(w, raw)
	if !ok {
		return
	}

	sections, err := h.versionService.ContentAtVersion(r.Context(), projectID, number)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"version":  number,
		"sections": sections,
	})
}

func (h *VersionHandler) compare(w http.ResponseWriter, r *http.Request, projectID, raw string) {
	from, to, ok := parseComparePair(w, raw)
	if !ok {
		return
	}

	comparison, err := h.versionService.Compare(r.Context(), projectID, from, to)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, comparison)
}

func parseComparePair(w http.ResponseWriter, raw string) (from, to int, ok bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		httputil.RespondError(w, http.StatusBadRequest, "compare must be two version numbers, e.g. compare=1,3")
		return 0, 0, false
	}
	from, ok = parseVersionNumber(w, strings.TrimSpace(parts[0]))
	if !ok {
		return 0, 0, false
	}
	to, ok = parseVersionNumber(w, strings.TrimSpace(parts[1]))
	if !ok {
		return 0, 0, false
	}
	return from, to, true
}

// RollbackVersion restores an earlier snapshot as a new version
// POST /api/projects/{id}/versions
func (h *VersionHandler) RollbackVersion(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req struct {
		TargetVersion int `json:"target_version"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TargetVersion < 1 {
		httputil.RespondError(w, http.StatusBadRequest, "target_version must be a positive integer")
		return
	}

	newVersion, err := h.versionService.Rollback(r.Context(), projectID, req.TargetVersion, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"rolled_back_to": req.TargetVersion,
		"new_version":    newVersion,
	})
}
