package handler

import (
	"log/slog"
	"net/http"

	"soaforge/internal/domain/models"
	"soaforge/internal/domain/services"
	"soaforge/internal/httputil"
)

// CommentHandler handles review comment HTTP requests
type CommentHandler struct {
	commentService services.CommentService
	projectService services.ProjectService
	logger         *slog.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService services.CommentService, projectService services.ProjectService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		projectService: projectService,
		logger:         logger,
	}
}

func (h *CommentHandler) authorize(w http.ResponseWriter, r *http.Request) (projectID, userID string, ok bool) {
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

// CreateComment opens a review comment against a section
// POST /api/projects/{id}/sections/{key}/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	projectID, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ProjectID = projectID
	req.AuthorID = userID
	req.SectionKey = r.PathValue("key")

	comment, err := h.commentService.Create(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, comment)
}

// ListComments lists the comments on a section, oldest first
// GET /api/projects/{id}/sections/{key}/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	projectID, _, ok := h.authorize(w, r)
	if !ok {
		return
	}

	comments, err := h.commentService.ListBySection(r.Context(), projectID, r.PathValue("key"))
	if err != nil {
		handleError(w, err)
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	httputil.RespondJSON(w, http.StatusOK, comments)
}

// ResolveComment marks a comment resolved
// POST /api/projects/{id}/comments/{commentID}/resolve
func (h *CommentHandler) ResolveComment(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	comment, err := h.commentService.Resolve(r.Context(), r.PathValue("commentID"), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, comment)
}
