package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"soaforge/internal/domain"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/repositories"
)

// CommentRepository is an in-memory CommentRepository.
type CommentRepository struct {
	store *Store
}

// NewCommentRepository creates an in-memory comment repository.
func NewCommentRepository(store *Store) repositories.CommentRepository {
	return &CommentRepository{store: store}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	cp := *comment
	r.store.comments[comment.SectionID] = append(r.store.comments[comment.SectionID], &cp)
	return nil
}

func (r *CommentRepository) ListBySection(ctx context.Context, sectionID string) ([]models.Comment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	comments := []models.Comment{}
	for _, c := range r.store.comments[sectionID] {
		comments = append(comments, *c)
	}
	return comments, nil
}

func (r *CommentRepository) Resolve(ctx context.Context, id string) (*models.Comment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, list := range r.store.comments {
		for _, c := range list {
			if c.ID == id {
				c.Status = models.CommentResolved
				cp := *c
				return &cp, nil
			}
		}
	}
	return nil, fmt.Errorf("comment %s: %w", id, domain.ErrNotFound)
}
