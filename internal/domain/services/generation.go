package services

import (
	"context"

	"soaforge/internal/domain/models"
)

// SourceDocument is the slice of a project document handed to the
// generation provider.
type SourceDocument struct {
	ID   string
	Name string
	Text string
}

// GeneratedSection is one section produced by a generation provider,
// before it is persisted.
type GeneratedSection struct {
	SectionKey    string
	Title         string
	Content       models.SectionContent
	Sources       []models.SourceRef
	MissingFields []string
}

// GenerationClient produces advice sections from source material. It is
// an opaque, fallible external collaborator: calls may time out, return
// malformed output, or return only a subset of the requested sections.
//
// A nil or empty sectionFilter requests the full template set; a
// non-empty filter requests regeneration of just those keys.
type GenerationClient interface {
	Generate(ctx context.Context, projectID string, docs []SourceDocument, sectionFilter []string) ([]GeneratedSection, error)
}
