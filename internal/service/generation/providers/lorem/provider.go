// Package lorem is a mock generation provider that drafts lorem ipsum
// sections. Used for development and tests without requiring real API
// keys; the full workflow runs against it end to end.
package lorem

import (
	"context"
	"fmt"

	loremgen "github.com/bozaro/golorem"

	"soaforge/internal/catalog"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/services"
)

// Provider implements the GenerationClient interface with generated
// placeholder text shaped to each template's content type.
type Provider struct {
	generator *loremgen.Lorem
	catalog   *catalog.Catalog
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider(cat *catalog.Catalog) *Provider {
	return &Provider{
		generator: loremgen.New(),
		catalog:   cat,
	}
}

var _ services.GenerationClient = (*Provider)(nil)

// Generate produces one placeholder section per requested template.
func (p *Provider) Generate(ctx context.Context, projectID string, docs []services.SourceDocument, sectionFilter []string) ([]services.GeneratedSection, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no source documents to generate from")
	}

	keys := sectionFilter
	if len(keys) == 0 {
		keys = p.catalog.Keys()
	}

	var sections []services.GeneratedSection
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tpl, ok := p.catalog.Get(key)
		if !ok {
			continue
		}
		sections = append(sections, services.GeneratedSection{
			SectionKey: tpl.Key,
			Title:      tpl.Title,
			Content:    p.contentFor(tpl),
			Sources: []models.SourceRef{
				{
					DocumentID:   docs[0].ID,
					DocumentName: docs[0].Name,
					Excerpt:      p.generator.Sentence(5, 10),
				},
			},
		})
	}
	return sections, nil
}

func (p *Provider) contentFor(tpl catalog.Template) models.SectionContent {
	switch tpl.ContentType {
	case models.ContentTypeTable:
		return models.SectionContent{Tables: []models.Table{p.table(tpl)}}
	case models.ContentTypeBullets:
		return models.SectionContent{Bullets: p.bullets(4)}
	case models.ContentTypeMixed:
		return models.SectionContent{
			Text:    p.generator.Paragraph(2, 4),
			Bullets: p.bullets(3),
		}
	default:
		return models.SectionContent{Text: p.generator.Paragraph(3, 5)}
	}
}

func (p *Provider) bullets(n int) []string {
	bullets := make([]string, n)
	for i := range bullets {
		bullets[i] = p.generator.Sentence(4, 10)
	}
	return bullets
}

func (p *Provider) table(tpl catalog.Template) models.Table {
	headers := []string{"Item", "Detail"}
	if tpl.Table != nil && len(tpl.Table.Headers) > 0 {
		headers = tpl.Table.Headers
	}
	rows := make([][]string, 3)
	for i := range rows {
		row := make([]string, len(headers))
		for j := range row {
			row[j] = p.generator.Word(3, 12)
		}
		rows[i] = row
	}
	return models.Table{Headers: headers, Rows: rows}
}
