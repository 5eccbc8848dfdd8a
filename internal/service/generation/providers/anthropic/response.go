package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"soaforge/internal/catalog"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/services"
)

// wireSection is the JSON shape the model is asked to produce.
type wireSection struct {
	SectionKey    string                `json:"section_key"`
	Title         string                `json:"title"`
	Content       models.SectionContent `json:"content"`
	Sources       []wireSource          `json:"sources"`
	MissingFields []string              `json:"missing_fields"`
}

type wireSource struct {
	DocumentName string `json:"document_name"`
	Excerpt      string `json:"excerpt"`
	Location     string `json:"location"`
}

// parseSections extracts generated sections from the model's reply.
// Parsing is deliberately lenient: sections with unknown keys or no
// content are dropped and reported, not fatal, so partial output still
// produces a usable draft.
func parseSections(raw string, docs []services.SourceDocument, cat *catalog.Catalog) ([]services.GeneratedSection, []error) {
	payload := extractJSONArray(raw)
	if payload == "" {
		return nil, []error{fmt.Errorf("no JSON array in model output")}
	}

	var wire []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, []error{fmt.Errorf("decode section array: %w", err)}
	}

	docIDByName := make(map[string]string, len(docs))
	for _, d := range docs {
		docIDByName[d.Name] = d.ID
	}

	var (
		sections []services.GeneratedSection
		errs     []error
	)
	for i, rawSection := range wire {
		var ws wireSection
		if err := json.Unmarshal(rawSection, &ws); err != nil {
			errs = append(errs, fmt.Errorf("section %d: %w", i, err))
			continue
		}
		if _, known := cat.Get(ws.SectionKey); !known {
			errs = append(errs, fmt.Errorf("section %d: unknown key %q", i, ws.SectionKey))
			continue
		}
		if ws.Content.IsEmpty() {
			errs = append(errs, fmt.Errorf("section %s: empty content", ws.SectionKey))
			continue
		}

		sources := make([]models.SourceRef, 0, len(ws.Sources))
		for _, src := range ws.Sources {
			sources = append(sources, models.SourceRef{
				DocumentID:   docIDByName[src.DocumentName],
				DocumentName: src.DocumentName,
				Excerpt:      src.Excerpt,
				Location:     src.Location,
			})
		}

		sections = append(sections, services.GeneratedSection{
			SectionKey:    ws.SectionKey,
			Title:         ws.Title,
			Content:       ws.Content,
			Sources:       sources,
			MissingFields: ws.MissingFields,
		})
	}

	return sections, errs
}

// extractJSONArray returns the outermost JSON array in text, tolerating
// markdown fences and prose around it.
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}
