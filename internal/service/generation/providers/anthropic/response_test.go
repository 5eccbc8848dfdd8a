package anthropic

import (
	"testing"

	"soaforge/internal/catalog"
	"soaforge/internal/domain/services"
)

func testDocs() []services.SourceDocument {
	return []services.SourceDocument{
		{ID: "doc-1", Name: "fact-find.pdf", Text: "client data"},
	}
}

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}

func TestParseSections(t *testing.T) {
	raw := "Here are the drafted sections:\n```json\n" + `[
		{
			"section_key": "M1",
			"title": "Client Background",
			"content": {"text": "John and Jane Smith are seeking advice on retirement."},
			"sources": [{"document_name": "fact-find.pdf", "excerpt": "seeking advice on retirement", "location": "p. 2"}],
			"missing_fields": []
		},
		{
			"section_key": "M2",
			"title": "Summary of Advice",
			"content": {"bullets": ["Consolidate superannuation", "Commence salary sacrifice"]},
			"sources": []
		}
	]` + "\n```"

	sections, errs := parseSections(raw, testDocs(), loadCatalog(t))
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}

	if sections[0].SectionKey != "M1" {
		t.Errorf("section 0 key = %s", sections[0].SectionKey)
	}
	if sections[0].Sources[0].DocumentID != "doc-1" {
		t.Errorf("source not mapped to document ID: %+v", sections[0].Sources[0])
	}
	if sections[0].Sources[0].Location != "p. 2" {
		t.Errorf("location = %q", sections[0].Sources[0].Location)
	}
	if len(sections[1].Content.Bullets) != 2 {
		t.Errorf("M2 bullets = %d, want 2", len(sections[1].Content.Bullets))
	}
}

func TestParseSections_DropsBadEntriesKeepsGood(t *testing.T) {
	raw := `[
		{"section_key": "M1", "title": "Client Background", "content": {"text": "valid"}},
		{"section_key": "TOTALLY_MADE_UP", "title": "Hallucinated", "content": {"text": "x"}},
		{"section_key": "M2", "title": "Empty", "content": {}},
		{"section_key": "M5", "title": "Recommendations", "content": {"text": "also valid"}}
	]`

	sections, errs := parseSections(raw, testDocs(), loadCatalog(t))
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2 survivors", len(sections))
	}
	if sections[0].SectionKey != "M1" || sections[1].SectionKey != "M5" {
		t.Errorf("survivors = %s, %s", sections[0].SectionKey, sections[1].SectionKey)
	}
	if len(errs) != 2 {
		t.Errorf("got %d parse errors, want 2: %v", len(errs), errs)
	}
}

func TestParseSections_NoArray(t *testing.T) {
	sections, errs := parseSections("I could not process these documents.", testDocs(), loadCatalog(t))
	if sections != nil {
		t.Errorf("expected no sections, got %+v", sections)
	}
	if len(errs) != 1 {
		t.Errorf("expected one error, got %v", errs)
	}
}

func TestParseSections_UnknownDocumentName(t *testing.T) {
	raw := `[
		{
			"section_key": "M1",
			"title": "Client Background",
			"content": {"text": "content"},
			"sources": [{"document_name": "made-up.pdf", "excerpt": "quote"}]
		}
	]`

	sections, errs := parseSections(raw, testDocs(), loadCatalog(t))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	// Name is preserved for display even when no uploaded document matches.
	src := sections[0].Sources[0]
	if src.DocumentID != "" || src.DocumentName != "made-up.pdf" {
		t.Errorf("source = %+v", src)
	}
}
