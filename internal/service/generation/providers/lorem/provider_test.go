package lorem

import (
	"context"
	"testing"

	"soaforge/internal/catalog"
	"soaforge/internal/domain/services"
)

func newProvider(t *testing.T) *Provider {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewProvider(cat)
}

func docs() []services.SourceDocument {
	return []services.SourceDocument{{ID: "doc-1", Name: "fact-find.pdf", Text: "text"}}
}

func TestGenerate_FullCatalog(t *testing.T) {
	p := newProvider(t)

	sections, err := p.Generate(context.Background(), "p1", docs(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(sections) != len(p.catalog.Keys()) {
		t.Fatalf("got %d sections, want one per template (%d)", len(sections), len(p.catalog.Keys()))
	}

	for _, s := range sections {
		if s.Content.IsEmpty() {
			t.Errorf("section %s has empty content", s.SectionKey)
		}
		if len(s.Sources) == 0 {
			t.Errorf("section %s has no source attribution", s.SectionKey)
		}
	}
}

func TestGenerate_HonorsFilter(t *testing.T) {
	p := newProvider(t)

	sections, err := p.Generate(context.Background(), "p1", docs(), []string{"M1", "M3_S1", "NOPE"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2 (unknown keys skipped)", len(sections))
	}
	if sections[0].SectionKey != "M1" || sections[1].SectionKey != "M3_S1" {
		t.Errorf("keys = %s, %s", sections[0].SectionKey, sections[1].SectionKey)
	}
}

func TestGenerate_ContentMatchesTemplateShape(t *testing.T) {
	p := newProvider(t)

	sections, err := p.Generate(context.Background(), "p1", docs(), []string{"M2", "M3_S1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	byKey := map[string]services.GeneratedSection{}
	for _, s := range sections {
		byKey[s.SectionKey] = s
	}

	// M2 is a bullets template, M3_S1 a table template.
	if len(byKey["M2"].Content.Bullets) == 0 {
		t.Errorf("M2 should have bullets, got %+v", byKey["M2"].Content)
	}
	if len(byKey["M3_S1"].Content.Tables) == 0 {
		t.Errorf("M3_S1 should have a table, got %+v", byKey["M3_S1"].Content)
	}

	tpl, _ := p.catalog.Get("M3_S1")
	if tpl.Table != nil {
		got := byKey["M3_S1"].Content.Tables[0].Headers
		want := tpl.Table.Headers
		if len(got) != len(want) {
			t.Errorf("table headers = %v, want template headers %v", got, want)
		}
	}
}

func TestGenerate_NoDocuments(t *testing.T) {
	p := newProvider(t)

	if _, err := p.Generate(context.Background(), "p1", nil, nil); err == nil {
		t.Error("expected error with no source documents")
	}
}

func TestGenerate_RespectsContext(t *testing.T) {
	p := newProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Generate(ctx, "p1", docs(), nil); err == nil {
		t.Error("expected context error")
	}
}
