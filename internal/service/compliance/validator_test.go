package compliance

import (
	"strings"
	"testing"

	"soaforge/internal/catalog"
	"soaforge/internal/domain/models"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewValidator(cat)
}

func section(key, text string) models.Section {
	return models.Section{
		SectionKey: key,
		Title:      key,
		Content:    models.SectionContent{Text: text},
		Status:     models.SectionStatusGenerated,
		Sources:    []models.SourceRef{{DocumentName: "fact-find.pdf", Excerpt: "excerpt"}},
	}
}

func completeDocument() []models.Section {
	long := strings.Repeat("substantive advice content. ", 5)
	sections := []models.Section{
		section("M1", long),
		section("M2", long),
		section("M5", long),
		section("M8", "The ongoing advice fee is $3,300 per annum including GST."),
		section("M9", long),
		section("M10", long),
	}
	return sections
}

func hasFinding(findings []string, substr string) bool {
	for _, f := range findings {
		if strings.Contains(f, substr) {
			return true
		}
	}
	return false
}

func TestValidate_CompleteDocumentPasses(t *testing.T) {
	v := newValidator(t)

	findings := v.Validate(completeDocument())
	if len(findings.CriticalIssues) != 0 {
		t.Errorf("unexpected critical issues: %v", findings.CriticalIssues)
	}
	if len(findings.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", findings.Warnings)
	}
}

func TestValidate_MissingRequiredSections(t *testing.T) {
	v := newValidator(t)

	findings := v.Validate([]models.Section{
		section("M1", strings.Repeat("background content. ", 5)),
	})

	for _, key := range []string{"M2", "M5", "M8", "M9", "M10"} {
		if !hasFinding(findings.CriticalIssues, "required section "+key) {
			t.Errorf("expected critical issue for missing %s, got %v", key, findings.CriticalIssues)
		}
	}
	// M3 is optional; its absence must not be flagged.
	if hasFinding(findings.CriticalIssues, "required section M3") {
		t.Errorf("M3 should not be required")
	}
}

func TestValidate_EmptyAndPlaceholderContent(t *testing.T) {
	v := newValidator(t)

	docs := completeDocument()
	docs[0].Content = models.SectionContent{}
	docs[1].Content = models.SectionContent{Text: "TBC"}

	findings := v.Validate(docs)
	if !hasFinding(findings.CriticalIssues, "M1 has no content") {
		t.Errorf("expected critical issue for empty M1, got %v", findings.CriticalIssues)
	}
	if !hasFinding(findings.Warnings, "M2 content looks like a placeholder") {
		t.Errorf("expected placeholder warning for M2, got %v", findings.Warnings)
	}
}

func TestValidate_BulletsAndTablesAreNotPlaceholders(t *testing.T) {
	v := newValidator(t)

	docs := completeDocument()
	docs[1].Content = models.SectionContent{Bullets: []string{"Retire at 60", "Pay off mortgage"}}

	findings := v.Validate(docs)
	if hasFinding(findings.Warnings, "M2") {
		t.Errorf("bullet content flagged as placeholder: %v", findings.Warnings)
	}
}

func TestValidate_MissingFieldSeverity(t *testing.T) {
	v := newValidator(t)

	docs := completeDocument()
	docs[0].MissingFields = []string{"client date of birth", "preferred contact method"}

	findings := v.Validate(docs)
	if !hasFinding(findings.CriticalIssues, "client date of birth") {
		t.Errorf("client data gap should be critical, got %v", findings.CriticalIssues)
	}
	if !hasFinding(findings.Warnings, "preferred contact method") {
		t.Errorf("cosmetic gap should be a warning, got %v", findings.Warnings)
	}
}

func TestValidate_UnsourcedGeneratedSections(t *testing.T) {
	v := newValidator(t)

	docs := completeDocument()
	docs[0].Sources = nil
	docs[1].Sources = nil
	// Reviewed sections are human-vetted; no attribution expected.
	docs[2].Sources = nil
	docs[2].Status = models.SectionStatusReviewed

	findings := v.Validate(docs)
	if !hasFinding(findings.Warnings, "2 generated sections cite no source") {
		t.Errorf("expected unsourced warning for exactly 2 sections, got %v", findings.Warnings)
	}
}

func TestValidate_FeeDisclosure(t *testing.T) {
	v := newValidator(t)

	docs := completeDocument()
	docs[3].Content = models.SectionContent{Text: "This section intentionally describes nothing about remuneration."}

	findings := v.Validate(docs)
	if !hasFinding(findings.CriticalIssues, "does not disclose any fees") {
		t.Errorf("expected fee disclosure issue, got %v", findings.CriticalIssues)
	}

	// A fee table in a child section satisfies disclosure.
	docs[3].Content = models.SectionContent{Text: "See the breakdown below for remuneration details."}
	docs = append(docs, models.Section{
		SectionKey: "M8_S1",
		Title:      "Advice Fees",
		Content: models.SectionContent{
			Tables: []models.Table{{
				Headers: []string{"Item", "Amount"},
				Rows:    [][]string{{"Initial advice fee", "$2,500"}},
			}},
		},
		Status:  models.SectionStatusGenerated,
		Sources: []models.SourceRef{{DocumentName: "fsg.pdf"}},
	})

	findings = v.Validate(docs)
	if hasFinding(findings.CriticalIssues, "does not disclose any fees") {
		t.Errorf("child fee table should satisfy disclosure, got %v", findings.CriticalIssues)
	}
}
