// Package compliance runs advisory checks over a generated advice
// document. Findings are surfaced at the approval steps for a human to
// weigh; they never block the workflow on their own.
package compliance

import (
	"fmt"
	"strings"

	"soaforge/internal/catalog"
	"soaforge/internal/domain/models"
	"soaforge/internal/domain/services"
)

// requiredMainSections are the top-level sections an advice document
// cannot ship without. ASIC RG 175 drives most of these: the client's
// circumstances, the advice itself, the basis for it, costs and the
// authority to proceed.
var requiredMainSections = []string{"M1", "M2", "M5", "M8", "M9", "M10"}

// criticalFieldMarkers flag missing data that undermines the advice
// itself rather than its presentation.
var criticalFieldMarkers = []string{"client", "income", "super", "asset", "liabilit"}

// feeMarkers must appear somewhere in the fees section for cost
// disclosure to count as present.
var feeMarkers = []string{"fee", "cost", "charge", "commission", "%", "$"}

// minSubstantiveTextLength is the shortest text that counts as real
// content rather than a placeholder.
const minSubstantiveTextLength = 40

// Validator implements services.ComplianceValidator against the section
// template catalog.
type Validator struct {
	catalog *catalog.Catalog
}

// NewValidator creates a compliance validator.
func NewValidator(cat *catalog.Catalog) *Validator {
	return &Validator{catalog: cat}
}

var _ services.ComplianceValidator = (*Validator)(nil)

// Validate runs every check over the section set and returns the
// aggregate findings. Always returns initialized slices so the JSON
// shape is stable for consumers.
func (v *Validator) Validate(sections []models.Section) services.Findings {
	findings := services.Findings{
		CriticalIssues: []string{},
		Warnings:       []string{},
	}

	byKey := make(map[string]models.Section, len(sections))
	for _, s := range sections {
		byKey[s.SectionKey] = s
	}

	v.checkRequiredSections(byKey, &findings)
	v.checkContent(sections, &findings)
	v.checkMissingFields(sections, &findings)
	v.checkSourceAttribution(sections, &findings)
	v.checkFeeDisclosure(byKey, &findings)

	return findings
}

func (v *Validator) checkRequiredSections(byKey map[string]models.Section, findings *services.Findings) {
	for _, key := range requiredMainSections {
		if _, ok := byKey[key]; ok {
			continue
		}
		title := key
		if tpl, ok := v.catalog.Get(key); ok {
			title = tpl.Title
		}
		findings.CriticalIssues = append(findings.CriticalIssues,
			fmt.Sprintf("required section %s (%s) is missing", key, title))
	}
}

func (v *Validator) checkContent(sections []models.Section, findings *services.Findings) {
	for _, s := range sections {
		if s.Content.IsEmpty() {
			findings.CriticalIssues = append(findings.CriticalIssues,
				fmt.Sprintf("section %s has no content", s.SectionKey))
			continue
		}
		if isPlaceholder(s.Content) {
			findings.Warnings = append(findings.Warnings,
				fmt.Sprintf("section %s content looks like a placeholder", s.SectionKey))
		}
	}
}

func (v *Validator) checkMissingFields(sections []models.Section, findings *services.Findings) {
	for _, s := range sections {
		for _, field := range s.MissingFields {
			if isCriticalField(field) {
				findings.CriticalIssues = append(findings.CriticalIssues,
					fmt.Sprintf("section %s is missing critical data: %s", s.SectionKey, field))
			} else {
				findings.Warnings = append(findings.Warnings,
					fmt.Sprintf("section %s is missing data: %s", s.SectionKey, field))
			}
		}
	}
}

func (v *Validator) checkSourceAttribution(sections []models.Section, findings *services.Findings) {
	unsourced := 0
	for _, s := range sections {
		if s.Status == models.SectionStatusGenerated && len(s.Sources) == 0 {
			unsourced++
		}
	}
	if unsourced > 0 {
		findings.Warnings = append(findings.Warnings,
			fmt.Sprintf("%d generated sections cite no source documents", unsourced))
	}
}

func (v *Validator) checkFeeDisclosure(byKey map[string]models.Section, findings *services.Findings) {
	fees, ok := byKey["M8"]
	if !ok {
		// Absence is already a critical issue from the required check.
		return
	}
	text := strings.ToLower(flattenContent(fees.Content))
	for _, child := range v.catalog.Children("M8") {
		if s, ok := byKey[child]; ok {
			text += " " + strings.ToLower(flattenContent(s.Content))
		}
	}
	for _, marker := range feeMarkers {
		if strings.Contains(text, marker) {
			return
		}
	}
	findings.CriticalIssues = append(findings.CriticalIssues,
		"fees section M8 does not disclose any fees or costs")
}

func isCriticalField(field string) bool {
	lower := strings.ToLower(field)
	for _, marker := range criticalFieldMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func isPlaceholder(c models.SectionContent) bool {
	if len(c.Tables) > 0 || len(c.Bullets) > 0 {
		return false
	}
	text := strings.TrimSpace(c.Text)
	if len(text) >= minSubstantiveTextLength {
		return false
	}
	return true
}

func flattenContent(c models.SectionContent) string {
	var b strings.Builder
	b.WriteString(c.Text)
	for _, bullet := range c.Bullets {
		b.WriteString(" ")
		b.WriteString(bullet)
	}
	for _, table := range c.Tables {
		for _, h := range table.Headers {
			b.WriteString(" ")
			b.WriteString(h)
		}
		for _, row := range table.Rows {
			for _, cell := range row {
				b.WriteString(" ")
				b.WriteString(cell)
			}
		}
	}
	return b.String()
}
