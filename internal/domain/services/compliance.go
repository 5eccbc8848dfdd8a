package services

import "soaforge/internal/domain/models"

// Findings is the advisory output of a compliance pass. Findings never
// block workflow progression; they are surfaced for human review at the
// approval steps.
type Findings struct {
	CriticalIssues []string `json:"critical_issues"`
	Warnings       []string `json:"warnings"`
}

// ComplianceValidator runs a read-only pass over a section set. It
// never mutates state and never errors for content-shape reasons.
type ComplianceValidator interface {
	Validate(sections []models.Section) Findings
}
