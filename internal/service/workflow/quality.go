package workflow

import (
	"strings"
	"unicode"
)

// goodQualityScore is the advisory threshold below which a source
// document is flagged as thin material for generation.
const goodQualityScore = 50

// financialTerms are the markers of substantive advice source material.
// A fact find or risk profile mentions several of these; a cover letter
// mentions none.
var financialTerms = []string{
	"income", "salary", "super", "asset", "liabilit", "mortgage",
	"insurance", "retire", "invest", "fee", "risk", "goal",
}

var placeholderMarkers = []string{
	"lorem ipsum", "tbd", "to be confirmed", "xxx", "[insert",
}

// DocumentQuality scores how useful a parsed source document is as
// generation input. The score is advisory: it never blocks a run, it
// only drives warnings at the parse step.
type DocumentQuality struct {
	Score int      `json:"score"`
	Notes []string `json:"notes,omitempty"`
}

// assessDocumentQuality scores text out of 100 on length, financial
// vocabulary, presence of figures and absence of placeholder markers.
func assessDocumentQuality(text string) DocumentQuality {
	quality := DocumentQuality{Notes: []string{}}
	lower := strings.ToLower(text)

	// Length: up to 30 points, saturating at 2000 characters.
	lengthPoints := len(text) / 100 * 2
	if lengthPoints > 30 {
		lengthPoints = 30
	}
	quality.Score += lengthPoints
	if lengthPoints < 10 {
		quality.Notes = append(quality.Notes, "document is very short")
	}

	// Financial vocabulary: 5 points per distinct term, up to 40.
	termHits := 0
	for _, term := range financialTerms {
		if strings.Contains(lower, term) {
			termHits++
		}
	}
	termPoints := termHits * 5
	if termPoints > 40 {
		termPoints = 40
	}
	quality.Score += termPoints
	if termHits < 3 {
		quality.Notes = append(quality.Notes, "little financial vocabulary found")
	}

	// Figures: numbers and dates carry the client's actual data.
	if containsDigit(text) {
		quality.Score += 30
	} else {
		quality.Notes = append(quality.Notes, "no figures or dates found")
	}

	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			quality.Score -= 20
			quality.Notes = append(quality.Notes, "contains placeholder text")
			break
		}
	}
	if quality.Score < 0 {
		quality.Score = 0
	}

	return quality
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
