// Package registration infers social-housing (SEHIS) zoning from municipal
// registration numbers.
//
// Curitiba registration numbers open with a district code. A handful of
// districts are dominated by social-housing sectors, so a registration can
// flag a lot as SEHIS even when no address or coordinates are available.
// The tables here are provisional: they were reverse-engineered from known
// registrations and are only acted on above the actionability threshold.
package registration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/guiamarela/zonecheck/internal/model"
)

// ActionableConfidence is the minimum confidence at which a SEHIS signal
// from a registration number may override other detectors.
const ActionableConfidence = 0.5

// Analysis is the outcome of inspecting one registration number.
type Analysis struct {
	Registration string   `json:"registration"`
	Cleaned      string   `json:"cleaned"`
	LikelySEHIS  bool     `json:"likely_sehis"`
	Confidence   float64  `json:"confidence"`
	Evidence     []string `json:"evidence,omitempty"`
	District     string   `json:"district,omitempty"`
}

// districts maps known SEHIS district prefixes to area names. Two-digit
// codes are checked before three-digit codes.
var districts = map[string]string{
	"77": "Distrito SEHIS 77",

	"030": "CIC / Cidade Industrial",
	"031": "CIC / Cidade Industrial",
	"032": "CIC Extensão",
	"042": "Bairro Novo",
	"043": "Bairro Novo / COHAB",
	"045": "Sítio Cercado",
	"046": "Sítio Cercado / COHAB",
	"055": "Tatuquara",
	"056": "Tatuquara Norte",
	"057": "Tatuquara Sul",
	"058": "Umbará",
	"059": "Umbará / Vila Torres",
	"060": "Campo de Santana",
	"061": "Campo de Santana Norte",
}

// numberingPatterns match full registrations belonging to SEHIS districts.
var numberingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^03[0-2]\d{7,10}$`), // CIC
	regexp.MustCompile(`^04[2-3]\d{7,10}$`), // Bairro Novo
	regexp.MustCompile(`^04[5-6]\d{7,10}$`), // Sítio Cercado
	regexp.MustCompile(`^05[5-7]\d{7,10}$`), // Tatuquara
	regexp.MustCompile(`^05[8-9]\d{7,10}$`), // Umbará
	regexp.MustCompile(`^06[0-1]\d{7,10}$`), // Campo de Santana
}

var cleaner = regexp.MustCompile(`[.\-\s]`)

// Clean strips separators from a registration number.
func Clean(registration string) string {
	return cleaner.ReplaceAllString(strings.TrimSpace(registration), "")
}

// Analyze scores a registration number for SEHIS likelihood. Evidence is
// additive and capped at 1.0.
func Analyze(registration string) Analysis {
	a := Analysis{Registration: registration}
	if strings.TrimSpace(registration) == "" {
		a.Evidence = append(a.Evidence, "registration not provided")
		return a
	}

	clean := Clean(registration)
	a.Cleaned = clean

	if len(clean) >= 2 {
		if area, ok := districts[clean[:2]]; ok {
			a.Confidence += 0.8
			a.LikelySEHIS = true
			a.District = area
			a.Evidence = append(a.Evidence, fmt.Sprintf("district code %s: %s", clean[:2], area))
		} else if len(clean) >= 3 {
			if area, ok := districts[clean[:3]]; ok {
				a.Confidence += 0.7
				a.LikelySEHIS = true
				a.District = area
				a.Evidence = append(a.Evidence, fmt.Sprintf("district code %s: %s", clean[:3], area))
			}
		}
	}

	for _, p := range numberingPatterns {
		if p.MatchString(clean) {
			a.Confidence += 0.6
			a.Evidence = append(a.Evidence, "district numbering pattern match")
			break
		}
	}

	// Heuristic signals, weaker than district tables.
	if len(clean) > 12 {
		a.Confidence += 0.2
		a.Evidence = append(a.Evidence, "long registration typical of housing estates")
	}
	if hasRepeatedRun(clean) {
		a.Confidence += 0.1
		a.Evidence = append(a.Evidence, "sequential lot numbering pattern")
	}
	if strings.HasSuffix(clean, "000") || strings.HasSuffix(clean, "001") || strings.HasSuffix(clean, "002") {
		a.Confidence += 0.1
		a.Evidence = append(a.Evidence, "initial-lot suffix")
	}

	if a.Confidence > 1.0 {
		a.Confidence = 1.0
	}
	return a
}

// Candidate converts an analysis into a zone candidate, or nil when the
// registration carries no SEHIS signal at all.
func Candidate(registration string) *model.ZoneCandidate {
	a := Analyze(registration)
	if a.Confidence == 0 {
		return nil
	}
	details := strings.Join(a.Evidence, "; ")
	if !a.LikelySEHIS {
		// Weak heuristics alone never name a zone.
		return &model.ZoneCandidate{
			Zone:       "",
			Source:     model.SourceRegistration,
			Confidence: a.Confidence,
			Details:    details,
		}
	}
	return &model.ZoneCandidate{
		Zone:       "SEHIS",
		Source:     model.SourceRegistration,
		Confidence: a.Confidence,
		Details:    details,
	}
}

// hasRepeatedRun reports whether the digits contain an immediately repeated
// substring of length 2 to 4.
func hasRepeatedRun(s string) bool {
	for size := 2; size <= 4; size++ {
		for i := 0; i+2*size <= len(s); i++ {
			if s[i:i+size] == s[i+size:i+2*size] {
				return true
			}
		}
	}
	return false
}
