// Package textmatch estimates zoning from the text of an address when no
// geometric source can answer. Matching is done on accent-folded lowercase
// text, so "Sítio Cercado" and "sitio cercado" hit the same entry.
package textmatch

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/guiamarela/zonecheck/internal/model"
)

// Confidence levels for textual evidence. Social-housing area names are the
// strongest textual signal; street-type fallbacks stay below the
// actionability threshold on purpose.
const (
	ConfidenceSEHISArea    = 0.8
	ConfidenceNeighborhood = 0.6
	ConfidenceKeyword      = 0.5
	ConfidenceFallback     = 0.3
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and strips diacritics.
func Fold(s string) string {
	out, _, err := transform.String(foldChain, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// placeholders are tokens that mark a synthetic or unusable address.
var placeholders = []string{
	"inexistente",
	"99999",
	"sem nome",
	"bairro inexistente",
}

// IsPlaceholder reports whether the address is a synthetic filler value
// that no detector should be asked about.
func IsPlaceholder(address string) bool {
	folded := Fold(address)
	if folded == "" {
		return true
	}
	for _, p := range placeholders {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}

// sehisAreas are named areas dominated by social-housing sectors. Keys are
// accent-folded.
var sehisAreas = map[string]string{
	"cidade industrial de curitiba": "CIC",
	"tatuquara":                     "habitação social",
	"umbara":                        "habitação social",
	"sitio cercado":                 "COHAB",
	"campo de santana":              "habitação social",
	"vila torres":                   "habitação social",
	"bairro novo":                   "habitação social",
	"caximba":                       "habitação social",
	"conjunto habitacional":         "COHAB",
	"residencial social":            "habitação social",
	"loteamento social":             "habitação social",
}

// neighborhoods maps accent-folded neighborhood names to their predominant
// zone. Coarse by nature; matches are flagged as estimates downstream.
var neighborhoods = map[string]string{
	// central
	"centro civico":       "ZCC.4",
	"centro":              "ZC",
	"batel":               "ZUM-1",
	"agua verde":          "ZUM-2",
	"bigorrilho":          "ZUM-2",
	"merces":              "ZUM-1",
	"cabral":              "ZUM-1",
	"alto da gloria":      "ZUM-1",
	"juveve":              "ZUM-2",
	"jardim social":       "ZR-2",
	"hugo lange":          "ZR-3",
	"cristo rei":          "ZR-2",
	"jardim das americas": "ZR-3",

	// north
	"bacacheri":          "ZR-2",
	"boa vista":          "ZR-2",
	"barreirinha":        "ZR-1",
	"abranches":          "ZR-2",
	"cachoeira":          "ZR-1",
	"tingui":             "ZR-1",
	"bairro alto":        "ZR-2",
	"taruma":             "ZR-1",
	"santa candida":      "ZR-2",
	"jardim carvalho":    "ZR-2",
	"pilarzinho":         "ZR-2",
	"sao lourenco":       "ZR-2",
	"atuba":              "ZR-3",
	"jardim higienopolis": "ZR-2",

	// south
	"portao":          "ZR-2",
	"novo mundo":      "ZR-2",
	"pinheirinho":     "ZR-2",
	"capao da imbuia": "ZR-2",
	"xaxim":           "ZR-2",
	"hauer":           "ZR-2",
	"parolin":         "ZR-2",
	"vila izabel":     "ZR-2",
	"alto boqueirao":  "ZR-2",
	"boqueirao":       "ZR-2",
	"uberaba":         "ZR-2",
	"guabirotuba":     "ZR-2",
	"fanny":           "ZR-2",
	"lindoia":         "ZR-2",
	"campo comprido":  "ZR-2",
	"orleans":         "ZR-2",
	"cajuru":          "ZR-3",
	"vila guaira":     "ZR-2",
	"guaira":          "ZR-2",
	"butiatuvinha":    "ZR-1",

	// east
	"jardim botanico":  "ZR-3",
	"reboucas":         "ZR-2",
	"prado velho":      "ZR-2",
	"seminario":        "ZR-2",
	"sao francisco":    "ZR-2",
	"jardim ambiental": "ZR-2",
	"santa quiteria":   "ZR-1",
	"fazendinha":       "ZR-1",
	"santo inacio":     "ZR-1",

	// west
	"cidade industrial": "ZI",
	"augusta":           "ZR-2",
	"sao miguel":        "ZR-1",

	// Linha Verde corridor
	"linha verde":       "ZR-4",
	"jardim das flores":  "ZR-3",
	"santa felicidade":  "ZR-2",
	"vista alegre":      "ZR-2",
	"cascatinha":        "ZR-2",
	"sao braz":          "ZR-2",
}

// Match scans the address for zoning evidence, strongest first. Returns nil
// when the text carries no signal.
func Match(address string) *model.ZoneCandidate {
	folded := Fold(address)
	if folded == "" {
		return nil
	}

	for area, kind := range sehisAreas {
		if strings.Contains(folded, area) {
			return &model.ZoneCandidate{
				Zone:       "SEHIS",
				Source:     model.SourceTextual,
				Confidence: ConfidenceSEHISArea,
				Details:    "social housing area: " + area + " (" + kind + ")",
			}
		}
	}

	// Longest neighborhood match wins so "centro civico" beats "centro".
	var bestName, bestZone string
	for name, zone := range neighborhoods {
		if strings.Contains(folded, name) && len(name) > len(bestName) {
			bestName, bestZone = name, zone
		}
	}
	if bestName != "" {
		return &model.ZoneCandidate{
			Zone:       bestZone,
			Source:     model.SourceTextual,
			Confidence: ConfidenceNeighborhood,
			Details:    "neighborhood: " + bestName,
		}
	}

	if containsAny(folded, "praca", "rua xv", "rua quinze") {
		return &model.ZoneCandidate{Zone: "ZC", Source: model.SourceTextual, Confidence: ConfidenceKeyword, Details: "central street keyword"}
	}
	if containsAny(folded, "industrial", "galpao", "fabrica") {
		return &model.ZoneCandidate{Zone: "ZI", Source: model.SourceTextual, Confidence: ConfidenceKeyword, Details: "industrial keyword"}
	}

	return nil
}

// ContextualOverride returns corrections for addresses where the base maps
// are known to be wrong or outdated.
func ContextualOverride(address string) (string, bool) {
	folded := Fold(address)
	switch {
	case strings.Contains(folded, "joao negrao"):
		return "ZCC.4", true
	case strings.Contains(folded, "cidade industrial"):
		return "ZI", true
	case strings.Contains(folded, "praca tiradentes"):
		return "ZC", true
	}
	return "", false
}

var numberPattern = regexp.MustCompile(`\d+`)

// Fallback guesses a zone from the street type and numbering when nothing
// else answered. Confidence is intentionally below the actionable threshold.
func Fallback(address string) model.ZoneCandidate {
	folded := Fold(address)

	zone := "ZR-2"
	detail := "default residential pattern"
	switch {
	case containsAny(folded, "avenida", "av.", "av ", "marginal"):
		zone, detail = "ZR-4", "avenue street type"
	case containsAny(folded, "travessa", "trav.", "beco", "vila "):
		zone, detail = "ZR-1", "minor street type"
	case containsAny(folded, "rua", "r."):
		zone, detail = "ZR-2", "street type"
	default:
		if m := numberPattern.FindString(folded); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				switch {
				case n < 500:
					zone, detail = "ZC", "low street number"
				case n < 2000:
					zone, detail = "ZR-2", "mid street number"
				default:
					zone, detail = "ZR-1", "high street number"
				}
			}
		}
	}

	return model.ZoneCandidate{
		Zone:       zone,
		Source:     model.SourceFallback,
		Confidence: ConfidenceFallback,
		Details:    detail,
	}
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
