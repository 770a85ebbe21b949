// Package zonemap holds the canonical zoning vocabulary for Curitiba and
// the normalization of raw codes found in shapefiles and API responses.
//
// Raw codes come in many spellings (ZR4, ZR-4-LV, EACB). Normalization maps
// every known variant onto the canonical code used by the parameter tables
// of Lei 15.511/2019.
package zonemap

import "strings"

// Info describes one canonical zone.
type Info struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Articles []string `json:"articles,omitempty"`
	Tables   []string `json:"tables,omitempty"`
}

// variants maps raw zoning codes to their canonical form. Raw codes not in
// this table pass through unchanged after cleanup, so unexpected codes stay
// visible instead of being silently dropped.
var variants = map[string]string{
	// residential
	"ZR1":     "ZR-1",
	"ZR2":     "ZR-2",
	"ZR3":     "ZR-3",
	"ZR4":     "ZR-4",
	"ZR-4-LV": "ZR-4",
	"ZR3-T":   "ZR-3",
	"ZROC":    "ZR-1",
	"ZROI":    "ZR-1",

	// central
	"ZCC":   "ZCC.4",
	"ZCC4":  "ZCC.4",
	"ZCC-4": "ZCC.4",
	"ZCSF":  "ZC",
	"ZCUM":  "ZC",

	// mixed use
	"ZUMVP": "ZUM-1",
	"ZM":    "ZUM-1",

	// habitational
	"ZH1":  "ZH-1",
	"ZH2":  "ZR-2",
	"ZH-2": "ZR-2",

	// industrial and services
	"ZI-LV":   "ZI",
	"ZS-2-LV": "ZS-2",
	"ZSM":     "ZS-1",

	// special sectors and transit axes
	"SE-LV":   "ZR-4",
	"POLO-LV": "ZR-4",
	"EAC":     "ZUM-2",
	"EACB":    "ZUM-2",
	"EACF":    "ZUM-2",
	"EMF":     "ZUM-1",
	"EE":      "ZUM-1",
	"ENC":     "ZUM-1",

	// ecological and low-density special zones
	"ECO-1":        "ZR-1",
	"ECO-2":        "ZR-1",
	"ECO-3":        "ZR-1",
	"ECO-4":        "ZR-1",
	"ECL-3":        "ZR-1",
	"ECS-1":        "ZR-1",
	"ZE":           "ZR-2",
	"ZED-LV":       "ZR-2",
	"ZFR":          "ZR-1",
	"ZPS":          "ZR-1",
	"ZT-LV":        "ZR-3",
	"UC":           "ZR-2",
	"APA-IGUAÇU":   "ZR-1",
	"APA-IGUACU":   "ZR-1",
	"APA-PASSAÚNA": "ZR-1",
	"APA-PASSAUNA": "ZR-1",
}

// registry lists the canonical zones the parameter tables cover.
var registry = []Info{
	{Code: "ZR-1", Name: "Zona Residencial 1", Kind: "residencial", Articles: []string{"39", "40"}, Tables: []string{"XVI", "XVII"}},
	{Code: "ZR-2", Name: "Zona Residencial 2", Kind: "residencial", Articles: []string{"41", "42"}, Tables: []string{"XVIII", "XIX"}},
	{Code: "ZR-3", Name: "Zona Residencial 3", Kind: "residencial", Articles: []string{"43", "44"}, Tables: []string{"XX", "XXI"}},
	{Code: "ZR-4", Name: "Zona Residencial 4", Kind: "residencial", Articles: []string{"45", "46"}, Tables: []string{"XXII", "XXIII"}},
	{Code: "SEHIS", Name: "Setor Especial de Habitação de Interesse Social", Kind: "setor_especial", Articles: []string{"75", "76"}, Tables: []string{"LXX", "LXXI"}},
	{Code: "ZC", Name: "Zona Central", Kind: "central", Articles: []string{"55", "56"}, Tables: []string{"XXXII", "XXXIII"}},
	{Code: "ZCC.4", Name: "Zona Centro Cívico", Kind: "central", Articles: []string{"57", "58"}, Tables: []string{"XXXIV", "XXXV"}},
	{Code: "ZH-1", Name: "Zona Histórica 1", Kind: "central", Articles: []string{"59", "60"}, Tables: []string{"XXXVI", "XXXVII"}},
	{Code: "ZUM-1", Name: "Zona de Uso Misto 1", Kind: "uso_misto", Articles: []string{"61", "62"}, Tables: []string{"XXXVIII", "XXXIX"}},
	{Code: "ZUM-2", Name: "Zona de Uso Misto 2", Kind: "uso_misto", Articles: []string{"63", "64"}, Tables: []string{"XL", "XLI"}},
	{Code: "ZUM-3", Name: "Zona de Uso Misto 3", Kind: "uso_misto", Articles: []string{"65", "66"}, Tables: []string{"XLII", "XLIII"}},
	{Code: "ZI", Name: "Zona Industrial", Kind: "industrial", Articles: []string{"67", "68"}, Tables: []string{"XLIV", "XLV"}},
	{Code: "ZS-1", Name: "Zona de Serviços 1", Kind: "servicos", Articles: []string{"69", "70"}, Tables: []string{"XLVI", "XLVII"}},
	{Code: "ZS-2", Name: "Zona de Serviços 2", Kind: "servicos", Articles: []string{"71", "72"}, Tables: []string{"XLVIII", "XLIX"}},
}

var byCode = func() map[string]Info {
	m := make(map[string]Info, len(registry))
	for _, z := range registry {
		m[z.Code] = z
	}
	return m
}()

// DefaultZone is assumed when no detector produces an actionable answer.
const DefaultZone = "ZR-4"

// Normalize maps a raw zoning code onto its canonical form. Unknown codes
// are returned cleaned (uppercased, trimmed) but otherwise untouched.
func Normalize(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	code = strings.Trim(code, ".")
	// Underscore spellings (ZR_4) appear in some dataset exports.
	code = strings.ReplaceAll(code, "_", "-")
	if code == "" {
		return ""
	}
	if canon, ok := variants[code]; ok {
		return canon
	}
	// Collapse spaced spellings like "ZR 4".
	if compact := strings.ReplaceAll(code, " ", ""); compact != code {
		if canon, ok := variants[compact]; ok {
			return canon
		}
		if _, ok := byCode[compact]; ok {
			return compact
		}
		code = compact
	}
	return code
}

// Known reports whether code is a canonical zone with parameter coverage.
func Known(code string) bool {
	_, ok := byCode[code]
	return ok
}

// Lookup returns the registry entry for a canonical code.
func Lookup(code string) (Info, bool) {
	z, ok := byCode[code]
	return z, ok
}

// All returns the canonical zones in registry order.
func All() []Info {
	out := make([]Info, len(registry))
	copy(out, registry)
	return out
}

// LowDensityResidential reports whether the zone restricts lots to
// single-family style occupation (at most two dwelling units).
func LowDensityResidential(code string) bool {
	return code == "ZR-1" || code == "ZR-2"
}
