package geocuritiba

import (
	"regexp"
	"strings"
)

// Field names that carry the zone designation across GeoCuritiba layers
// and service versions. Matched case-insensitively.
var zoneKeys = []string{"sg_zona", "cd_zona", "nm_zona", "zoneamento", "zona", "zone", "uso_solo", "land_use"}

// extractZone walks an attribute map, including nested objects, and
// returns the first zone-like value. Preference follows zoneKeys order
// at each level.
func extractZone(attrs map[string]any) string {
	if len(attrs) == 0 {
		return ""
	}
	lowered := make(map[string]any, len(attrs))
	for k, v := range attrs {
		lowered[strings.ToLower(k)] = v
	}
	for _, key := range zoneKeys {
		if v, ok := lowered[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	// Nested objects come back from /find identify-style responses.
	for _, v := range lowered {
		if nested, ok := v.(map[string]any); ok {
			if z := extractZone(nested); z != "" {
				return z
			}
		}
	}
	return ""
}

// Some endpoints answer HTML error pages or legacy popups instead of
// JSON. A zone code embedded in the markup is better than nothing.
var (
	htmlTagPattern  = regexp.MustCompile(`<[^>]*>`)
	htmlZonePattern = regexp.MustCompile(`(?i:zon(?:a|eamento))[:\s]{0,10}([A-Z]{2,6}(?:[-.]\d+)?)`)
)

// extractZoneFromHTML scans raw markup for a zone designation near a
// "zona"/"zoneamento" label. The capture is case-sensitive so lowercase
// prose is not mistaken for a zone code. Returns "" when nothing
// plausible appears.
func extractZoneFromHTML(body string) string {
	text := htmlTagPattern.ReplaceAllString(body, " ")
	m := htmlZonePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
