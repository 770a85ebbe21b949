// Package geocode resolves Curitiba street addresses to WGS84 coordinates
// through a cascade of public providers (ViaCEP, Nominatim, Photon).
package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Result holds the geocoding output for an address.
type Result struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Source  string  `json:"source"`
	Matched bool    `json:"matched"`
}

// Provider represents a single geocoding backend.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (*Result, error)
	Available() bool
}

// Client geocodes a single address.
type Client interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

const defaultUserAgent = "zonecheck/1.0 (+https://github.com/guiamarela/zonecheck)"

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

var keyFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// withCityContext anchors a free-text query to Curitiba unless the
// address already names the city.
func withCityContext(address, suffix string) string {
	if strings.Contains(strings.ToLower(address), "curitiba") {
		return address
	}
	return address + suffix
}

// cacheKey returns SHA-256 hex of the normalized address for cache lookup.
func cacheKey(address string) string {
	folded, _, err := transform.String(keyFold, address)
	if err != nil {
		folded = address
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(folded)), " ")
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}
