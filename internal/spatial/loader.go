package spatial

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/guiamarela/zonecheck/internal/zonemap"
)

// zoneFieldNames are tried in order when looking for the zoning attribute.
var zoneFieldNames = []string{"sg_zona", "nm_zona", "cd_zona", "zona", "zone", "sigla"}

// Load reads the zoning shapefile and builds a lookup index. Records with
// no usable geometry or an empty zone attribute are skipped.
func Load(path string) (*Index, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "spatial: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	zoneIdx := -1
	for _, name := range zoneFieldNames {
		if i, ok := fieldIdx[name]; ok {
			zoneIdx = i
			break
		}
	}
	if zoneIdx == -1 {
		return nil, eris.Errorf("spatial: no zone attribute in %s", path)
	}

	var features []Feature
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly.NumParts == 0 || len(poly.Points) == 0 {
			skipped++
			continue
		}

		raw := strings.TrimSpace(strings.TrimRight(reader.Attribute(zoneIdx), "\x00"))
		if raw == "" {
			skipped++
			continue
		}
		zone := zonemap.Normalize(raw)

		features = append(features, polygonFeatures(poly, zone, raw)...)
	}

	if skipped > 0 {
		zap.L().Debug("spatial: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	zap.L().Info("spatial: zoning index loaded",
		zap.String("path", path),
		zap.Int("features", len(features)),
	)

	return NewIndex(features), nil
}

// polygonFeatures splits a shapefile polygon into features. Shapefile outer
// rings wind clockwise and holes counter-clockwise; each hole is attached
// to the most recent outer ring.
func polygonFeatures(poly *shp.Polygon, zone, raw string) []Feature {
	var out []Feature
	var outer []float64
	var holes [][]float64

	flush := func() {
		if len(outer) > 0 {
			out = append(out, NewFeature(zone, raw, outer, holes...))
		}
		outer, holes = nil, nil
	}

	for i := int32(0); i < poly.NumParts; i++ {
		start := poly.Parts[i]
		end := int32(len(poly.Points))
		if i+1 < poly.NumParts {
			end = poly.Parts[i+1]
		}

		ring := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			ring = append(ring, poly.Points[j].X, poly.Points[j].Y)
		}
		if len(ring) < 8 {
			continue
		}

		if signedArea(ring) > 0 && len(outer) > 0 {
			holes = append(holes, ring)
			continue
		}
		flush()
		outer = ring
	}
	flush()

	return out
}

// signedArea is positive for counter-clockwise rings.
func signedArea(ring []float64) float64 {
	var sum float64
	n := len(ring) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[2*i]*ring[2*j+1] - ring[2*j]*ring[2*i+1]
	}
	return sum / 2
}
