package geocuritiba

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/guiamarela/zonecheck/internal/model"
	"github.com/guiamarela/zonecheck/internal/zonemap"
)

// ConfidenceOfficial is assigned to answers from the municipal API.
const ConfidenceOfficial = 0.95

type queryResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	Attributes map[string]any `json:"attributes"`
	Geometry   *geometry      `json:"geometry"`
}

type geometry struct {
	X     float64       `json:"x"`
	Y     float64       `json:"y"`
	Rings [][][]float64 `json:"rings"`
}

// ZoneByPoint queries the zoning layer for the polygon containing the
// given WGS84 coordinate. Returns nil when no polygon covers the point.
func (c *Client) ZoneByPoint(ctx context.Context, lat, lon float64) (*model.ZoneCandidate, error) {
	easting, northing := utmFromLatLon(lat, lon)

	params := url.Values{}
	params.Set("geometry", fmt.Sprintf(`{"x":%.3f,"y":%.3f}`, easting, northing))
	params.Set("geometryType", "esriGeometryPoint")
	params.Set("inSR", fmt.Sprintf("%d", wkidUTM22S))
	params.Set("spatialRel", "esriSpatialRelIntersects")
	params.Set("outFields", "nm_zona,sg_zona,cd_zona")
	params.Set("returnGeometry", "false")

	params.Set("f", "json")
	endpoint := fmt.Sprintf("/%d/query", ZoningLayer)
	body, err := c.get(ctx, c.baseURL+endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if err := checkServiceError(body); err != nil {
		return nil, err
	}

	var raw string
	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Legacy deployments occasionally answer HTML popups.
		raw = extractZoneFromHTML(string(body))
		if raw == "" {
			return nil, eris.Wrap(err, "geocuritiba: decode zoning response")
		}
	} else {
		if len(resp.Features) == 0 {
			return nil, nil
		}
		raw = extractZone(resp.Features[0].Attributes)
	}
	if raw == "" {
		return nil, nil
	}
	return &model.ZoneCandidate{
		Zone:        zonemap.Normalize(raw),
		RawZone:     raw,
		Source:      model.SourceExternalAPI,
		Confidence:  ConfidenceOfficial,
		Details:     "GeoCuritiba zoning layer",
		Coordinates: &model.Coordinates{Lat: lat, Lon: lon},
	}, nil
}
