package geocuritiba

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/guiamarela/zonecheck/internal/model"
	"github.com/guiamarela/zonecheck/internal/registration"
)

// Cadastral field names a registration number may be filed under.
const searchFields = "INDICACAO,INDICACAO_FISCAL,INSCRICAO"

type findResponse struct {
	Results []feature `json:"results"`
}

// ParcelCentroid locates the lot registered under the given municipal
// registration number and returns its centroid in WGS84. The /find
// endpoint is tried first; older service versions only answer the layer
// query, so that is the fallback. Returns nil when the lot is unknown.
func (c *Client) ParcelCentroid(ctx context.Context, reg string) (*model.Coordinates, error) {
	cleaned := registration.Clean(reg)
	if cleaned == "" {
		return nil, nil
	}

	if coords, err := c.findParcel(ctx, cleaned); err != nil {
		zap.L().Debug("geocuritiba: find endpoint failed, trying layer query",
			zap.String("registration", cleaned),
			zap.Error(err),
		)
	} else if coords != nil {
		return coords, nil
	}

	return c.queryParcel(ctx, cleaned)
}

func (c *Client) findParcel(ctx context.Context, cleaned string) (*model.Coordinates, error) {
	params := url.Values{}
	params.Set("searchText", cleaned)
	params.Set("searchFields", searchFields)
	params.Set("layers", "0")
	params.Set("contains", "false")
	params.Set("returnGeometry", "true")

	var resp findResponse
	if err := c.getJSON(ctx, "/find", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return centroidOf(resp.Results[0].Geometry), nil
}

func (c *Client) queryParcel(ctx context.Context, cleaned string) (*model.Coordinates, error) {
	params := url.Values{}
	params.Set("where", fmt.Sprintf("INSCRICAO = '%s'", cleaned))
	params.Set("outFields", "*")
	params.Set("returnGeometry", "true")

	var resp queryResponse
	if err := c.getJSON(ctx, "/0/query", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Features) == 0 {
		return nil, nil
	}
	return centroidOf(resp.Features[0].Geometry), nil
}

// centroidOf averages the outer ring vertices, or takes the point
// as-is, then converts UTM 22S to WGS84.
func centroidOf(g *geometry) *model.Coordinates {
	if g == nil {
		return nil
	}
	var easting, northing float64
	switch {
	case len(g.Rings) > 0 && len(g.Rings[0]) > 0:
		ring := g.Rings[0]
		// Shared first/last vertex would skew the average.
		n := len(ring)
		if n > 1 && ring[0][0] == ring[n-1][0] && ring[0][1] == ring[n-1][1] {
			ring = ring[:n-1]
		}
		for _, pt := range ring {
			if len(pt) < 2 {
				return nil
			}
			easting += pt[0]
			northing += pt[1]
		}
		easting /= float64(len(ring))
		northing /= float64(len(ring))
	case g.X != 0 || g.Y != 0:
		easting, northing = g.X, g.Y
	default:
		return nil
	}
	lat, lon := latLonFromUTM(easting, northing)
	return &model.Coordinates{Lat: lat, Lon: lon}
}

// ZoneByRegistration resolves the official zone for a registration
// number: parcel centroid first, then the zoning layer at that point.
// Answers are cached for the configured TTL. Returns nil when the
// registration is unknown to the cadastre.
func (c *Client) ZoneByRegistration(ctx context.Context, reg string) (*model.ZoneCandidate, error) {
	cleaned := registration.Clean(reg)
	if cleaned == "" {
		return nil, nil
	}

	if c.cache != nil {
		cand, err := c.cache.GetLookup(ctx, cleaned)
		if err != nil {
			zap.L().Warn("geocuritiba: cache read failed", zap.Error(err))
		} else if cand != nil {
			return cand, nil
		}
	}

	coords, err := c.ParcelCentroid(ctx, reg)
	if err != nil {
		return nil, err
	}
	if coords == nil {
		return nil, nil
	}

	cand, err := c.ZoneByPoint(ctx, coords.Lat, coords.Lon)
	if err != nil {
		return nil, err
	}
	if cand == nil {
		return nil, nil
	}
	cand.Details = "GeoCuritiba parcel lookup"

	if c.cache != nil {
		if err := c.cache.PutLookup(ctx, cleaned, *cand, c.cacheTTL); err != nil {
			zap.L().Warn("geocuritiba: cache write failed", zap.Error(err))
		}
	}
	return cand, nil
}
