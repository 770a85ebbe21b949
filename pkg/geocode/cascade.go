package geocode

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/guiamarela/zonecheck/internal/model"
	"github.com/guiamarela/zonecheck/internal/resilience"
	"github.com/guiamarela/zonecheck/internal/spatial"
	"github.com/guiamarela/zonecheck/internal/store"
)

// CascadeClient tries providers in order until one returns coordinates
// inside the Curitiba bounding box. Outcomes, including misses, are
// cached so repeated lookups of the same address never hit the network.
// A per-provider circuit breaker keeps a failing provider from slowing
// every lookup down.
type CascadeClient struct {
	providers []Provider
	cache     store.Store
	breakers  *resilience.ServiceBreakers
}

// CascadeOption configures the cascade.
type CascadeOption func(*CascadeClient)

// WithCache attaches a persistent result cache.
func WithCache(s store.Store) CascadeOption {
	return func(c *CascadeClient) { c.cache = s }
}

// WithBreakerConfig overrides the per-provider circuit breaker policy.
func WithBreakerConfig(cfg resilience.CircuitBreakerConfig) CascadeOption {
	return func(c *CascadeClient) { c.breakers = resilience.NewServiceBreakers(cfg) }
}

// NewCascade creates a CascadeClient over the given providers. Order
// matters: earlier providers are preferred.
func NewCascade(providers []Provider, opts ...CascadeOption) *CascadeClient {
	c := &CascadeClient{
		providers: providers,
		breakers:  resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefaultCascade wires the production provider chain: ViaCEP first
// for postal-code addresses, then Nominatim, then Photon.
func NewDefaultCascade(opts ...CascadeOption) *CascadeClient {
	nominatim := NewNominatim()
	providers := []Provider{
		NewViaCEP(nominatim),
		nominatim,
		NewPhoton(),
	}
	return NewCascade(providers, opts...)
}

// Geocode implements Client. A Result with Matched=false and a nil error
// means every provider was exhausted without a usable hit.
func (c *CascadeClient) Geocode(ctx context.Context, address string) (*Result, error) {
	if address == "" {
		return nil, eris.New("geocode: empty address")
	}

	key := cacheKey(address)
	if c.cache != nil {
		entry, err := c.cache.GetGeocode(ctx, key)
		if err != nil {
			zap.L().Warn("geocode: cache read failed", zap.Error(err))
		} else if entry != nil {
			if !entry.Matched || entry.Coords == nil {
				return &Result{Matched: false, Source: "cache"}, nil
			}
			return &Result{
				Lat:     entry.Coords.Lat,
				Lon:     entry.Coords.Lon,
				Source:  "cache",
				Matched: true,
			}, nil
		}
	}

	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		cb := c.breakers.Get(p.Name())
		res, err := resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (*Result, error) {
			return p.Geocode(ctx, address)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(err, "geocode: cascade aborted")
			}
			if errors.Is(err, resilience.ErrCircuitOpen) {
				zap.L().Debug("geocode: provider circuit open",
					zap.String("provider", p.Name()),
				)
				continue
			}
			zap.L().Warn("geocode: provider failed",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			continue
		}
		if res == nil || !res.Matched {
			continue
		}
		if !spatial.InCuritiba(res.Lat, res.Lon) {
			zap.L().Debug("geocode: result outside Curitiba",
				zap.String("provider", p.Name()),
				zap.Float64("lat", res.Lat),
				zap.Float64("lon", res.Lon),
			)
			continue
		}
		c.remember(ctx, key, res)
		return res, nil
	}

	miss := &Result{Matched: false}
	c.remember(ctx, key, miss)
	return miss, nil
}

func (c *CascadeClient) remember(ctx context.Context, key string, res *Result) {
	if c.cache == nil {
		return
	}
	var coords *model.Coordinates
	if res.Matched {
		coords = &model.Coordinates{Lat: res.Lat, Lon: res.Lon}
	}
	if err := c.cache.PutGeocode(ctx, key, res.Matched, coords); err != nil {
		zap.L().Warn("geocode: cache write failed", zap.Error(err))
	}
}
