// Package resolver consolidates zone candidates from every available
// source into a single resolution with a confidence tier.
package resolver

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/guiamarela/zonecheck/internal/model"
	"github.com/guiamarela/zonecheck/internal/registration"
	"github.com/guiamarela/zonecheck/internal/spatial"
	"github.com/guiamarela/zonecheck/internal/store"
	"github.com/guiamarela/zonecheck/internal/textmatch"
	"github.com/guiamarela/zonecheck/internal/zonemap"
	"github.com/guiamarela/zonecheck/pkg/geocode"
)

// OfficialClient is the subset of the GeoCuritiba client the resolver
// needs. Lookups that find nothing return (nil, nil).
type OfficialClient interface {
	ZoneByPoint(ctx context.Context, lat, lon float64) (*model.ZoneCandidate, error)
	ZoneByRegistration(ctx context.Context, reg string) (*model.ZoneCandidate, error)
}

// Resolver runs all detectors for an input and consolidates their
// answers. Every collaborator is optional: missing ones simply
// contribute no candidates.
type Resolver struct {
	official OfficialClient
	geocoder geocode.Client
	index    *spatial.Index
	store    store.Store
	now      func() time.Time
	newID    func() string
}

// Option configures the resolver.
type Option func(*Resolver)

// WithOfficial attaches the municipal API client.
func WithOfficial(c OfficialClient) Option {
	return func(r *Resolver) { r.official = c }
}

// WithGeocoder attaches the address geocoder.
func WithGeocoder(c geocode.Client) Option {
	return func(r *Resolver) { r.geocoder = c }
}

// WithSpatialIndex attaches the shapefile-backed polygon index.
func WithSpatialIndex(idx *spatial.Index) Option {
	return func(r *Resolver) { r.index = idx }
}

// WithStore attaches the resolution audit store.
func WithStore(s store.Store) Option {
	return func(r *Resolver) { r.store = s }
}

// WithNow overrides the clock, used by tests.
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithIDFunc overrides resolution ID generation, used by tests.
func WithIDFunc(fn func() string) Option {
	return func(r *Resolver) { r.newID = fn }
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve determines the zone for the given input. At least one of
// address, registration or coordinates must be set.
func (r *Resolver) Resolve(ctx context.Context, input model.ResolveInput) (*model.ZoneResolution, error) {
	if input.Empty() {
		return nil, eris.New("resolver: empty input")
	}

	// Placeholder addresses are unresolvable by construction. Skip the
	// detectors unless another input can still answer.
	if input.Address != "" && textmatch.IsPlaceholder(input.Address) &&
		input.Registration == "" && input.Coordinates == nil {
		res := r.defaultResolution(input, model.TierNeedsManualReview,
			"placeholder address")
		r.persist(ctx, res)
		return res, nil
	}

	coords := input.Coordinates
	var notes []string
	if coords == nil && input.Address != "" && !textmatch.IsPlaceholder(input.Address) {
		coords, notes = r.geocodeAddress(ctx, input.Address)
	}

	candidates := r.collect(ctx, input, coords)

	res := consolidate(input, coords, candidates)
	res.Notes = notes
	res.ID = r.newID()
	res.ResolvedAt = r.now()

	r.persist(ctx, res)
	return res, nil
}

// geocodeAddress resolves an address to coordinates, tolerating
// geocoder failure. A provider miss, unlike a transport failure, is
// returned as a note so the resolution records why no coordinates
// were available.
func (r *Resolver) geocodeAddress(ctx context.Context, address string) (*model.Coordinates, []string) {
	if r.geocoder == nil {
		return nil, nil
	}
	result, err := r.geocoder.Geocode(ctx, address)
	if err != nil {
		zap.L().Warn("resolver: geocoding failed",
			zap.String("address", address),
			zap.Error(err),
		)
		return nil, nil
	}
	if result == nil || !result.Matched {
		return nil, []string{"address not geocodable"}
	}
	return &model.Coordinates{Lat: result.Lat, Lon: result.Lon}, nil
}

// collect fans the detectors out concurrently. Detector failures are
// logged and degrade the answer instead of failing the resolution.
// The returned slice is ordered by source rank then confidence so
// consolidation is deterministic.
func (r *Resolver) collect(ctx context.Context, input model.ResolveInput, coords *model.Coordinates) []model.ZoneCandidate {
	slots := make([]*model.ZoneCandidate, 5)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	if r.official != nil {
		g.Go(func() error {
			var cand *model.ZoneCandidate
			var err error
			switch {
			case input.Registration != "":
				cand, err = r.official.ZoneByRegistration(gctx, input.Registration)
				if (cand == nil || err != nil) && coords != nil {
					cand, err = r.official.ZoneByPoint(gctx, coords.Lat, coords.Lon)
				}
			case coords != nil:
				cand, err = r.official.ZoneByPoint(gctx, coords.Lat, coords.Lon)
			}
			if err != nil {
				zap.L().Warn("resolver: official lookup failed", zap.Error(err))
				return nil
			}
			slots[0] = cand
			return nil
		})
	}

	if r.index != nil && coords != nil {
		g.Go(func() error {
			slots[1] = r.index.Locate(coords.Lat, coords.Lon)
			return nil
		})
	}

	if input.Registration != "" {
		g.Go(func() error {
			slots[2] = registration.Candidate(input.Registration)
			return nil
		})
	}

	if input.Address != "" {
		g.Go(func() error {
			slots[3] = textmatch.Match(input.Address)
			if slots[3] == nil {
				fb := textmatch.Fallback(input.Address)
				slots[4] = &fb
			}
			return nil
		})
	}

	// Detector goroutines never return errors.
	_ = g.Wait()

	var candidates []model.ZoneCandidate
	for _, cand := range slots {
		if cand == nil || (cand.Zone == "" && cand.Confidence == 0) {
			continue
		}
		candidates = append(candidates, *cand)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Source.Rank() != candidates[j].Source.Rank() {
			return candidates[i].Source.Rank() < candidates[j].Source.Rank()
		}
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates
}

func (r *Resolver) defaultResolution(input model.ResolveInput, tier model.ConfidenceTier, reason string) *model.ZoneResolution {
	return &model.ZoneResolution{
		ID:                  r.newID(),
		Input:               input,
		Zone:                zonemap.DefaultZone,
		Tier:                tier,
		Confidence:          0.3,
		RequiresManualCheck: true,
		Conflicts:           []string{reason},
		ResolvedAt:          r.now(),
	}
}

func (r *Resolver) persist(ctx context.Context, res *model.ZoneResolution) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveResolution(ctx, res); err != nil {
		zap.L().Warn("resolver: persist failed",
			zap.String("id", res.ID),
			zap.Error(err),
		)
	}
}
