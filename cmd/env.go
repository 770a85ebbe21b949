package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/guiamarela/zonecheck/internal/compliance"
	"github.com/guiamarela/zonecheck/internal/resilience"
	"github.com/guiamarela/zonecheck/internal/resolver"
	"github.com/guiamarela/zonecheck/internal/spatial"
	"github.com/guiamarela/zonecheck/internal/store"
	"github.com/guiamarela/zonecheck/pkg/geocode"
	"github.com/guiamarela/zonecheck/pkg/geocuritiba"
)

// environment wires the long-lived collaborators a command needs.
type environment struct {
	Store    store.Store
	Resolver *resolver.Resolver
	Engine   *compliance.Engine
}

// Close releases the environment's resources.
func (e *environment) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initEnv validates the config for the given mode and builds the
// resolver and compliance engine.
func initEnv(ctx context.Context, mode string) (*environment, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	opts := []resolver.Option{
		resolver.WithStore(st),
		resolver.WithGeocoder(buildGeocoder(st)),
		resolver.WithOfficial(buildOfficial(st)),
	}

	if cfg.Shapefile.Path != "" {
		idx, err := spatial.Load(cfg.Shapefile.Path)
		if err != nil {
			st.Close()
			return nil, eris.Wrap(err, "main: load shapefile")
		}
		zap.L().Info("shapefile loaded",
			zap.String("path", cfg.Shapefile.Path),
			zap.Int("features", idx.Size()),
		)
		opts = append(opts, resolver.WithSpatialIndex(idx))
	}

	table, err := loadParamsTable()
	if err != nil {
		st.Close()
		return nil, err
	}

	return &environment{
		Store:    st,
		Resolver: resolver.New(opts...),
		Engine:   compliance.NewEngine(table),
	}, nil
}

func buildGeocoder(st store.Store) geocode.Client {
	nominatim := geocode.NewNominatim(
		geocode.WithNominatimBaseURL(cfg.Geocode.NominatimURL),
		geocode.WithNominatimRateLimit(cfg.Geocode.NominatimRPS),
	)
	providers := []geocode.Provider{
		geocode.NewViaCEP(nominatim, geocode.WithViaCEPBaseURL(cfg.Geocode.ViaCEPURL)),
		nominatim,
		geocode.NewPhoton(geocode.WithPhotonBaseURL(cfg.Geocode.PhotonURL)),
	}
	return geocode.NewCascade(providers, geocode.WithCache(st))
}

func buildOfficial(st store.Store) *geocuritiba.Client {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = cfg.GeoCuritiba.MaxAttempts
	retry.OnRetry = resilience.RetryLogger("geocuritiba", "query")
	return geocuritiba.New(
		geocuritiba.WithBaseURL(cfg.GeoCuritiba.BaseURL),
		geocuritiba.WithRetry(retry),
		geocuritiba.WithStore(st),
		geocuritiba.WithCacheTTL(time.Duration(cfg.GeoCuritiba.CacheTTLHours)*time.Hour),
	)
}

func loadParamsTable() (*compliance.Table, error) {
	if cfg.Compliance.ParamsPath != "" {
		return compliance.LoadTable(cfg.Compliance.ParamsPath)
	}
	return compliance.DefaultTable()
}
