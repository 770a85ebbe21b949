package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/guiamarela/zonecheck/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool, used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash TEXT PRIMARY KEY,
	matched      BOOLEAN NOT NULL,
	lat          DOUBLE PRECISION,
	lon          DOUBLE PRECISION,
	cached_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS lookup_cache (
	registration TEXT PRIMARY KEY,
	payload      JSONB NOT NULL,
	cached_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS resolutions (
	id         TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lookup_cache_expires_at ON lookup_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) GetGeocode(ctx context.Context, addressKey string) (*GeocodeEntry, error) {
	var matched bool
	var lat, lon *float64
	err := s.pool.QueryRow(ctx,
		`SELECT matched, lat, lon FROM geocode_cache WHERE address_hash = $1`,
		addressKey,
	).Scan(&matched, &lat, &lon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get geocode")
	}

	entry := &GeocodeEntry{Matched: matched}
	if matched && lat != nil && lon != nil {
		entry.Coords = &model.Coordinates{Lat: *lat, Lon: *lon}
	}
	return entry, nil
}

func (s *PostgresStore) PutGeocode(ctx context.Context, addressKey string, matched bool, coords *model.Coordinates) error {
	var lat, lon any
	if coords != nil {
		lat, lon = coords.Lat, coords.Lon
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO geocode_cache (address_hash, matched, lat, lon, cached_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (address_hash) DO UPDATE SET
		   matched = EXCLUDED.matched, lat = EXCLUDED.lat, lon = EXCLUDED.lon, cached_at = now()`,
		addressKey, matched, lat, lon,
	)
	return eris.Wrap(err, "postgres: put geocode")
}

func (s *PostgresStore) GetLookup(ctx context.Context, registration string) (*model.ZoneCandidate, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM lookup_cache WHERE registration = $1 AND expires_at > now()`,
		registration,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get lookup")
	}

	var cand model.ZoneCandidate
	if err := json.Unmarshal(payload, &cand); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal lookup")
	}
	return &cand, nil
}

func (s *PostgresStore) PutLookup(ctx context.Context, registration string, cand model.ZoneCandidate, ttl time.Duration) error {
	payload, err := json.Marshal(cand)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal lookup")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO lookup_cache (registration, payload, cached_at, expires_at)
		 VALUES ($1, $2, now(), $3)
		 ON CONFLICT (registration) DO UPDATE SET
		   payload = EXCLUDED.payload, cached_at = now(), expires_at = EXCLUDED.expires_at`,
		registration, payload, time.Now().UTC().Add(ttl),
	)
	return eris.Wrap(err, "postgres: put lookup")
}

func (s *PostgresStore) SaveResolution(ctx context.Context, res *model.ZoneResolution) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal resolution")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO resolutions (id, payload, created_at) VALUES ($1, $2, now())`,
		res.ID, payload,
	)
	return eris.Wrap(err, "postgres: save resolution")
}

func (s *PostgresStore) GetResolution(ctx context.Context, id string) (*model.ZoneResolution, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM resolutions WHERE id = $1`, id,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get resolution")
	}

	var res model.ZoneResolution
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal resolution")
	}
	return &res, nil
}
