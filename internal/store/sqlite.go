package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/guiamarela/zonecheck/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash TEXT PRIMARY KEY,
	matched      INTEGER NOT NULL,
	lat          REAL,
	lon          REAL,
	cached_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS lookup_cache (
	registration TEXT PRIMARY KEY,
	payload      TEXT NOT NULL,
	cached_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS resolutions (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_lookup_cache_expires_at ON lookup_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetGeocode(ctx context.Context, addressKey string) (*GeocodeEntry, error) {
	var matched bool
	var lat, lon sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT matched, lat, lon FROM geocode_cache WHERE address_hash = ?`,
		addressKey,
	).Scan(&matched, &lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get geocode")
	}

	entry := &GeocodeEntry{Matched: matched}
	if matched && lat.Valid && lon.Valid {
		entry.Coords = &model.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
	}
	return entry, nil
}

func (s *SQLiteStore) PutGeocode(ctx context.Context, addressKey string, matched bool, coords *model.Coordinates) error {
	var lat, lon any
	if coords != nil {
		lat, lon = coords.Lat, coords.Lon
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (address_hash, matched, lat, lon, cached_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (address_hash) DO UPDATE SET
		   matched = excluded.matched, lat = excluded.lat, lon = excluded.lon, cached_at = excluded.cached_at`,
		addressKey, matched, lat, lon, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: put geocode")
}

func (s *SQLiteStore) GetLookup(ctx context.Context, registration string) (*model.ZoneCandidate, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM lookup_cache WHERE registration = ? AND expires_at > ?`,
		registration, time.Now().UTC(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get lookup")
	}

	var cand model.ZoneCandidate
	if err := json.Unmarshal([]byte(payload), &cand); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal lookup")
	}
	return &cand, nil
}

func (s *SQLiteStore) PutLookup(ctx context.Context, registration string, cand model.ZoneCandidate, ttl time.Duration) error {
	payload, err := json.Marshal(cand)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal lookup")
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lookup_cache (registration, payload, cached_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (registration) DO UPDATE SET
		   payload = excluded.payload, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		registration, string(payload), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: put lookup")
}

func (s *SQLiteStore) SaveResolution(ctx context.Context, res *model.ZoneResolution) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal resolution")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resolutions (id, payload, created_at) VALUES (?, ?, ?)`,
		res.ID, string(payload), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: save resolution")
}

func (s *SQLiteStore) GetResolution(ctx context.Context, id string) (*model.ZoneResolution, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM resolutions WHERE id = ?`, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get resolution")
	}

	var res model.ZoneResolution
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal resolution")
	}
	return &res, nil
}
