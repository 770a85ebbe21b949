// Package store persists geocoding results, external lookup answers and
// finished resolutions. Two backends are provided: SQLite for local use
// and Postgres for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/guiamarela/zonecheck/internal/model"
)

// GeocodeEntry is a cached geocoding outcome. Misses are cached too, so
// Matched distinguishes "no coordinates exist" from "never asked".
type GeocodeEntry struct {
	Matched bool
	Coords  *model.Coordinates
}

// Store is the persistence interface shared by both backends.
type Store interface {
	// Geocode cache, keyed by address hash. No TTL: street addresses
	// do not move.
	GetGeocode(ctx context.Context, addressKey string) (*GeocodeEntry, error)
	PutGeocode(ctx context.Context, addressKey string, matched bool, coords *model.Coordinates) error

	// External lookup cache, keyed by cleaned registration number.
	GetLookup(ctx context.Context, registration string) (*model.ZoneCandidate, error)
	PutLookup(ctx context.Context, registration string, cand model.ZoneCandidate, ttl time.Duration) error

	// Resolution audit trail.
	SaveResolution(ctx context.Context, res *model.ZoneResolution) error
	GetResolution(ctx context.Context, id string) (*model.ZoneResolution, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool the Postgres backend needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open creates a store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
