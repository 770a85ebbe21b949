package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiamarela/zonecheck/internal/model"
)

func TestPostgres_GetGeocode_Hit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	lat, lon := -25.43, -49.27
	mock.ExpectQuery(`SELECT matched, lat, lon FROM geocode_cache`).
		WithArgs("abc123").
		WillReturnRows(
			pgxmock.NewRows([]string{"matched", "lat", "lon"}).AddRow(true, &lat, &lon),
		)

	s := NewPostgresFromPool(mock)
	entry, err := s.GetGeocode(context.Background(), "abc123")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Matched)
	require.NotNil(t, entry.Coords)
	assert.InDelta(t, -49.27, entry.Coords.Lon, 1e-9)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetGeocode_Miss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT matched, lat, lon FROM geocode_cache`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	s := NewPostgresFromPool(mock)
	entry, err := s.GetGeocode(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PutGeocode(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO geocode_cache`).
		WithArgs("abc123", true, -25.43, -49.27).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresFromPool(mock)
	err = s.PutGeocode(context.Background(), "abc123", true, &model.Coordinates{Lat: -25.43, Lon: -49.27})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LookupRoundTrip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cand := model.ZoneCandidate{Zone: "SEHIS", Source: model.SourceExternalAPI, Confidence: 0.95}
	payload, err := json.Marshal(cand)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO lookup_cache`).
		WithArgs("77200650096009", payload, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT payload FROM lookup_cache`).
		WithArgs("77200650096009").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	s := NewPostgresFromPool(mock)
	ctx := context.Background()

	require.NoError(t, s.PutLookup(ctx, "77200650096009", cand, 24*time.Hour))

	got, err := s.GetLookup(ctx, "77200650096009")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SEHIS", got.Zone)
	assert.Equal(t, model.SourceExternalAPI, got.Source)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveResolution_AssignsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO resolutions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresFromPool(mock)
	res := &model.ZoneResolution{Zone: "ZR-4", Tier: model.TierUnknown}

	require.NoError(t, s.SaveResolution(context.Background(), res))
	assert.NotEmpty(t, res.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}
