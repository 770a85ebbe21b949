package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiamarela/zonecheck/internal/compliance"
	"github.com/guiamarela/zonecheck/internal/model"
	"github.com/guiamarela/zonecheck/internal/resolver"
	"github.com/guiamarela/zonecheck/internal/spatial"
	"github.com/guiamarela/zonecheck/internal/store"
	"github.com/guiamarela/zonecheck/internal/zonemap"
)

func testEnv(t *testing.T) *environment {
	t.Helper()

	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "zonecheck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	idx := spatial.NewIndex([]spatial.Feature{
		spatial.NewFeature("ZR-3", "ZR3", []float64{
			-49.31, -25.51,
			-49.31, -25.49,
			-49.29, -25.49,
			-49.29, -25.51,
			-49.31, -25.51,
		}),
	})

	table, err := compliance.DefaultTable()
	require.NoError(t, err)

	return &environment{
		Store:    s,
		Resolver: resolver.New(resolver.WithSpatialIndex(idx), resolver.WithStore(s)),
		Engine:   compliance.NewEngine(table),
	}
}

func doRequest(t *testing.T, env *environment, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	newRouter(env).ServeHTTP(rec, req)
	return rec
}

func TestAPI_Health(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPI_Resolve(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodPost, "/resolve",
		`{"coordinates":{"lat":-25.50,"lon":-49.30}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var res model.ZoneResolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "ZR-3", res.Zone)
	assert.Equal(t, model.TierEstimatedReliable, res.Tier)
	assert.True(t, res.RequiresManualCheck)
	assert.NotEmpty(t, res.ID)
}

func TestAPI_Resolve_BadBody(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodPost, "/resolve", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Resolve_EmptyInput(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodPost, "/resolve", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Check(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodPost, "/check",
		`{"zone":"ZR-2","metrics":{"occupancy_rate_pct":55,"permeable_area_pct":30}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var report model.ComplianceReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "ZR-2", report.Zone)
	assert.True(t, report.ZoneValid)
	assert.True(t, report.Conforming)
	assert.Len(t, report.Verdicts, 2)
}

func TestAPI_Check_NonConforming(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodPost, "/check",
		`{"zone":"ZR-1","metrics":{"occupancy_rate_pct":80}}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var report model.ComplianceReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Conforming)
}

func TestAPI_Check_MissingZone(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodPost, "/check", `{"metrics":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Zones(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodGet, "/zones", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var entries []zoneEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, len(zonemap.All()))
}

func TestAPI_Zone(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodGet, "/zones/zr4", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var entry zoneEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "ZR-4", entry.Code)
	assert.Greater(t, entry.Params.OccupancyRateMax, 0.0)
}

func TestAPI_Zone_Unknown(t *testing.T) {
	rec := doRequest(t, testEnv(t), http.MethodGet, "/zones/NOTAZONE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
