package geocode

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiamarela/zonecheck/internal/resilience"
	"github.com/guiamarela/zonecheck/internal/store"
)

type mockProvider struct {
	name        string
	result      *Result
	err         error
	unavailable bool
	calls       int
	lastAddress string
}

func (m *mockProvider) Name() string    { return m.name }
func (m *mockProvider) Available() bool { return !m.unavailable }

func (m *mockProvider) Geocode(_ context.Context, address string) (*Result, error) {
	m.calls++
	m.lastAddress = address
	return m.result, m.err
}

func TestCascade_FirstProviderWins(t *testing.T) {
	first := &mockProvider{
		name:   "first",
		result: &Result{Lat: -25.43, Lon: -49.27, Source: "first", Matched: true},
	}
	second := &mockProvider{name: "second"}

	c := NewCascade([]Provider{first, second})
	res, err := c.Geocode(context.Background(), "Rua XV de Novembro")

	require.NoError(t, err)
	assert.Equal(t, "first", res.Source)
	assert.Equal(t, 0, second.calls)
}

func TestCascade_FallsThroughOnError(t *testing.T) {
	first := &mockProvider{name: "first", err: errors.New("boom")}
	second := &mockProvider{
		name:   "second",
		result: &Result{Lat: -25.43, Lon: -49.27, Source: "second", Matched: true},
	}

	c := NewCascade([]Provider{first, second})
	res, err := c.Geocode(context.Background(), "Rua XV de Novembro")

	require.NoError(t, err)
	assert.Equal(t, "second", res.Source)
	assert.Equal(t, 1, first.calls)
}

func TestCascade_SkipsUnavailable(t *testing.T) {
	first := &mockProvider{name: "first", unavailable: true}
	second := &mockProvider{
		name:   "second",
		result: &Result{Lat: -25.43, Lon: -49.27, Source: "second", Matched: true},
	}

	c := NewCascade([]Provider{first, second})
	res, err := c.Geocode(context.Background(), "Rua XV de Novembro")

	require.NoError(t, err)
	assert.Equal(t, "second", res.Source)
	assert.Equal(t, 0, first.calls)
}

func TestCascade_RejectsOutOfBounds(t *testing.T) {
	// São Paulo coordinates, well outside the Curitiba bounding box.
	first := &mockProvider{
		name:   "first",
		result: &Result{Lat: -23.55, Lon: -46.63, Source: "first", Matched: true},
	}
	second := &mockProvider{
		name:   "second",
		result: &Result{Lat: -25.43, Lon: -49.27, Source: "second", Matched: true},
	}

	c := NewCascade([]Provider{first, second})
	res, err := c.Geocode(context.Background(), "Rua XV de Novembro")

	require.NoError(t, err)
	assert.Equal(t, "second", res.Source)
}

func TestCascade_AllMiss(t *testing.T) {
	c := NewCascade([]Provider{
		&mockProvider{name: "first", result: &Result{Matched: false}},
		&mockProvider{name: "second", result: &Result{Matched: false}},
	})

	res, err := c.Geocode(context.Background(), "Rua Que Nao Existe")

	require.NoError(t, err)
	assert.False(t, res.Matched)
}

func TestCascade_EmptyAddress(t *testing.T) {
	c := NewCascade(nil)
	_, err := c.Geocode(context.Background(), "")
	require.Error(t, err)
}

func TestCascade_CachesHitsAndMisses(t *testing.T) {
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(context.Background()))

	hit := &mockProvider{
		name:   "hit",
		result: &Result{Lat: -25.43, Lon: -49.27, Source: "hit", Matched: true},
	}
	c := NewCascade([]Provider{hit}, WithCache(s))
	ctx := context.Background()

	res, err := c.Geocode(ctx, "Rua XV de Novembro")
	require.NoError(t, err)
	assert.Equal(t, "hit", res.Source)

	res, err = c.Geocode(ctx, "Rua XV de Novembro")
	require.NoError(t, err)
	assert.Equal(t, "cache", res.Source)
	assert.InDelta(t, -25.43, res.Lat, 1e-9)
	assert.Equal(t, 1, hit.calls)

	// Normalization means accents and casing share a cache entry.
	res, err = c.Geocode(ctx, "RUA XV DE NOVEMBRO")
	require.NoError(t, err)
	assert.Equal(t, "cache", res.Source)
	assert.Equal(t, 1, hit.calls)

	miss := &mockProvider{name: "miss", result: &Result{Matched: false}}
	c2 := NewCascade([]Provider{miss}, WithCache(s))

	res, err = c2.Geocode(ctx, "Rua Inexistente")
	require.NoError(t, err)
	assert.False(t, res.Matched)

	res, err = c2.Geocode(ctx, "Rua Inexistente")
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, "cache", res.Source)
	assert.Equal(t, 1, miss.calls)
}

func TestCascade_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	failing := &mockProvider{name: "failing", err: errors.New("boom")}
	backup := &mockProvider{
		name:   "backup",
		result: &Result{Lat: -25.43, Lon: -49.27, Source: "backup", Matched: true},
	}
	c := NewCascade([]Provider{failing, backup},
		WithBreakerConfig(resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour}),
	)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		res, err := c.Geocode(ctx, "Rua XV de Novembro")
		require.NoError(t, err)
		assert.Equal(t, "backup", res.Source)
	}

	// Two failures tripped the breaker; later calls skip the provider.
	assert.Equal(t, 2, failing.calls)
	assert.Equal(t, 4, backup.calls)
}

func TestCacheKey_Normalizes(t *testing.T) {
	assert.Equal(t, cacheKey("Rua João Negrão"), cacheKey("rua joao negrao"))
	assert.Equal(t, cacheKey("  Rua   XV  "), cacheKey("rua xv"))
	assert.NotEqual(t, cacheKey("Rua XV"), cacheKey("Rua XVI"))
}
