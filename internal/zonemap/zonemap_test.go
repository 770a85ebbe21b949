package zonemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Variants(t *testing.T) {
	cases := map[string]string{
		"ZR4":          "ZR-4",
		"zr4":          "ZR-4",
		" ZR-4-LV ":    "ZR-4",
		"ZR 4":         "ZR-4",
		"ZR_4":         "ZR-4",
		"ZR_1":         "ZR-1",
		"zr_2":         "ZR-2",
		"ZCC_4":        "ZCC.4",
		"ZCC":          "ZCC.4",
		"EAC":          "ZUM-2",
		"EACB":         "ZUM-2",
		"SEHIS":        "SEHIS",
		"APA-IGUACU":   "ZR-1",
		"APA-PASSAÚNA": "ZR-1",
		"ZH-2":         "ZR-2",
	}
	for raw, want := range cases {
		assert.Equal(t, want, Normalize(raw), "raw=%q", raw)
	}
}

func TestNormalize_UnknownPassesThrough(t *testing.T) {
	assert.Equal(t, "NOTAZONE", Normalize("notazone"))
	assert.Equal(t, "", Normalize("   "))
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, raw := range []string{"ZR4", "zcc", "EACF", "SEHIS", "notazone", "ZUM-1"} {
		once := Normalize(raw)
		assert.Equal(t, once, Normalize(once), "raw=%q", raw)
	}
}

func TestKnownAndLookup(t *testing.T) {
	assert.True(t, Known("ZR-4"))
	assert.True(t, Known("SEHIS"))
	assert.False(t, Known("NOTAZONE"))
	assert.False(t, Known("ZR4")) // raw form, not canonical

	z, ok := Lookup("ZCC.4")
	require.True(t, ok)
	assert.Equal(t, "Zona Centro Cívico", z.Name)
}

func TestAll_CoversParameterZones(t *testing.T) {
	zones := All()
	require.Len(t, zones, 14)
	for _, z := range zones {
		assert.True(t, Known(z.Code))
		assert.NotEmpty(t, z.Name)
	}
}

func TestLowDensityResidential(t *testing.T) {
	assert.True(t, LowDensityResidential("ZR-1"))
	assert.True(t, LowDensityResidential("ZR-2"))
	assert.False(t, LowDensityResidential("ZR-3"))
	assert.False(t, LowDensityResidential("SEHIS"))
}
