package registration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "77200650096009", Clean("77.2.0065.0096.00-9"))
	assert.Equal(t, "03012345600001", Clean(" 030.1234560000-1 "))
}

func TestAnalyze_TwoDigitDistrict(t *testing.T) {
	a := Analyze("77.2.0065.0096.00-9")

	assert.True(t, a.LikelySEHIS)
	assert.GreaterOrEqual(t, a.Confidence, ActionableConfidence)
	assert.LessOrEqual(t, a.Confidence, 1.0)
	assert.Equal(t, "Distrito SEHIS 77", a.District)
}

func TestAnalyze_ThreeDigitDistrict(t *testing.T) {
	cases := map[string]string{
		"03012345600001": "CIC / Cidade Industrial",
		"05523456700002": "Tatuquara",
		"05812345678003": "Umbará",
		"06012345678004": "Campo de Santana",
		"04512345678005": "Sítio Cercado",
		"04212345678006": "Bairro Novo",
	}
	for reg, district := range cases {
		a := Analyze(reg)
		assert.True(t, a.LikelySEHIS, "reg=%s", reg)
		assert.Equal(t, district, a.District, "reg=%s", reg)
		assert.GreaterOrEqual(t, a.Confidence, ActionableConfidence, "reg=%s", reg)
	}
}

func TestAnalyze_CentralDistrictNotSEHIS(t *testing.T) {
	a := Analyze("00123456789")

	assert.False(t, a.LikelySEHIS)
	assert.Less(t, a.Confidence, ActionableConfidence)
}

func TestAnalyze_Empty(t *testing.T) {
	a := Analyze("   ")

	assert.False(t, a.LikelySEHIS)
	assert.Zero(t, a.Confidence)
}

func TestAnalyze_ConfidenceCapped(t *testing.T) {
	// District prefix + numbering pattern + long + suffix stacks past 1.0.
	a := Analyze("055234567000000001")

	assert.True(t, a.LikelySEHIS)
	assert.Equal(t, 1.0, a.Confidence)
}

func TestCandidate(t *testing.T) {
	c := Candidate("77.2.0065.0096.00-9")
	require.NotNil(t, c)
	assert.Equal(t, "SEHIS", c.Zone)
	assert.GreaterOrEqual(t, c.Confidence, ActionableConfidence)

	// Heuristic-only evidence yields no zone name.
	weak := Candidate("9991234567890")
	if weak != nil {
		assert.Empty(t, weak.Zone)
		assert.Less(t, weak.Confidence, ActionableConfidence)
	}

	assert.Nil(t, Candidate(""))
}

func TestHasRepeatedRun(t *testing.T) {
	assert.True(t, hasRepeatedRun("12121234"))
	assert.True(t, hasRepeatedRun("0055005512"))
	assert.False(t, hasRepeatedRun("0123456789"))
}
