package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiamarela/zonecheck/internal/model"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "sitio cercado", Fold("Sítio Cercado"))
	assert.Equal(t, "agua verde", Fold("  Água Verde "))
	assert.Equal(t, "joao negrao", Fold("João Negrão"))
}

func TestIsPlaceholder(t *testing.T) {
	assert.True(t, IsPlaceholder("Rua Inexistente, 99999"))
	assert.True(t, IsPlaceholder("sem nome"))
	assert.True(t, IsPlaceholder("Bairro Inexistente"))
	assert.True(t, IsPlaceholder("   "))
	assert.False(t, IsPlaceholder("Rua XV de Novembro, 100"))
}

func TestMatch_SEHISArea(t *testing.T) {
	c := Match("Rua das Flores, Tatuquara, Curitiba")
	require.NotNil(t, c)
	assert.Equal(t, "SEHIS", c.Zone)
	assert.Equal(t, model.SourceTextual, c.Source)
	assert.Equal(t, ConfidenceSEHISArea, c.Confidence)
}

func TestMatch_SEHISBeatsNeighborhood(t *testing.T) {
	// Sítio Cercado exists in both tables; the SEHIS entry must win.
	c := Match("Rua A, Sítio Cercado")
	require.NotNil(t, c)
	assert.Equal(t, "SEHIS", c.Zone)
}

func TestMatch_Neighborhood(t *testing.T) {
	c := Match("Alameda Dom Pedro II, Batel")
	require.NotNil(t, c)
	assert.Equal(t, "ZUM-1", c.Zone)
	assert.Equal(t, ConfidenceNeighborhood, c.Confidence)
}

func TestMatch_LongestNeighborhoodWins(t *testing.T) {
	c := Match("Rua Nossa, Centro Cívico")
	require.NotNil(t, c)
	assert.Equal(t, "ZCC.4", c.Zone)
}

func TestMatch_NoSignal(t *testing.T) {
	assert.Nil(t, Match("Logradouro Desconhecido 42x"))
	assert.Nil(t, Match(""))
}

func TestContextualOverride(t *testing.T) {
	zone, ok := ContextualOverride("Rua João Negrão, 731")
	require.True(t, ok)
	assert.Equal(t, "ZCC.4", zone)

	zone, ok = ContextualOverride("Av. Juscelino Kubitschek, Cidade Industrial")
	require.True(t, ok)
	assert.Equal(t, "ZI", zone)

	zone, ok = ContextualOverride("Praça Tiradentes, 10")
	require.True(t, ok)
	assert.Equal(t, "ZC", zone)

	_, ok = ContextualOverride("Rua Comum, 50")
	assert.False(t, ok)
}

func TestFallback_StreetTypes(t *testing.T) {
	assert.Equal(t, "ZR-4", Fallback("Avenida Sete de Setembro").Zone)
	assert.Equal(t, "ZR-2", Fallback("Rua Marechal Deodoro").Zone)
	assert.Equal(t, "ZR-1", Fallback("Travessa da Lapa").Zone)
}

func TestFallback_StreetNumbers(t *testing.T) {
	assert.Equal(t, "ZC", Fallback("Largo da Ordem 101").Zone)
	assert.Equal(t, "ZR-2", Fallback("Alameda Cabral 1500").Zone)
	assert.Equal(t, "ZR-1", Fallback("Estrada Velha 4800").Zone)
}

func TestFallback_BelowActionableConfidence(t *testing.T) {
	c := Fallback("Avenida Qualquer")
	assert.Equal(t, model.SourceFallback, c.Source)
	assert.Less(t, c.Confidence, 0.5)
}
