package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "Em 'Padaria': - Pão Preço: R$5.00", SingleLine("Em 'Padaria':\n- Pão Preço: R$5.00"))
	assert.Equal(t, "sem quebras", SingleLine("sem quebras"))
	assert.Equal(t, "a b", SingleLine("\na b\n"))
}

func TestFormatExpiry(t *testing.T) {
	assert.Equal(t, "N/A", formatExpiry(nil))

	d := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "09/03/2026", formatExpiry(&d))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "R$5.00", formatPrice(5))
	assert.Equal(t, "R$12.35", formatPrice(12.349))
	assert.Equal(t, "R$0.00", formatPrice(0))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Bebidas", capitalize("bebidas"))
	assert.Equal(t, "Del valle", capitalize("del VALLE"))
	assert.Equal(t, "Água", capitalize("água"))
}

func TestOrNA(t *testing.T) {
	assert.Equal(t, "N/A", orNA(""))
	assert.Equal(t, "Nestle", orNA("nestle"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 50))
	assert.Equal(t, "açú", truncateRunes("açúcar", 3))
	assert.Equal(t, "", truncateRunes("", 10))
}

func TestFirstWord(t *testing.T) {
	assert.Equal(t, "sucos", firstWord("sucos de laranja"))
	assert.Equal(t, "suco", firstWord("suco"))
	assert.Equal(t, "   ", firstWord("   "))
}

func TestSingularize(t *testing.T) {
	assert.Equal(t, "refrigerante", singularize("refrigerantes"))
	assert.Equal(t, "suco", singularize("sucos"))
	assert.Equal(t, "leite", singularize("leite"))
	// Words ending in "is" are left alone.
	assert.Equal(t, "lapis", singularize("lapis"))
}
