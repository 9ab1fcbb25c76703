package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsDisallowedCharacters(t *testing.T) {
	got, _ := Normalize("¡Hola! 🎬 <b>Cocina</b> fácil*", 10)
	assert.NotContains(t, got, "🎬")
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, "*")
	// Accented Spanish letters survive.
	assert.Contains(t, got, "fácil")
}

func TestNormalizeTruncatesToWordBudget(t *testing.T) {
	long := strings.Repeat("palabra ", 100)
	got, words := Normalize(long, 4)

	// 4 seconds × 2.5 words/second = 10 words.
	assert.Equal(t, 10, words)
	assert.True(t, strings.HasSuffix(got, "."))
}

func TestNormalizePadsShortText(t *testing.T) {
	got, _ := Normalize("Muy corto", 10)
	assert.Contains(t, got, "Esto es fundamental para entender el concepto correctamente.")
}

func TestNormalizeKeepsTextNearBudget(t *testing.T) {
	// 8 of 10 target words is above the 70% floor: no elaboration appended.
	in := "una dos tres cuatro cinco seis siete ocho"
	got, words := Normalize(in, 4)
	assert.NotContains(t, got, "fundamental")
	assert.Equal(t, 8, words)
	assert.Equal(t, in+".", got)
}

func TestNormalizeTerminalPunctuation(t *testing.T) {
	// Inputs sit at or above the 70% floor for 2 seconds (5-word budget,
	// floor 3.5) so no elaboration sentence masks the original ending.
	tests := []struct {
		in   string
		want string
	}{
		{"Sin punto final aquí mismo", "."},
		{"Pregunta retórica sobre cocina casera?", "?"},
		{"Con mucha energía y sabor!", "!"},
	}
	for _, tt := range tests {
		got, _ := Normalize(tt.in, 2)
		assert.True(t, strings.HasSuffix(got, tt.want), "%q should end with %q", got, tt.want)
	}
}

func TestCleanKeepsFullLength(t *testing.T) {
	in := "¿Sabías que la empanada de atún puede cambiar completamente tu perspectiva? Quédate para descubrirlo."
	got, words := Clean(in)

	// No budget fitting: every word survives, only stray characters go.
	assert.Contains(t, got, "Quédate para descubrirlo.")
	assert.Equal(t, 14, words)
	assert.NotContains(t, got, "¿")

	short, _ := Clean("Sin punto final")
	assert.Equal(t, "Sin punto final.", short)
}
