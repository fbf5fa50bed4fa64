package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinSimilarity(t *testing.T) {
	sim := LevenshteinSimilarity{}

	t.Run("Should score identical strings as 1", func(t *testing.T) {
		assert.Equal(t, 1.0, sim.Score("maize pests", "maize pests"))
	})

	t.Run("Should score near-identical queries above the default threshold", func(t *testing.T) {
		a := Normalize("What crops grow best in Lilongwe?")
		b := Normalize("What crops grow best in  lilongwe")
		assert.GreaterOrEqual(t, sim.Score(a, b), DefaultThreshold)
	})

	t.Run("Should score unrelated queries below the default threshold", func(t *testing.T) {
		a := Normalize("When should I plant beans?")
		b := Normalize("How do I treat bacterial wilt in tomatoes?")
		assert.Less(t, sim.Score(a, b), DefaultThreshold)
	})

	t.Run("Should handle empty input", func(t *testing.T) {
		assert.Equal(t, 1.0, sim.Score("", ""))
		assert.Equal(t, 0.0, sim.Score("", "maize"))
	})
}

func TestTokenOverlapSimilarity(t *testing.T) {
	sim := TokenOverlapSimilarity{}

	t.Run("Should ignore word order", func(t *testing.T) {
		assert.Equal(t, 1.0, sim.Score("plant maize when", "when plant maize"))
	})

	t.Run("Should score partial overlap proportionally", func(t *testing.T) {
		// 2 shared tokens, 4 in the union.
		assert.InDelta(t, 0.5, sim.Score("maize pests lilongwe", "maize pests beans"), 0.01)
	})

	t.Run("Should score disjoint token sets as 0", func(t *testing.T) {
		assert.Equal(t, 0.0, sim.Score("irrigation methods", "tobacco nursery"))
	})

	t.Run("Should handle empty input", func(t *testing.T) {
		assert.Equal(t, 1.0, sim.Score("", ""))
		assert.Equal(t, 0.0, sim.Score("maize", ""))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("Should case-fold, trim and collapse whitespace", func(t *testing.T) {
		assert.Equal(t,
			"what crops grow best in lilongwe?",
			Normalize("  What   crops grow\tbest in Lilongwe?  "),
		)
	})

	t.Run("Should reduce blank input to empty", func(t *testing.T) {
		assert.Equal(t, "", Normalize("   \t  "))
	})
}
