package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarityIdentity(t *testing.T) {
	for _, s := range []string{"a", "acme", "bob smith", "a long company name"} {
		assert.Equal(t, 1.0, Similarity(s, s), "identical strings must score 1.0: %q", s)
	}
}

func TestSimilarityEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "acme"))
	assert.Equal(t, 0.0, Similarity("acme", ""))
	// Preserved boundary: empty vs empty scores 0, not 1.
	assert.Equal(t, 0.0, Similarity("", ""))
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"acme", "acne"},
		{"bob smith", "bob smyth"},
		{"kitten", "sitting"},
		{"short", "a much longer string"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "symmetry for %q/%q", p[0], p[1])
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"abc", "xyz"},
		{"", "x"},
		{"aaaa", "aa"},
		{"completely", "different"},
	}
	for _, p := range pairs {
		got := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestSimilarityKnownDistances(t *testing.T) {
	// kitten -> sitting is the classic distance-3 example; max length 7.
	assert.InDelta(t, 4.0/7.0, Similarity("kitten", "sitting"), 1e-9)
	// One substitution over four characters.
	assert.InDelta(t, 0.75, Similarity("acme", "acne"), 1e-9)
	// bob smith vs bob smyth: one substitution over nine characters.
	assert.InDelta(t, 8.0/9.0, Similarity("bob smith", "bob smyth"), 1e-9)
	// Disjoint strings of equal length score 0.
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
}
