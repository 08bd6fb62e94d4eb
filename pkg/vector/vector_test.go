package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple sentence",
			input:    "The cat sat",
			expected: []string{"the", "cat", "sat"},
		},
		{
			name:     "punctuation and case",
			input:    "the cat SAT!",
			expected: []string{"the", "cat", "sat"},
		},
		{
			name:     "mixed alphanumerics",
			input:    "fix bug#42 in v2 parser",
			expected: []string{"fix", "bug", "42", "in", "v2", "parser"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "only separators",
			input:    "--- !!! ...",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestBagOfTokens_Vectorize(t *testing.T) {
	vz := NewBagOfTokens()

	t.Run("counts occurrences", func(t *testing.T) {
		vec := vz.Vectorize("the cat and the dog")
		assert.Equal(t, FeatureVector{"the": 2, "cat": 1, "and": 1, "dog": 1}, vec)
	})

	t.Run("case and punctuation normalized", func(t *testing.T) {
		a := vz.Vectorize("The cat sat")
		b := vz.Vectorize("the cat SAT!")
		expected := FeatureVector{"the": 1, "cat": 1, "sat": 1}
		assert.Equal(t, expected, a)
		assert.Equal(t, expected, b)
	})

	t.Run("empty input yields empty vector", func(t *testing.T) {
		vec := vz.Vectorize("")
		assert.True(t, vec.IsEmpty())
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		input := "persist records to a flat file, load on startup"
		first := vz.Vectorize(input)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, vz.Vectorize(input))
		}
	})
}

func TestCosine(t *testing.T) {
	vz := NewBagOfTokens()

	t.Run("self similarity is one", func(t *testing.T) {
		vec := vz.Vectorize("fix bug in parser")
		assert.InDelta(t, 1.0, Cosine(vec, vec), 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := vz.Vectorize("fix bug in parser")
		b := vz.Vectorize("add feature to parser")
		assert.InDelta(t, Cosine(a, b), Cosine(b, a), 1e-9)
	})

	t.Run("bounded in zero one", func(t *testing.T) {
		pairs := [][2]string{
			{"fix bug in parser", "add feature to parser"},
			{"completely different words", "another unrelated sentence"},
			{"same same same", "same"},
		}
		for _, pair := range pairs {
			score := Cosine(vz.Vectorize(pair[0]), vz.Vectorize(pair[1]))
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0+1e-9)
		}
	})

	t.Run("disjoint keys score zero", func(t *testing.T) {
		a := vz.Vectorize("alpha beta gamma")
		b := vz.Vectorize("delta epsilon zeta")
		assert.Zero(t, Cosine(a, b))
	})

	t.Run("empty vector scores zero", func(t *testing.T) {
		a := vz.Vectorize("anything at all")
		assert.Zero(t, Cosine(a, FeatureVector{}))
		assert.Zero(t, Cosine(FeatureVector{}, a))
		assert.Zero(t, Cosine(FeatureVector{}, FeatureVector{}))
	})
}

func TestFeatureVector_Clone(t *testing.T) {
	original := FeatureVector{"cache": 2, "latency": 1}
	copied := original.Clone()

	assert.Equal(t, original, copied)

	copied["cache"] = 99
	assert.Equal(t, 2.0, original["cache"], "mutating the clone must not touch the original")

	assert.Nil(t, FeatureVector(nil).Clone())
}
