// Package vector provides sparse text feature vectors and the similarity
// math used by the memory index. Vectors are bag-of-tokens maps; the
// Vectorizer interface keeps the representation swappable so a real
// embedding model can replace the token counter without touching callers.
package vector

import (
	"math"
	"strings"
	"unicode"
)

// FeatureVector maps a case-normalized token to a non-negative weight.
type FeatureVector map[string]float64

// IsEmpty reports whether the vector carries no features.
func (v FeatureVector) IsEmpty() bool {
	return len(v) == 0
}

// Clone returns an independent copy of the vector.
func (v FeatureVector) Clone() FeatureVector {
	if v == nil {
		return nil
	}
	out := make(FeatureVector, len(v))
	for k, w := range v {
		out[k] = w
	}
	return out
}

// Tokenize lower-cases text and splits it on non-alphanumeric boundaries,
// discarding empty tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Cosine computes the cosine similarity of two feature vectors over the
// union of their keys, treating absent keys as zero. It returns 0 when
// either vector is empty or has zero magnitude, so callers never divide
// by zero. For non-negative vectors the result is in [0, 1].
func Cosine(a, b FeatureVector) float64 {
	if a.IsEmpty() || b.IsEmpty() {
		return 0
	}

	var dot, normA, normB float64
	for token, wa := range a {
		normA += wa * wa
		if wb, ok := b[token]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		normB += wb * wb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Vectorizer converts free text into a feature vector.
// Implementations must be deterministic and pure: the same input always
// yields the same vector.
type Vectorizer interface {
	Vectorize(text string) FeatureVector
}

// BagOfTokens is the default Vectorizer: token occurrence counts with no
// stemming and no stop-word removal. The surrounding retrieval heuristics
// do not need semantic precision, so the representation stays this simple.
type BagOfTokens struct{}

// NewBagOfTokens creates the default bag-of-tokens vectorizer.
func NewBagOfTokens() *BagOfTokens {
	return &BagOfTokens{}
}

// Vectorize implements the Vectorizer interface. An empty or token-free
// input yields an empty vector.
func (*BagOfTokens) Vectorize(text string) FeatureVector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return FeatureVector{}
	}

	vec := make(FeatureVector, len(tokens))
	for _, token := range tokens {
		vec[token]++
	}
	return vec
}
