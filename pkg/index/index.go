// Package index provides the similarity index over stored memory
// vectors. The default implementation is an exhaustive linear scan,
// which is fine at single-user scale; an approximate-nearest-neighbor
// backend would slot in behind the same interface if that ever changed.
package index

import (
	"context"
	"sort"
	"time"

	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/vector"
)

// Entry is a single indexed record.
type Entry struct {
	// ID is the memory record ID this entry points at
	ID string

	// Text is the raw interaction text, used by backends that embed
	// text themselves instead of consuming the sparse vector
	Text string

	// Vector is the sparse feature vector of the interaction
	Vector vector.FeatureVector

	// StoredAt is the record creation time, used to break score ties
	StoredAt time.Time
}

// Query carries both representations of the search input so each backend
// can use the one it understands: the linear index scores the sparse
// vector, embedding-backed indexes embed the text.
type Query struct {
	// Text is the raw query text
	Text string

	// Vector is the sparse feature vector of the query text
	Vector vector.FeatureVector
}

// Result is a single ranked match.
type Result struct {
	// ID is the matched record ID
	ID string

	// Score is the similarity score in [0, 1]
	Score float64
}

// Index is the interface all similarity index backends implement.
type Index interface {
	// Add indexes an entry.
	Add(ctx context.Context, entry Entry) error

	// Query returns up to k matches ordered by descending score, ties
	// broken newest-first. Matches at or below the index's score
	// threshold are excluded.
	Query(ctx context.Context, query Query, k int) ([]Result, error)

	// Len reports the number of indexed entries.
	Len() int
}

// Option configures a Linear index.
type Option func(*Linear)

// WithMinScore sets the exclusive score threshold below or at which
// results are dropped. The default of 0 excludes entries with entirely
// disjoint keys.
func WithMinScore(min float64) Option {
	return func(l *Linear) {
		l.minScore = min
	}
}

// linearEntry tracks insertion order alongside the entry so ties between
// equal timestamps still resolve deterministically.
type linearEntry struct {
	Entry
	seq int
}

// Linear is the in-memory linear-scan implementation of Index.
type Linear struct {
	entries  []linearEntry
	minScore float64
	nextSeq  int
}

// NewLinear creates a linear-scan index.
func NewLinear(opts ...Option) *Linear {
	l := &Linear{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add implements the Index interface.
func (l *Linear) Add(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		return errors.Wrap(errors.ErrInvalidInput, "index entry has no ID")
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}

	l.entries = append(l.entries, linearEntry{Entry: entry, seq: l.nextSeq})
	l.nextSeq++
	return nil
}

// Query implements the Index interface. Complexity is O(n*d) over n
// entries with d average nonzero keys.
func (l *Linear) Query(ctx context.Context, query Query, k int) ([]Result, error) {
	if k < 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "k must be non-negative, got %d", k)
	}
	if k == 0 || query.Vector.IsEmpty() {
		return []Result{}, nil
	}

	type scored struct {
		linearEntry
		score float64
	}

	matches := make([]scored, 0, len(l.entries))
	for _, entry := range l.entries {
		score := vector.Cosine(query.Vector, entry.Vector)
		if score <= l.minScore {
			continue
		}
		matches = append(matches, scored{linearEntry: entry, score: score})
	}

	// Descending score; equal scores rank the most recent entry first.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if !matches[i].StoredAt.Equal(matches[j].StoredAt) {
			return matches[i].StoredAt.After(matches[j].StoredAt)
		}
		return matches[i].seq > matches[j].seq
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{ID: m.ID, Score: m.score}
	}
	return results, nil
}

// Len implements the Index interface.
func (l *Linear) Len() int {
	return len(l.entries)
}
