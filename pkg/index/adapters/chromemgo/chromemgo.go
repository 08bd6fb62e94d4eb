// Package chromemgo provides an index.Index implementation backed by the
// embedded chromem-go vector database.
package chromemgo

import (
	"context"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/generation"
	"github.com/lexlapax/atlas/pkg/index"
	"github.com/lexlapax/atlas/pkg/log"
)

// EmbeddingFuncFromEngine adapts a generation engine's embedding method to
// the chromem embedding function signature.
func EmbeddingFuncFromEngine(engine generation.Engine) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		embeddings, err := engine.GenerateEmbeddings(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(embeddings) == 0 {
			return nil, errors.Wrap(errors.ErrInvalidInput, "engine returned no embeddings")
		}
		return embeddings[0], nil
	}
}

// ChromemIndex implements the index.Index interface using a chromem-go
// collection. Embeddings are computed by the collection's embedding
// function, so queries use the query text rather than a sparse vector.
type ChromemIndex struct {
	collection *chromem.Collection
	minScore   float64
}

// Option configures a ChromemIndex.
type Option func(*ChromemIndex)

// WithMinScore sets the exclusive similarity threshold for query results.
func WithMinScore(min float64) Option {
	return func(ci *ChromemIndex) {
		ci.minScore = min
	}
}

// NewChromemIndex creates an index over an existing chromem collection.
func NewChromemIndex(collection *chromem.Collection, opts ...Option) *ChromemIndex {
	ci := &ChromemIndex{
		collection: collection,
		minScore:   0,
	}

	for _, opt := range opts {
		opt(ci)
	}

	return ci
}

// Open opens (or creates) a persistent chromem database at path and returns
// an index over the named collection.
func Open(path, collectionName string, embed chromem.EmbeddingFunc, opts ...Option) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open chromem database at %s", path)
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open collection %s", collectionName)
	}

	log.Debug("Opened chromem index", "path", path, "collection", collectionName, "documents", collection.Count())
	return NewChromemIndex(collection, opts...), nil
}

// Add stores an entry in the collection. The entry text is embedded by the
// collection's embedding function.
func (ci *ChromemIndex) Add(ctx context.Context, entry index.Entry) error {
	if entry.ID == "" {
		return errors.Wrap(errors.ErrInvalidInput, "entry ID cannot be empty")
	}
	if entry.Text == "" {
		return errors.Wrap(errors.ErrInvalidInput, "entry text cannot be empty")
	}

	doc := chromem.Document{
		ID:      entry.ID,
		Content: entry.Text,
	}

	if err := ci.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return errors.Wrap(err, "failed to add document %s", entry.ID)
	}

	return nil
}

// Query returns up to k entries most similar to the query text, ordered by
// descending similarity. Results at or below the minimum score are dropped.
func (ci *ChromemIndex) Query(ctx context.Context, query index.Query, k int) ([]index.Result, error) {
	if k < 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "k cannot be negative")
	}
	if k == 0 || query.Text == "" {
		return []index.Result{}, nil
	}

	// chromem requires the result count to not exceed the document count.
	count := ci.collection.Count()
	if count == 0 {
		return []index.Result{}, nil
	}
	if k > count {
		k = count
	}

	results, err := ci.collection.Query(ctx, query.Text, k, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "chromem query failed")
	}

	matches := make([]index.Result, 0, len(results))
	for _, r := range results {
		score := float64(r.Similarity)
		if score <= ci.minScore {
			continue
		}
		matches = append(matches, index.Result{ID: r.ID, Score: score})
	}

	return matches, nil
}

// Len returns the number of entries in the collection.
func (ci *ChromemIndex) Len() int {
	return ci.collection.Count()
}
