package chromemgo

import (
	"context"
	"strings"
	"testing"

	chromem "github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexlapax/atlas/pkg/generation/adapters/mock"
	"github.com/lexlapax/atlas/pkg/index"
)

// testEmbeddingFunc maps fixed phrases to fixed unit vectors so similarity
// scores are deterministic.
func testEmbeddingFunc() chromem.EmbeddingFunc {
	vectors := map[string][]float32{
		"parser": {1, 0, 0},
		"cache":  {0, 1, 0},
		"deploy": {0, 0, 1},
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		for key, vec := range vectors {
			if strings.Contains(text, key) {
				return vec, nil
			}
		}
		return []float32{0.577, 0.577, 0.577}, nil
	}
}

func newTestIndex(t *testing.T, opts ...Option) *ChromemIndex {
	t.Helper()

	idx, err := Open(t.TempDir(), "test_entries", testEmbeddingFunc(), opts...)
	require.NoError(t, err)
	return idx
}

func TestChromemIndex_AddAndQuery(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Add(ctx, index.Entry{ID: "a", Text: "fixed the parser bug"}))
	require.NoError(t, idx.Add(ctx, index.Entry{ID: "b", Text: "tuned the cache layer"}))
	require.NoError(t, idx.Add(ctx, index.Entry{ID: "c", Text: "rolled out a deploy"}))

	assert.Equal(t, 3, idx.Len())

	results, err := idx.Query(ctx, index.Query{Text: "why does the parser fail"}, 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
}

func TestChromemIndex_QueryClampsK(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	require.NoError(t, idx.Add(ctx, index.Entry{ID: "only", Text: "tuned the cache layer"}))

	// k exceeds the document count; chromem would reject it without clamping.
	results, err := idx.Query(ctx, index.Query{Text: "cache"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "only", results[0].ID)
}

func TestChromemIndex_EmptyCollection(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Query(context.Background(), index.Query{Text: "anything"}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemIndex_MinScoreFilters(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, WithMinScore(0.9))

	require.NoError(t, idx.Add(ctx, index.Entry{ID: "a", Text: "fixed the parser bug"}))
	require.NoError(t, idx.Add(ctx, index.Entry{ID: "b", Text: "tuned the cache layer"}))

	results, err := idx.Query(ctx, index.Query{Text: "parser"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestChromemIndex_InvalidInput(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	t.Run("empty entry ID", func(t *testing.T) {
		err := idx.Add(ctx, index.Entry{Text: "no id"})
		assert.Error(t, err)
	})

	t.Run("empty entry text", func(t *testing.T) {
		err := idx.Add(ctx, index.Entry{ID: "x"})
		assert.Error(t, err)
	})

	t.Run("negative k", func(t *testing.T) {
		_, err := idx.Query(ctx, index.Query{Text: "q"}, -1)
		assert.Error(t, err)
	})

	t.Run("empty query text", func(t *testing.T) {
		results, err := idx.Query(ctx, index.Query{}, 3)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestEmbeddingFuncFromEngine(t *testing.T) {
	engine := mock.NewMockEngine(mock.WithDefaultEmbedding([]float32{0.5, 0.5}))
	embed := EmbeddingFuncFromEngine(engine)

	embedding, err := embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, embedding)
}
