package atlas

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexlapax/atlas/pkg/arch"
	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/generation/adapters/template"
	"github.com/lexlapax/atlas/pkg/goals"
	"github.com/lexlapax/atlas/pkg/index"
	"github.com/lexlapax/atlas/pkg/memory"
	"github.com/lexlapax/atlas/pkg/memory/adapters/jsonfile"
	"github.com/lexlapax/atlas/pkg/project"
	"github.com/lexlapax/atlas/pkg/scripting"
	"github.com/lexlapax/atlas/pkg/vector"
)

func newTestAtlas(t *testing.T) (*Atlas, string) {
	t.Helper()

	dir := t.TempDir()
	a := newTestAtlasAt(t, dir, nil)
	return a, dir
}

func newTestAtlasAt(t *testing.T, dir string, scripts scripting.Engine) *Atlas {
	t.Helper()
	ctx := context.Background()

	store, err := jsonfile.NewStore(filepath.Join(dir, "memory.json"))
	require.NoError(t, err)

	archStore, err := arch.NewStore(filepath.Join(dir, "arch.json"))
	require.NoError(t, err)

	projStore, err := project.NewStore(filepath.Join(dir, "project.json"))
	require.NoError(t, err)

	a, err := New(ctx, Deps{
		Store:      store,
		Index:      index.NewLinear(),
		Vectorizer: vector.NewBagOfTokens(),
		Engine:     template.NewTemplateEngine(),
		Scripting:  scripts,
		Arch:       archStore,
		Project:    projStore,
	}, DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAtlas_RunPrompt(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAtlas(t)
	require.NoError(t, a.Project().AddGoals("Reduce latency for users"))

	t.Run("stores the interaction and reports goals", func(t *testing.T) {
		report, err := a.RunPrompt(ctx, "Reduce latency in the parser hot path.", Options{
			Note: "profiling results attached",
			Tags: []string{"performance"},
		})
		require.NoError(t, err)

		assert.Equal(t, memory.ModeAtlas, report.Mode)
		assert.Equal(t, "Reduce latency in the parser hot path", report.Bundle.Intent)
		assert.NotEmpty(t, report.MemoryID)
		assert.Contains(t, report.Response, "Suggested plan:")

		require.Len(t, report.Goals, 1)
		assert.True(t, report.Goals[0].Passed)
		assert.Contains(t, report.Goals[0].Matched, "latency")

		records, err := a.ListMemory(ctx, 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, report.MemoryID, records[0].ID)
		assert.Equal(t, []string{"performance"}, records[0].Tags)
		assert.Equal(t, "profiling results attached", records[0].Note)
		assert.False(t, records[0].Vector.IsEmpty())
	})

	t.Run("later prompts retrieve earlier interactions", func(t *testing.T) {
		report, err := a.RunPrompt(ctx, "Why is the parser still slow?", Options{})
		require.NoError(t, err)

		require.NotEmpty(t, report.Bundle.Retrieved)
		assert.Contains(t, report.Bundle.Retrieved[0].Prompt, "parser")
	})

	t.Run("baseline mode skips retrieval and storage", func(t *testing.T) {
		before, err := a.ListMemory(ctx, 0)
		require.NoError(t, err)

		report, err := a.RunPrompt(ctx, "Why is the parser still slow?", Options{
			Mode: memory.ModeBaseline,
		})
		require.NoError(t, err)

		assert.Empty(t, report.Bundle.Retrieved)
		assert.Empty(t, report.Bundle.Architecture.Nodes)
		assert.Empty(t, report.MemoryID)

		after, err := a.ListMemory(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("empty prompt is rejected", func(t *testing.T) {
		_, err := a.RunPrompt(ctx, "  ", Options{})
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})
}

func TestAtlas_RememberLookupSearch(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAtlas(t)

	id, err := a.Remember(ctx, "We chose async webhooks to decouple billing retries", "", "decision", []string{"architecture"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = a.Remember(ctx, "Cache invalidation happens on deploy", "", "", nil)
	require.NoError(t, err)

	t.Run("lookup matches substrings case-insensitively", func(t *testing.T) {
		records, err := a.Lookup(ctx, "WEBHOOKS", 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, id, records[0].ID)
	})

	t.Run("lookup matches tags", func(t *testing.T) {
		records, err := a.Lookup(ctx, "architecture", 10)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, id, records[0].ID)
	})

	t.Run("search ranks by similarity", func(t *testing.T) {
		records, err := a.Search(ctx, "why async webhooks", 5)
		require.NoError(t, err)
		require.NotEmpty(t, records)
		assert.Equal(t, id, records[0].ID)
	})

	t.Run("empty queries are rejected", func(t *testing.T) {
		_, err := a.Lookup(ctx, "", 5)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
		_, err = a.Search(ctx, "  ", 5)
		assert.ErrorIs(t, err, errors.ErrInvalidInput)
	})

	t.Run("remember derives the intent when not given", func(t *testing.T) {
		records, err := a.Lookup(ctx, "cache invalidation", 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Cache invalidation happens on deploy", records[0].Intent)
		assert.Equal(t, memory.ModeManual, records[0].Mode)
	})
}

func TestAtlas_IndexRebuiltAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := newTestAtlasAt(t, dir, nil)
	_, err := first.Remember(ctx, "fix bug in parser", "", "", nil)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newTestAtlasAt(t, dir, nil)
	records, err := second.Search(ctx, "parser bug", 3)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "fix bug in parser", records[0].Prompt)
}

func TestAtlas_LuaHooks(t *testing.T) {
	ctx := context.Background()

	newEngine := func(t *testing.T, script string) scripting.Engine {
		t.Helper()
		engine, err := scripting.NewLuaEngine(scripting.DefaultConfig())
		require.NoError(t, err)
		require.NoError(t, engine.LoadScript("hooks.lua", []byte(script)))
		return engine
	}

	t.Run("before_encode rewrites the indexed content", func(t *testing.T) {
		engine := newEngine(t, `
			function before_encode(content)
				return "tokamak stellarator"
			end
		`)
		a := newTestAtlasAt(t, t.TempDir(), engine)

		_, err := a.Remember(ctx, "completely unrelated text", "", "", nil)
		require.NoError(t, err)

		records, err := a.Search(ctx, "tokamak", 3)
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("after_retrieve filters records", func(t *testing.T) {
		engine := newEngine(t, `
			function after_retrieve(records)
				return {}
			end
		`)
		a := newTestAtlasAt(t, t.TempDir(), engine)

		_, err := a.Remember(ctx, "fix bug in parser", "", "", nil)
		require.NoError(t, err)

		report, err := a.RunPrompt(ctx, "parser bug", Options{})
		require.NoError(t, err)
		assert.Empty(t, report.Bundle.Retrieved)
	})

	t.Run("goal_keywords overrides keyword extraction", func(t *testing.T) {
		engine := newEngine(t, `
			function goal_keywords(goal, keywords)
				return { "plan" }
			end
		`)
		a := newTestAtlasAt(t, t.TempDir(), engine)
		require.NoError(t, a.Project().AddGoals("something entirely unmatchable"))

		report, err := a.RunPrompt(ctx, "any prompt at all", Options{})
		require.NoError(t, err)

		require.Len(t, report.Goals, 1)
		assert.True(t, report.Goals[0].Passed)
		assert.Equal(t, []string{"plan"}, report.Goals[0].Matched)
	})

	t.Run("missing hooks leave the pipeline untouched", func(t *testing.T) {
		engine := newEngine(t, `-- no hook functions defined`)
		a := newTestAtlasAt(t, t.TempDir(), engine)

		_, err := a.Remember(ctx, "fix bug in parser", "", "", nil)
		require.NoError(t, err)

		report, err := a.RunPrompt(ctx, "parser bug", Options{})
		require.NoError(t, err)
		assert.NotEmpty(t, report.Bundle.Retrieved)
	})
}

func TestAtlas_ValidateResponse(t *testing.T) {
	a, _ := newTestAtlas(t)
	require.NoError(t, a.Project().AddGoals("reduce latency for users"))

	results := a.ValidateResponse(context.Background(), "We added caching to reduce latency")
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Equal(t, goals.Result{
		Goal:    "reduce latency for users",
		Passed:  true,
		Matched: []string{"reduce", "latency"},
	}, results[0])
}

func TestSummarize(t *testing.T) {
	t.Run("short text passes through with whitespace collapsed", func(t *testing.T) {
		assert.Equal(t, "a short response", Summarize("a  short\nresponse", 120))
	})

	t.Run("long text is cut on a word boundary", func(t *testing.T) {
		long := "alpha beta gamma delta epsilon zeta eta theta"
		out := Summarize(long, 30)
		assert.LessOrEqual(t, len(out), 30)
		assert.True(t, len(out) > 4)
		assert.Contains(t, out, "...")
		assert.NotContains(t, out, "gamm ")
	})

	t.Run("single oversized word collapses to the placeholder", func(t *testing.T) {
		assert.Equal(t, "...", Summarize("supercalifragilistic", 10))
	})
}
