package goals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	validator := NewValidator()

	t.Run("keyword match passes the goal", func(t *testing.T) {
		results := validator.Validate(
			"We added caching to reduce latency",
			[]string{"reduce latency for users"},
		)

		require.Len(t, results, 1)
		assert.True(t, results[0].Passed)
		assert.Contains(t, results[0].Matched, "latency")
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		results := validator.Validate(
			"LATENCY dropped by half",
			[]string{"reduce latency"},
		)

		require.Len(t, results, 1)
		assert.True(t, results[0].Passed)
	})

	t.Run("no keyword overlap fails the goal", func(t *testing.T) {
		results := validator.Validate(
			"We rewrote the frontend styling",
			[]string{"reduce latency for users"},
		)

		require.Len(t, results, 1)
		assert.False(t, results[0].Passed)
		assert.Empty(t, results[0].Matched)
	})

	t.Run("results preserve goal order", func(t *testing.T) {
		results := validator.Validate(
			"Caching cut latency in half",
			[]string{"reduce latency", "ship dashboards", "add caching everywhere"},
		)

		require.Len(t, results, 3)
		assert.Equal(t, "reduce latency", results[0].Goal)
		assert.True(t, results[0].Passed)
		assert.Equal(t, "ship dashboards", results[1].Goal)
		assert.False(t, results[1].Passed)
		assert.True(t, results[2].Passed)
	})

	t.Run("empty goal list yields empty results", func(t *testing.T) {
		assert.Empty(t, validator.Validate("anything", nil))
	})
}

func TestValidator_Keywords(t *testing.T) {
	validator := NewValidator()

	t.Run("drops short tokens and stop words", func(t *testing.T) {
		keywords := validator.Keywords("reduce latency for users of this")
		assert.Equal(t, []string{"reduce", "latency", "users"}, keywords)
	})

	t.Run("normalizes case", func(t *testing.T) {
		keywords := validator.Keywords("Validate OUTPUT against goals")
		assert.Equal(t, []string{"validate", "output", "against", "goals"}, keywords)
	})

	t.Run("empty goal has no keywords", func(t *testing.T) {
		assert.Empty(t, validator.Keywords(""))
	})
}

func TestSatisfied(t *testing.T) {
	results := []Result{
		{Goal: "a", Passed: true},
		{Goal: "b", Passed: false},
		{Goal: "c", Passed: true},
	}
	assert.Equal(t, 2, Satisfied(results))
}
