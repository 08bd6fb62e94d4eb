package template

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexlapax/atlas/pkg/errors"
)

func TestTemplateEngine_Process(t *testing.T) {
	engine := NewTemplateEngine()
	ctx := context.Background()

	t.Run("includes the prompt and a numbered plan", func(t *testing.T) {
		response, err := engine.Process(ctx, "Fix the flaky login test")
		require.NoError(t, err)

		assert.Contains(t, response, "Fix the flaky login test")
		assert.Contains(t, response, "Suggested plan:")
		assert.Contains(t, response, "1.")
		assert.Contains(t, response, "2.")
		assert.Contains(t, response, "3.")
	})

	t.Run("is deterministic for the same prompt", func(t *testing.T) {
		first, err := engine.Process(ctx, "Refactor the parser")
		require.NoError(t, err)

		second, err := engine.Process(ctx, "Refactor the parser")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("plan comes after the prompt", func(t *testing.T) {
		response, err := engine.Process(ctx, "Add caching")
		require.NoError(t, err)

		promptIdx := strings.Index(response, "Add caching")
		planIdx := strings.Index(response, "Suggested plan:")
		assert.Less(t, promptIdx, planIdx)
	})
}

func TestTemplateEngine_GenerateEmbeddings(t *testing.T) {
	engine := NewTemplateEngine()

	_, err := engine.GenerateEmbeddings(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
