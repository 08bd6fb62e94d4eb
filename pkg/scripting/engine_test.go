package scripting

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexlapax/atlas/pkg/errors"
)

func newTestEngine(t *testing.T) *LuaEngine {
	t.Helper()

	engine, err := NewLuaEngine(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestLuaEngine_ExecuteFunction(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	script := `
		function add(a, b)
			return a + b
		end

		function greet(name)
			return "hello " .. name
		end

		function make_table()
			return { kind = "greeting", count = 2 }
		end

		function make_list()
			return { "a", "b", "c" }
		end

		function boom()
			error("intentional failure")
		end
	`
	require.NoError(t, engine.LoadScript("test.lua", []byte(script)))

	t.Run("returns numbers", func(t *testing.T) {
		result, err := engine.ExecuteFunction(ctx, "add", 2, 3)
		require.NoError(t, err)
		assert.Equal(t, float64(5), result)
	})

	t.Run("returns strings", func(t *testing.T) {
		result, err := engine.ExecuteFunction(ctx, "greet", "atlas")
		require.NoError(t, err)
		assert.Equal(t, "hello atlas", result)
	})

	t.Run("returns tables as maps", func(t *testing.T) {
		result, err := engine.ExecuteFunction(ctx, "make_table")
		require.NoError(t, err)

		resultMap, ok := result.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "greeting", resultMap["kind"])
		assert.Equal(t, float64(2), resultMap["count"])
	})

	t.Run("returns array tables as slices", func(t *testing.T) {
		result, err := engine.ExecuteFunction(ctx, "make_list")
		require.NoError(t, err)

		assert.Equal(t, []interface{}{"a", "b", "c"}, result)
	})

	t.Run("unknown function", func(t *testing.T) {
		_, err := engine.ExecuteFunction(ctx, "no_such_function")
		assert.ErrorIs(t, err, ErrFunctionNotFound)
	})

	t.Run("runtime errors are wrapped", func(t *testing.T) {
		_, err := engine.ExecuteFunction(ctx, "boom")
		require.ErrorIs(t, err, errors.ErrLuaExecution)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestLuaEngine_LoadScript(t *testing.T) {
	engine := newTestEngine(t)

	err := engine.LoadScript("broken.lua", []byte("function oops( return end"))
	assert.ErrorIs(t, err, errors.ErrLuaExecution)
}

func TestLuaEngine_LoadScriptDir(t *testing.T) {
	engine := newTestEngine(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"),
		[]byte("function from_a() return 1 end"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"),
		[]byte("function from_b() return 2 end"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"),
		[]byte("not a script"), 0o600))

	require.NoError(t, engine.LoadScriptDir(dir))

	ctx := context.Background()
	result, err := engine.ExecuteFunction(ctx, "from_a")
	require.NoError(t, err)
	assert.Equal(t, float64(1), result)

	result, err = engine.ExecuteFunction(ctx, "from_b")
	require.NoError(t, err)
	assert.Equal(t, float64(2), result)
}

func TestLuaEngine_Sandbox(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(t)

	script := `
		function has_os()
			return os ~= nil
		end

		function has_io()
			return io ~= nil
		end

		function can_print()
			print("sandboxed print")
			return true
		end
	`
	require.NoError(t, engine.LoadScript("sandbox.lua", []byte(script)))

	result, err := engine.ExecuteFunction(ctx, "has_os")
	require.NoError(t, err)
	assert.Equal(t, false, result)

	result, err = engine.ExecuteFunction(ctx, "has_io")
	require.NoError(t, err)
	assert.Equal(t, false, result)

	result, err = engine.ExecuteFunction(ctx, "can_print")
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestLuaEngine_Timeout(t *testing.T) {
	engine, err := NewLuaEngine(Config{EnableSandboxing: true, ScriptTimeoutMs: 50})
	require.NoError(t, err)
	defer engine.Close()

	script := `
		function spin()
			while true do end
		end
	`
	require.NoError(t, engine.LoadScript("spin.lua", []byte(script)))

	_, err = engine.ExecuteFunction(context.Background(), "spin")
	assert.Error(t, err)
}
