package scripting

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/log"
)

// LuaEngine implements the Engine interface on a single gopher-lua state.
// The state is not safe for concurrent use, so all calls serialize on a
// mutex.
type LuaEngine struct {
	state  *lua.LState
	config Config
	mu     sync.Mutex
}

// NewLuaEngine creates a Lua engine with the given configuration.
func NewLuaEngine(config Config) (*LuaEngine, error) {
	state := lua.NewState()
	if config.EnableSandboxing {
		setupSandbox(state)
	}
	registerAPIFunctions(state)

	log.Debug("Created Lua scripting engine",
		"sandboxed", config.EnableSandboxing,
		"timeout_ms", config.ScriptTimeoutMs)

	return &LuaEngine{
		state:  state,
		config: config,
	}, nil
}

// LoadScript compiles and runs a script so its functions become available.
func (e *LuaEngine) LoadScript(name string, content []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, err := e.state.Load(bytes.NewReader(content), name)
	if err != nil {
		return errors.Wrap(errors.ErrLuaExecution, "failed to compile script %s: %v", name, err)
	}

	e.state.Push(fn)
	if err := e.state.PCall(0, lua.MultRet, nil); err != nil {
		return errors.Wrap(errors.ErrLuaExecution, "failed to run script %s: %v", name, err)
	}
	return nil
}

// LoadScriptFile loads a script from disk.
func (e *LuaEngine) LoadScriptFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read script file %s", path)
	}
	return e.LoadScript(filepath.Base(path), content)
}

// LoadScriptDir loads every .lua file in dir, in lexical order.
func (e *LuaEngine) LoadScriptDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "failed to read script directory %s", dir)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".lua") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := e.LoadScriptFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}

	log.Debug("Loaded Lua scripts", "dir", dir, "count", len(names))
	return nil
}

// ExecuteFunction calls a previously loaded global Lua function and
// converts its first return value back to Go.
func (e *LuaEngine) ExecuteFunction(ctx context.Context, funcName string, args ...interface{}) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.state.GetGlobal(funcName)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, funcName)
	}

	if e.config.ScriptTimeoutMs > 0 {
		timeout := time.Duration(e.config.ScriptTimeoutMs) * time.Millisecond
		execCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		e.state.SetContext(execCtx)
		defer e.state.RemoveContext()
	}

	luaArgs := make([]lua.LValue, len(args))
	for i, arg := range args {
		luaArgs[i] = convertGoToLua(e.state, arg)
	}

	err := e.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, luaArgs...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrLuaExecution, "function %s failed: %v", funcName, err)
	}

	ret := e.state.Get(-1)
	e.state.Pop(1)
	return convertLuaToGo(ret), nil
}

// Close shuts the underlying Lua state down.
func (e *LuaEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Close()
	return nil
}
