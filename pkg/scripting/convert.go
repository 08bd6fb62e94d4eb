package scripting

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// convertGoToLua converts a Go value into a Lua value. Unknown types fall
// back to their string representation.
func convertGoToLua(L *lua.LState, value interface{}) lua.LValue {
	switch v := value.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case time.Time:
		return lua.LNumber(v.Unix())
	case []string:
		table := L.NewTable()
		for _, item := range v {
			table.Append(lua.LString(item))
		}
		return table
	case []interface{}:
		table := L.NewTable()
		for _, item := range v {
			table.Append(convertGoToLua(L, item))
		}
		return table
	case []map[string]interface{}:
		table := L.NewTable()
		for _, item := range v {
			table.Append(convertGoToLua(L, item))
		}
		return table
	case map[string]interface{}:
		table := L.NewTable()
		for key, item := range v {
			table.RawSetString(key, convertGoToLua(L, item))
		}
		return table
	case map[string]float64:
		table := L.NewTable()
		for key, item := range v {
			table.RawSetString(key, lua.LNumber(item))
		}
		return table
	default:
		return lua.LString(fmt.Sprintf("%v", v))
	}
}

// convertLuaToGo converts a Lua value into a Go value. Tables with only
// positive integer keys become slices; everything else becomes a map.
func convertLuaToGo(value lua.LValue) interface{} {
	switch v := value.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return convertLuaTable(v)
	default:
		return v.String()
	}
}

func convertLuaTable(table *lua.LTable) interface{} {
	maxN := table.MaxN()
	if maxN > 0 {
		slice := make([]interface{}, 0, maxN)
		for i := 1; i <= maxN; i++ {
			slice = append(slice, convertLuaToGo(table.RawGetInt(i)))
		}
		return slice
	}

	result := make(map[string]interface{})
	table.ForEach(func(key, item lua.LValue) {
		result[fmt.Sprintf("%v", convertLuaToGo(key))] = convertLuaToGo(item)
	})
	return result
}
