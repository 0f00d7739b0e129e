package scripting

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
)

// goToLua converts a Go value (as produced by YAML content or mutation
// values) into a Lua value. Unsupported types become nil.
func goToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := L.NewTable()
		for _, item := range val {
			t.Append(goToLua(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, goToLua(L, item))
		}
		return t
	default:
		return lua.LNil
	}
}

// luaToGo converts a Lua value into a Go value. Integral numbers come back
// as int so they round-trip with YAML-loaded properties; tables with only
// consecutive integer keys become slices, all others become maps.
func luaToGo(lv lua.LValue) any {
	switch val := lv.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == math.Trunc(f) {
			return int(f)
		}
		return f
	case lua.LString:
		return string(val)
	case *lua.LTable:
		n := val.Len()
		if n > 0 {
			seq := make([]any, 0, n)
			isSeq := true
			val.ForEach(func(k, v lua.LValue) {
				if _, ok := k.(lua.LNumber); !ok {
					isSeq = false
				}
			})
			if isSeq {
				for i := 1; i <= n; i++ {
					seq = append(seq, luaToGo(val.RawGetInt(i)))
				}
				return seq
			}
		}
		m := make(map[string]any)
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = luaToGo(v)
			}
		})
		return m
	default:
		return nil
	}
}

// changeSpecs decodes the changes argument of engine.apply. Each element
// must be a table with op, path, and (for set and append) value fields.
func changeSpecs(t *lua.LTable) ([]ChangeSpec, error) {
	var specs []ChangeSpec
	n := t.Len()
	for i := 1; i <= n; i++ {
		ct, ok := t.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("change %d is not a table", i)
		}
		op, ok := ct.RawGetString("op").(lua.LString)
		if !ok {
			return nil, fmt.Errorf("change %d has no op", i)
		}
		pt, ok := ct.RawGetString("path").(*lua.LTable)
		if !ok || pt.Len() == 0 {
			return nil, fmt.Errorf("change %d has no path", i)
		}
		var path []string
		for j := 1; j <= pt.Len(); j++ {
			seg, ok := pt.RawGetInt(j).(lua.LString)
			if !ok {
				return nil, fmt.Errorf("change %d path segment %d is not a string", i, j)
			}
			path = append(path, string(seg))
		}
		specs = append(specs, ChangeSpec{
			Op:    string(op),
			Path:  path,
			Value: luaToGo(ct.RawGetString("value")),
		})
	}
	return specs, nil
}
