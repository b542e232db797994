package script

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/Shopify/go-lua"
)

func goToLua(L *lua.State, value any) {
	switch v := value.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int:
		L.PushInteger(v)
	case int64:
		L.PushInteger(int(v))
	case float64:
		L.PushNumber(v)
	case time.Time:
		L.PushString(v.Format(time.RFC3339Nano))
	case []any:
		pushLuaArray(L, v)
	case map[any]struct{}:
		pushLuaArray(L, setElements(v))
	case map[any]any:
		pushLuaMap(L, v)
	case map[string]any:
		m := make(map[any]any, len(v))
		for k, e := range v {
			m[k] = e
		}
		pushLuaMap(L, m)
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaArray(L *lua.State, arr []any) {
	L.CreateTable(len(arr), 0)
	for i, item := range arr {
		L.PushInteger(i + 1)
		goToLua(L, item)
		L.SetTable(luaTableIndex)
	}
}

func pushLuaMap(L *lua.State, m map[any]any) {
	L.CreateTable(0, len(m))
	for k, val := range m {
		L.PushString(fmt.Sprintf("%v", k))
		goToLua(L, val)
		L.SetTable(luaTableIndex)
	}
}

func setElements(s map[any]struct{}) []any {
	res := make([]any, 0, len(s))
	for e := range s {
		res = append(res, e)
	}
	slices.SortFunc(res, func(a, b any) int {
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	})
	return res
}

func luaNumberToGo(L *lua.State, index int) any {
	num, _ := L.ToNumber(index)
	if num == float64(int(num)) {
		return int(num)
	}
	return num
}

func luaToGo(L *lua.State, index int) any {
	switch L.TypeOf(index) {
	case lua.TypeNil:
		return nil
	case lua.TypeBoolean:
		return L.ToBoolean(index)
	case lua.TypeNumber:
		return luaNumberToGo(L, index)
	case lua.TypeString:
		s, _ := L.ToString(index)
		return s
	case lua.TypeTable:
		return luaTableToAny(L, index)
	default:
		return nil
	}
}

func luaTableToAny(L *lua.State, index int) any {
	isArray := true
	length := 0

	L.PushNil()
	for L.Next(index - 1) {
		if !L.IsNumber(-2) {
			isArray = false
			L.Pop(2)
			break
		}
		length++
		L.Pop(1)
	}

	if isArray && length > 0 {
		return luaArray(L, index, length)
	}

	res := map[any]any{}
	L.PushNil()
	for L.Next(index - 1) {
		if L.TypeOf(-2) == lua.TypeString {
			key, _ := L.ToString(-2)
			res[key] = luaToGo(L, -1)
		} else {
			res[fmt.Sprintf("%v", luaToGo(L, -2))] = luaToGo(L, -1)
		}
		L.Pop(1)
	}
	return res
}

func luaArray(L *lua.State, index, length int) []any {
	arr := make([]any, length)
	absIndex := index
	if index < 0 {
		absIndex = L.Top() + index + 1
	}
	for i := 1; i <= length; i++ {
		L.RawGetInt(absIndex, i)
		arr[i-1] = luaToGo(L, -1)
		L.Pop(1)
	}
	return arr
}
