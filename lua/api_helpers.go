package lua

import (
	"sort"
	"strings"

	glua "github.com/yuin/gopher-lua"
)

// registerHelperFuncs registers pick.* string helpers for filter scripts.
func (e *Engine) registerHelperFuncs() {
	// pick.lower(s)
	e.L.SetField(e.pickTable, "lower", e.L.NewFunction(func(L *glua.LState) int {
		L.Push(glua.LString(strings.ToLower(L.CheckString(1))))
		return 1
	}))

	// pick.contains(haystack, needle): case-insensitive substring test
	e.L.SetField(e.pickTable, "contains", e.L.NewFunction(func(L *glua.LState) int {
		haystack := strings.ToLower(L.CheckString(1))
		needle := strings.ToLower(L.CheckString(2))
		L.Push(glua.LBool(strings.Contains(haystack, needle)))
		return 1
	}))

	// pick.label(option): the searchable text of an option. Record fields
	// are joined by spaces in name order. pick.text is an alias.
	label := e.L.NewFunction(func(L *glua.LState) int {
		switch v := L.Get(1).(type) {
		case glua.LString:
			L.Push(v)
		case *glua.LTable:
			var names []string
			v.ForEach(func(k, _ glua.LValue) {
				names = append(names, k.String())
			})
			sort.Strings(names)
			parts := make([]string, len(names))
			for i, name := range names {
				parts[i] = v.RawGetString(name).String()
			}
			L.Push(glua.LString(strings.Join(parts, " ")))
		default:
			L.Push(glua.LString(v.String()))
		}
		return 1
	})
	e.L.SetField(e.pickTable, "label", label)
	e.L.SetField(e.pickTable, "text", label)

	// pick.log(msg): write to the host log
	e.L.SetField(e.pickTable, "log", e.L.NewFunction(func(L *glua.LState) int {
		e.logger.Info("lua", "msg", L.CheckString(1))
		return 0
	}))
}
