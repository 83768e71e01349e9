package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the Lua world-definition constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Game { title = "...", intro = "...", starting_coins = 5, lore = {...} }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.game = tbl
		return 0
	}))

	// Item "id" { name = "..." } — curried: Item("id") returns a function
	// that takes the definition table.
	L.SetGlobal("Item", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.items = append(coll.items, rawItem{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// NPC "id" { name = "...", archetype = "...", lore = {...} } — curried.
	L.SetGlobal("NPC", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.npcs = append(coll.npcs, rawNPC{id: id, table: tbl})
			return 0
		}))
		return 1
	}))

	// Var { name = "DIALOGUE_STATE", scope = "speaker", type = "int" }
	// Every script variable is declared exactly once.
	L.SetGlobal("Var", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.vars = append(coll.vars, rawVar{table: tbl})
		return 0
	}))
}
