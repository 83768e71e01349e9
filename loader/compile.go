package loader

import (
	"fmt"

	"github.com/nathoo/duskmire/engine/state"
	"github.com/nathoo/duskmire/script"
	"github.com/nathoo/duskmire/types"
	lua "github.com/yuin/gopher-lua"
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// tableToStringMap converts a Lua table to a map[string]string.
func tableToStringMap(tbl *lua.LTable) map[string]string {
	if tbl == nil {
		return nil
	}
	m := map[string]string{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if vs, ok := v.(lua.LString); ok {
				m[string(ks)] = string(vs)
			}
		}
	})
	return m
}

// Variables the engine itself owns; always declared.
var builtinVars = []types.VarDecl{
	{Name: "PLAYER_WALLET", Scope: types.GlobalScope, Type: types.IntKind},
	{Name: "PLAYER_NAME", Scope: types.GlobalScope, Type: types.StringKind},
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := &state.Defs{
		Items:    map[string]types.ItemDef{},
		NPCs:     map[string]types.NPCDef{},
		Scripts:  map[string]*script.Script{},
		Disabled: map[string]string{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = types.GameDef{
		Title:         getString(coll.game, "title"),
		Author:        getString(coll.game, "author"),
		Version:       getString(coll.game, "version"),
		Intro:         getString(coll.game, "intro"),
		StartingCoins: getInt(coll.game, "starting_coins"),
		Lore:          tableToStringMap(getTable(coll.game, "lore")),
	}

	for _, raw := range coll.items {
		if _, dup := defs.Items[raw.id]; dup {
			return nil, fmt.Errorf("duplicate item %q", raw.id)
		}
		defs.Items[raw.id] = types.ItemDef{
			ID:   raw.id,
			Name: getString(raw.table, "name"),
		}
	}

	for _, raw := range coll.npcs {
		if _, dup := defs.NPCs[raw.id]; dup {
			return nil, fmt.Errorf("duplicate npc %q", raw.id)
		}
		npc := types.NPCDef{
			ID:        raw.id,
			Name:      getString(raw.table, "name"),
			Archetype: getString(raw.table, "archetype"),
			Lore:      tableToStringMap(getTable(raw.table, "lore")),
		}
		if npc.Archetype == "" {
			npc.Archetype = raw.id
		}
		defs.NPCs[raw.id] = npc
	}

	decls := append([]types.VarDecl{}, builtinVars...)
	for _, raw := range coll.vars {
		decl, err := compileVar(raw.table)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	defs.Manifest = state.NewManifest(decls)

	return defs, nil
}

func compileVar(tbl *lua.LTable) (types.VarDecl, error) {
	name := getString(tbl, "name")
	if name == "" {
		return types.VarDecl{}, fmt.Errorf("Var{} needs a name")
	}
	decl := types.VarDecl{Name: name, Scope: types.SpeakerScope, Type: types.IntKind}
	switch s := getString(tbl, "scope"); s {
	case "global":
		decl.Scope = types.GlobalScope
	case "speaker", "":
	default:
		return types.VarDecl{}, fmt.Errorf("var %s: unknown scope %q", name, s)
	}
	if tn := getString(tbl, "type"); tn != "" {
		kind, ok := types.KindFromName(tn)
		if !ok {
			return types.VarDecl{}, fmt.Errorf("var %s: unknown type %q", name, tn)
		}
		decl.Type = kind
	}
	return decl, nil
}
