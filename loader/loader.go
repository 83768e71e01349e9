// Package loader loads world content into immutable definitions: Lua files
// define the game, items, NPCs, and the variable manifest; .dlg files hold
// one dialogue script per NPC archetype. The Lua VM is discarded after
// loading — zero Lua at runtime.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/duskmire/engine/state"
	"github.com/nathoo/duskmire/script"
	lua "github.com/yuin/gopher-lua"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game  *lua.LTable
	items []rawItem
	npcs  []rawNPC
	vars  []rawVar
}

type rawItem struct {
	id    string
	table *lua.LTable
}

type rawNPC struct {
	id    string
	table *lua.LTable
}

type rawVar struct {
	table *lua.LTable
}

// Load reads all .lua world files and .dlg dialogue scripts from dir,
// compiles them into definitions, and validates references. A dialogue
// script that fails to parse disables its archetype (the NPC falls back
// to a "..." line) and surfaces as a validation warning, not a crash.
func Load(dir string) (*state.Defs, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading world directory %s: %w", dir, err)
	}

	var luaFiles, dlgFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch {
		case strings.HasSuffix(e.Name(), ".lua"):
			luaFiles = append(luaFiles, e.Name())
		case strings.HasSuffix(e.Name(), ".dlg"):
			dlgFiles = append(dlgFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	luaFiles = sortedLuaFiles(luaFiles)

	// Create sandboxed VM and run the world files.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	defs, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling world data: %w", err)
	}

	// Parse dialogue scripts, one per archetype. Parse errors disable the
	// archetype instead of failing the whole world.
	sort.Strings(dlgFiles)
	for _, f := range dlgFiles {
		name := strings.TrimSuffix(f, ".dlg")
		src, err := os.ReadFile(filepath.Join(dir, f))
		if err != nil {
			return nil, fmt.Errorf("reading script %s: %w", f, err)
		}
		sc, err := script.Parse(name, f, string(src))
		if err != nil {
			defs.Disabled[name] = err.Error()
			continue
		}
		defs.Scripts[name] = sc
	}

	if err := validate(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// sortedLuaFiles puts game.lua first, the rest alphabetical.
func sortedLuaFiles(files []string) []string {
	sort.Strings(files)
	for i, f := range files {
		if f == "game.lua" && i != 0 {
			copy(files[1:i+1], files[:i])
			files[0] = "game.lua"
			break
		}
	}
	return files
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals from the VM.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
		}
	}
}
