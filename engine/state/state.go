// Package state holds the world definitions and the script variable
// environment: one Global store shared by every NPC and one PerSpeaker
// store keyed by NPC instance id. Both persist with the save.
package state

import (
	"github.com/nathoo/duskmire/script"
	"github.com/nathoo/duskmire/types"
)

// Defs holds the immutable world definitions produced by the loader.
type Defs struct {
	Game     types.GameDef
	Items    map[string]types.ItemDef
	NPCs     map[string]types.NPCDef
	Scripts  map[string]*script.Script // keyed by archetype
	Disabled map[string]string         // archetype → load error, fallback "..." at runtime
	Manifest *Manifest
}

// Manifest is the explicit per-variable scope and type declaration table.
// Every script variable is declared once in the world files; the manifest
// is what routes reads and writes to the right store.
type Manifest struct {
	decls map[string]types.VarDecl
}

// NewManifest builds a manifest from declarations. Later duplicates win.
func NewManifest(decls []types.VarDecl) *Manifest {
	m := &Manifest{decls: make(map[string]types.VarDecl, len(decls))}
	for _, d := range decls {
		m.decls[d.Name] = d
	}
	return m
}

// Declared returns the declaration for a name, if any.
func (m *Manifest) Declared(name string) (types.VarDecl, bool) {
	d, ok := m.decls[name]
	return d, ok
}

// Resolve returns the effective declaration for a name. Undeclared names
// default to a per-speaker int, the dominant case in authored scripts
// (DIALOGUE_STATE and friends). The content lint flags undeclared names.
func (m *Manifest) Resolve(name string) types.VarDecl {
	if d, ok := m.decls[name]; ok {
		return d
	}
	return types.VarDecl{Name: name, Scope: types.SpeakerScope, Type: types.IntKind}
}

// Store is what the interpreter reads and writes variables through.
// *Env writes commit immediately; *Txn writes stage until Commit.
type Store interface {
	Get(speakerID, name string) types.Value
	Set(speakerID, name string, v types.Value)
}

// Env is the mutable script variable environment.
type Env struct {
	Global   map[string]types.Value
	Speakers map[string]map[string]types.Value
	manifest *Manifest
}

// NewEnv creates an empty environment routed by the given manifest.
func NewEnv(m *Manifest) *Env {
	return &Env{
		Global:   map[string]types.Value{},
		Speakers: map[string]map[string]types.Value{},
		manifest: m,
	}
}

// Manifest returns the routing manifest.
func (e *Env) Manifest() *Manifest { return e.manifest }

// Get reads a variable as seen by the given speaker. Unbound names read
// as the declared type's zero value, never an error: scripts probe flags
// that may not exist yet.
func (e *Env) Get(speakerID, name string) types.Value {
	d := e.manifest.Resolve(name)
	if d.Scope == types.GlobalScope {
		if v, ok := e.Global[name]; ok {
			return v
		}
	} else if vars, ok := e.Speakers[speakerID]; ok {
		if v, ok := vars[name]; ok {
			return v
		}
	}
	return types.ZeroOf(d.Type)
}

// Set writes a variable into whichever scope the manifest declares.
func (e *Env) Set(speakerID, name string, v types.Value) {
	d := e.manifest.Resolve(name)
	if d.Scope == types.GlobalScope {
		e.Global[name] = v
		return
	}
	vars, ok := e.Speakers[speakerID]
	if !ok {
		vars = map[string]types.Value{}
		e.Speakers[speakerID] = vars
	}
	vars[name] = v
}

// Restore replaces the environment contents from saved maps, normalizing
// nils so loaded saves never leave nil maps behind.
func (e *Env) Restore(global map[string]types.Value, speakers map[string]map[string]types.Value) {
	if global == nil {
		global = map[string]types.Value{}
	}
	if speakers == nil {
		speakers = map[string]map[string]types.Value{}
	}
	e.Global = global
	e.Speakers = speakers
}

// Txn is a staged view over an Env. Reads see staged writes first; nothing
// touches the underlying Env until Commit. Option bodies run in a Txn so
// a failed spend can discard every write.
type Txn struct {
	base   *Env
	writes []write
	staged map[string]int // key → index into writes
}

type write struct {
	key  string
	name string
	spkr string
	val  types.Value
}

// Begin starts a transaction over the environment.
func (e *Env) Begin() *Txn {
	return &Txn{base: e, staged: map[string]int{}}
}

func (e *Env) key(speakerID, name string) string {
	d := e.manifest.Resolve(name)
	if d.Scope == types.GlobalScope {
		return "g\x00" + name
	}
	return "s\x00" + speakerID + "\x00" + name
}

// Get reads through the staged writes to the base environment.
func (t *Txn) Get(speakerID, name string) types.Value {
	if i, ok := t.staged[t.base.key(speakerID, name)]; ok {
		return t.writes[i].val
	}
	return t.base.Get(speakerID, name)
}

// Set stages a write.
func (t *Txn) Set(speakerID, name string, v types.Value) {
	key := t.base.key(speakerID, name)
	if i, ok := t.staged[key]; ok {
		t.writes[i].val = v
		return
	}
	t.staged[key] = len(t.writes)
	t.writes = append(t.writes, write{key: key, name: name, spkr: speakerID, val: v})
}

// Commit applies staged writes to the base environment in write order.
func (t *Txn) Commit() {
	for _, w := range t.writes {
		t.base.Set(w.spkr, w.name, w.val)
	}
	t.writes = nil
	t.staged = map[string]int{}
}
