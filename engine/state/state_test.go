package state

import (
	"testing"

	"github.com/nathoo/duskmire/types"
)

func testManifest() *Manifest {
	return NewManifest([]types.VarDecl{
		{Name: "MAIN_QUEST_STATUS", Scope: types.GlobalScope, Type: types.StringKind},
		{Name: "PLAYER_WALLET", Scope: types.GlobalScope, Type: types.IntKind},
		{Name: "DIALOGUE_STATE", Scope: types.SpeakerScope, Type: types.IntKind},
		{Name: "MET_PLAYER", Scope: types.SpeakerScope, Type: types.BoolKind},
	})
}

func TestEnv_UnboundReadsTypedZero(t *testing.T) {
	env := NewEnv(testManifest())

	if v := env.Get("warden", "MET_PLAYER"); v.Kind != types.BoolKind || v.B {
		t.Errorf("unbound bool should read false, got %+v", v)
	}
	if v := env.Get("warden", "DIALOGUE_STATE"); v.Kind != types.IntKind || v.I != 0 {
		t.Errorf("unbound int should read 0, got %+v", v)
	}
	if v := env.Get("warden", "MAIN_QUEST_STATUS"); v.Kind != types.StringKind || v.S != "" {
		t.Errorf(`unbound string should read "", got %+v`, v)
	}
}

func TestEnv_ScopeRouting(t *testing.T) {
	env := NewEnv(testManifest())

	env.Set("warden", "MAIN_QUEST_STATUS", types.StringVal("started"))
	env.Set("warden", "DIALOGUE_STATE", types.IntVal(2))

	if _, ok := env.Global["MAIN_QUEST_STATUS"]; !ok {
		t.Error("global-declared variable did not land in the Global map")
	}
	if _, ok := env.Speakers["warden"]["DIALOGUE_STATE"]; !ok {
		t.Error("speaker-declared variable did not land in the speaker map")
	}
	// Global reads are speaker-independent.
	if v := env.Get("barkeep", "MAIN_QUEST_STATUS"); v.S != "started" {
		t.Errorf("expected global visible to all speakers, got %+v", v)
	}
}

func TestEnv_SpeakerIsolation(t *testing.T) {
	env := NewEnv(testManifest())
	env.Set("warden", "DIALOGUE_STATE", types.IntVal(3))

	if v := env.Get("barkeep", "DIALOGUE_STATE"); v.I != 0 {
		t.Errorf("speaker variable leaked across speakers: %+v", v)
	}
	if v := env.Get("warden", "DIALOGUE_STATE"); v.I != 3 {
		t.Errorf("expected 3 for owning speaker, got %+v", v)
	}
}

func TestEnv_UndeclaredDefaultsToSpeakerInt(t *testing.T) {
	env := NewEnv(testManifest())
	env.Set("warden", "RUMOR_COUNT", types.IntVal(1))

	if _, ok := env.Speakers["warden"]["RUMOR_COUNT"]; !ok {
		t.Error("undeclared variable should default to the speaker scope")
	}
	if v := env.Get("warden", "RUMOR_COUNT"); v.I != 1 {
		t.Errorf("expected 1, got %+v", v)
	}
}

func TestTxn_StagedReadsAndCommit(t *testing.T) {
	env := NewEnv(testManifest())
	env.Set("warden", "DIALOGUE_STATE", types.IntVal(1))

	txn := env.Begin()
	txn.Set("warden", "DIALOGUE_STATE", types.IntVal(2))
	txn.Set("warden", "PLAYER_WALLET", types.IntVal(7))

	// Reads through the txn see staged writes; the base env does not.
	if v := txn.Get("warden", "DIALOGUE_STATE"); v.I != 2 {
		t.Errorf("txn read expected 2, got %+v", v)
	}
	if v := env.Get("warden", "DIALOGUE_STATE"); v.I != 1 {
		t.Errorf("base env mutated before commit: %+v", v)
	}

	txn.Commit()
	if v := env.Get("warden", "DIALOGUE_STATE"); v.I != 2 {
		t.Errorf("expected 2 after commit, got %+v", v)
	}
	if v := env.Get("", "PLAYER_WALLET"); v.I != 7 {
		t.Errorf("expected wallet 7 after commit, got %+v", v)
	}
}

func TestTxn_DiscardLeavesBaseUntouched(t *testing.T) {
	env := NewEnv(testManifest())
	txn := env.Begin()
	txn.Set("warden", "MET_PLAYER", types.BoolVal(true))
	// Dropped without commit.
	if v := env.Get("warden", "MET_PLAYER"); v.B {
		t.Error("discarded transaction leaked a write")
	}
}

func TestEnv_RestoreNormalizesNil(t *testing.T) {
	env := NewEnv(testManifest())
	env.Restore(nil, nil)
	if env.Global == nil || env.Speakers == nil {
		t.Fatal("Restore left nil maps")
	}
	env.Set("warden", "DIALOGUE_STATE", types.IntVal(1)) // must not panic
}
