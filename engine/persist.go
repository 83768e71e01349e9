package engine

import "github.com/nathoo/duskmire/engine/save"

// Snapshot serializes everything a save file needs.
func (e *Engine) Snapshot() ([]byte, error) {
	return save.Save(e.Env, e.Defs, e.Inventory, e.RNG.Seed(), e.RNG.Position())
}

// ApplySave restores environment, inventory, and the RNG stream from
// loaded save data. Conversation behavior after restore is
// indistinguishable from behavior at the moment of the save.
func (e *Engine) ApplySave(sd *save.SaveData) {
	e.Env.Restore(sd.Global, sd.Speakers)
	e.Inventory = sd.Inventory
	e.RNG = RestoreRNG(sd.RNGSeed, sd.RNGPosition)
}
