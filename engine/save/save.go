// Package save implements JSON serialization and deserialization of the
// persistent conversation state: the Global and PerSpeaker variable maps,
// the player's inventory and wallet, and the RNG stream position.
package save

import (
	"encoding/json"

	"github.com/nathoo/duskmire/engine/state"
	"github.com/nathoo/duskmire/types"
)

// FormatVersion is the save file format version.
const FormatVersion = "1"

// SaveData is the JSON-serializable save format. Variable values carry an
// explicit type tag so every stored value round-trips exactly.
type SaveData struct {
	Format      string                            `json:"format"`
	Game        string                            `json:"game"`
	Global      map[string]types.Value            `json:"global"`
	Speakers    map[string]map[string]types.Value `json:"speakers"`
	Inventory   []string                          `json:"inventory"`
	RNGSeed     int64                             `json:"rng_seed"`
	RNGPosition int64                             `json:"rng_position"`
}

// Save serializes the environment and player belongings to JSON bytes.
func Save(env *state.Env, defs *state.Defs, inventory []string, rngSeed, rngPos int64) ([]byte, error) {
	data := SaveData{
		Format:      FormatVersion,
		Game:        defs.Game.Title,
		Global:      env.Global,
		Speakers:    env.Speakers,
		Inventory:   inventory,
		RNGSeed:     rngSeed,
		RNGPosition: rngPos,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData, normalizing nil maps.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Global == nil {
		sd.Global = map[string]types.Value{}
	}
	if sd.Speakers == nil {
		sd.Speakers = map[string]map[string]types.Value{}
	}
	if sd.Inventory == nil {
		sd.Inventory = []string{}
	}
	return &sd, nil
}
