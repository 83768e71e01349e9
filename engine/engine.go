// Package engine wires world definitions, the variable environment, and
// the RNG into a running game, and hands out conversation sessions.
package engine

import (
	"fmt"

	"github.com/nathoo/duskmire/engine/dialogue"
	"github.com/nathoo/duskmire/engine/lore"
	"github.com/nathoo/duskmire/engine/state"
	"github.com/nathoo/duskmire/script"
	"github.com/nathoo/duskmire/types"
)

// WalletVar is the global variable holding the player's coin balance.
const WalletVar = "PLAYER_WALLET"

// fallbackScript is what a disabled archetype says instead of crashing.
var fallbackScript = &script.Script{
	Body: []script.Node{
		&script.Say{Content: script.Text{Parts: []script.TextPart{script.LitPart("...")}}},
	},
}

// Engine holds the immutable world definitions and all mutable state.
// It is also the inventory/economy collaborator dialogue sessions call.
type Engine struct {
	Defs      *state.Defs
	Env       *state.Env
	RNG       *RNG
	Inventory []string

	// Confirm answers offer prompts. The front end installs its own;
	// the default accepts everything.
	Confirm func(prompt string) bool
}

// New creates an engine with a fresh environment seeded from definitions.
func New(defs *state.Defs, rngSeed int64) *Engine {
	env := state.NewEnv(defs.Manifest)
	env.Set("", WalletVar, types.IntVal(defs.Game.StartingCoins))
	return &Engine{
		Defs:      defs,
		Env:       env,
		RNG:       NewRNG(rngSeed),
		Inventory: []string{},
		Confirm:   func(string) bool { return true },
	}
}

// Wallet returns the player's current coin balance.
func (e *Engine) Wallet() int {
	return e.Env.Get("", WalletVar).I
}

// Talk starts a new conversation session with the given NPC. Every call
// returns a fresh Idle session that re-evaluates the archetype script
// from its root; a disabled archetype gets the "..." fallback.
func (e *Engine) Talk(npcID string) (*dialogue.Session, error) {
	npc, ok := e.Defs.NPCs[npcID]
	if !ok {
		return nil, fmt.Errorf("unknown npc %q", npcID)
	}
	sc, ok := e.Defs.Scripts[npc.Archetype]
	if !ok {
		sc = fallbackScript
	}
	return dialogue.New(sc, npcID, e.Env, e.loreContext(npc), e, e.RNG), nil
}

// loreContext builds the placeholder bindings for one NPC: game-wide lore,
// then NPC-specific lore, then the NPC's own display name.
func (e *Engine) loreContext(npc types.NPCDef) *lore.Context {
	ctx := lore.NewContext()
	for name, v := range e.Defs.Game.Lore {
		ctx.Bind(name, v)
	}
	for name, v := range npc.Lore {
		ctx.Bind(name, v)
	}
	ctx.Bind("NPC_NAME", npc.Name)
	if pn := e.Env.Get("", "PLAYER_NAME"); pn.Kind == types.StringKind && pn.S != "" {
		ctx.Bind("PLAYER_NAME", pn.S)
	}
	return ctx
}

// GiveItem grants an item template to the player.
func (e *Engine) GiveItem(npcID, itemID, flavor string) {
	e.Inventory = append(e.Inventory, itemID)
}

// SpendCurrency deducts amount from the wallet. Returns false, with the
// wallet untouched, when the balance is insufficient.
func (e *Engine) SpendCurrency(amount int) bool {
	balance := e.Wallet()
	if balance < amount {
		return false
	}
	e.Env.Set("", WalletVar, types.IntVal(balance-amount))
	return true
}

// OfferItem asks the player to accept an item; accepted items join the
// inventory.
func (e *Engine) OfferItem(itemID string) bool {
	name := itemID
	if item, ok := e.Defs.Items[itemID]; ok {
		name = item.Name
	}
	if !e.Confirm(fmt.Sprintf("Accept the %s?", name)) {
		return false
	}
	e.Inventory = append(e.Inventory, itemID)
	return true
}

// ItemName returns the display name of an item template.
func (e *Engine) ItemName(itemID string) string {
	if item, ok := e.Defs.Items[itemID]; ok {
		return item.Name
	}
	return itemID
}
