// Package types defines the shared data structures for the Duskmire dialogue
// engine. This package contains only data and small value helpers — no
// interpretation logic.
package types

// VarScope says which environment a script variable lives in.
type VarScope int

const (
	// GlobalScope variables are shared by every NPC and persist with the save.
	GlobalScope VarScope = iota
	// SpeakerScope variables are private to one NPC instance.
	SpeakerScope
)

// String returns the manifest name of the scope.
func (s VarScope) String() string {
	if s == GlobalScope {
		return "global"
	}
	return "speaker"
}

// VarDecl is one entry of the variable manifest: every script variable is
// declared once with an explicit scope and type.
type VarDecl struct {
	Name  string
	Scope VarScope
	Type  Kind
}

// ItemDef is the definition of a grantable item template.
type ItemDef struct {
	ID   string
	Name string
}

// NPCDef is the definition of an NPC archetype's world presence. All
// instances of an archetype share one dialogue script.
type NPCDef struct {
	ID        string            // instance id, e.g. "marsh_warden"
	Archetype string            // script name, e.g. "warden"
	Name      string            // display name, also the #NPC_NAME binding
	Lore      map[string]string // extra #NAME bindings for this NPC
}

// GameDef holds game metadata from the world files.
type GameDef struct {
	Title         string
	Author        string
	Version       string
	Intro         string
	StartingCoins int
	Lore          map[string]string // game-wide #NAME bindings (town name, etc.)
}

// MenuOption is one entry of a presented choice menu. Index is the
// position in the collected menu, used to select the option later.
type MenuOption struct {
	Index int
	Label string
}

// Turn is the visible outcome of one conversation turn: the lines said,
// the filtered choice menu (empty when the turn closed without choices),
// and any non-fatal warnings hit along the way.
type Turn struct {
	Text     []string
	Options  []MenuOption
	Ended    bool
	Warnings []string
}

// Economy is the inventory/economy collaborator consumed by dialogue
// side effects.
type Economy interface {
	// GiveItem grants one item from npcID to the player, with a flavor line.
	GiveItem(npcID, itemID, flavor string)
	// SpendCurrency deducts amount from the player's wallet. Returns false,
	// without deducting, if the balance is insufficient.
	SpendCurrency(amount int) bool
	// OfferItem presents an item for the player to accept or decline.
	OfferItem(itemID string) bool
}

// Presenter is the presentation collaborator: it shows text, collects a
// menu choice, and asks yes/no questions. PresentMenu returns ok=false
// when the player cancels out of the menu.
type Presenter interface {
	PresentText(text string)
	PresentMenu(options []MenuOption) (index int, ok bool)
	Confirm(prompt string) bool
}
