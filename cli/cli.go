// Package cli provides terminal I/O for Duskmire: the prompt loop, the
// plain-text presenter for dialogue turns and menus, and meta-command
// dispatch.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nathoo/duskmire/engine"
	"github.com/nathoo/duskmire/engine/save"
	"github.com/nathoo/duskmire/engine/state"
	"github.com/nathoo/duskmire/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Defs      *state.Defs
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool // echo each input line after the prompt (for script playback)

	scanner *bufio.Scanner
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Engine:  eng,
		Defs:    defs,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: filepath.Join(home, ".duskmire", "saves"),
	}
}

// Run starts the game loop: prompt → input → dispatch → output.
func (c *CLI) Run() {
	c.scanner = bufio.NewScanner(c.In)
	c.Engine.Confirm = c.Confirm

	if c.Defs.Game.Intro != "" {
		c.printLine(c.Defs.Game.Intro)
		c.printLine("")
	}
	c.cmdNPCs()

	for {
		input, ok := c.readLine("> ")
		if !ok {
			return
		}
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		parts := strings.Fields(strings.ToLower(input))
		verb := parts[0]
		var arg string
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch verb {
		case "talk", "speak":
			c.cmdTalk(arg)
		case "npcs", "who":
			c.cmdNPCs()
		case "inventory", "i":
			c.cmdInventory()
		case "wallet", "coins":
			c.printLine(fmt.Sprintf("You have %d coins.", c.Engine.Wallet()))
		case "help":
			c.cmdHelp()
		default:
			c.printLine("Try 'talk <name>', 'npcs', 'inventory', 'wallet', or /help.")
		}
	}
}

// readLine prints a prompt and reads one trimmed input line.
func (c *CLI) readLine(prompt string) (string, bool) {
	c.print(prompt)
	if !c.scanner.Scan() {
		return "", false
	}
	line := strings.TrimSpace(c.scanner.Text())
	if c.EchoInput {
		c.printLine(line)
	}
	return line, true
}

// cmdTalk runs one full conversation turn with an NPC.
func (c *CLI) cmdTalk(name string) {
	if name == "" {
		c.printLine("Talk to whom?")
		return
	}
	npcID, ok := c.resolveNPC(name)
	if !ok {
		c.printLine("There's nobody here by that name.")
		return
	}

	sess, err := c.Engine.Talk(npcID)
	if err != nil {
		c.printLine(err.Error())
		return
	}

	turn := sess.Start()
	c.presentTurn(turn)

	if len(turn.Options) == 0 {
		return
	}
	index, chosen := c.PresentMenu(turn.Options)
	if !chosen {
		sess.Cancel()
		return
	}
	c.presentTurn(sess.Choose(index))
}

func (c *CLI) presentTurn(turn types.Turn) {
	for _, line := range turn.Text {
		c.PresentText(line)
	}
	if c.Trace {
		for _, w := range turn.Warnings {
			c.printSystem("[trace] " + w)
		}
	}
}

// PresentText prints one finished dialogue line.
func (c *CLI) PresentText(text string) {
	c.printLine(text)
}

// PresentMenu shows a numbered choice menu and reads the player's pick.
// Entering nothing or 0 cancels.
func (c *CLI) PresentMenu(options []types.MenuOption) (int, bool) {
	for i, opt := range options {
		c.printLine(fmt.Sprintf("  %d. %s", i+1, opt.Label))
	}
	for {
		input, ok := c.readLine("choice> ")
		if !ok || input == "" || input == "0" {
			return 0, false
		}
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(options) {
			c.printLine(fmt.Sprintf("Pick a number between 1 and %d, or 0 to walk away.", len(options)))
			continue
		}
		return options[n-1].Index, true
	}
}

// Confirm asks a yes/no question.
func (c *CLI) Confirm(prompt string) bool {
	for {
		input, ok := c.readLine(prompt + " (y/n) ")
		if !ok {
			return false
		}
		switch strings.ToLower(input) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

// resolveNPC matches an NPC id or display name, case-insensitive.
func (c *CLI) resolveNPC(name string) (string, bool) {
	lower := strings.ToLower(name)
	if _, ok := c.Defs.NPCs[lower]; ok {
		return lower, true
	}
	for id, npc := range c.Defs.NPCs {
		if strings.ToLower(npc.Name) == lower ||
			strings.Contains(strings.ToLower(npc.Name), lower) {
			return id, true
		}
	}
	return "", false
}

func (c *CLI) cmdNPCs() {
	if len(c.Defs.NPCs) == 0 {
		c.printLine("There's nobody around.")
		return
	}
	var names []string
	for _, npc := range c.Defs.NPCs {
		names = append(names, npc.Name)
	}
	sort.Strings(names)
	c.printLine("You could talk to: " + strings.Join(names, ", ") + ".")
}

func (c *CLI) cmdInventory() {
	inv := c.Engine.Inventory
	if len(inv) == 0 {
		c.printLine("You are carrying nothing.")
		return
	}
	var names []string
	for _, id := range inv {
		names = append(names, c.Engine.ItemName(id))
	}
	c.printLine("You are carrying: " + strings.Join(names, ", ") + ".")
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := c.Engine.Snapshot()
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.Engine.ApplySave(sd)
	c.printSystem(fmt.Sprintf("Game loaded from %s.", name))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  — Save game (default: quicksave)",
		"  /load [name]  — Load game (default: quicksave)",
		"  /quit         — Exit game",
		"  /help         — Show this help",
		"  /state        — Debug: dump quest state",
		"  /trace        — Toggle debug trace output",
		"",
		"Game commands:",
		"  talk <npc>      — Start a conversation",
		"  npcs (who)      — List who you can talk to",
		"  inventory (i)   — Check what you're carrying",
		"  wallet (coins)  — Check your coin balance",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	c.printSystem(fmt.Sprintf("Wallet: %d", c.Engine.Wallet()))
	c.printSystem(fmt.Sprintf("Inventory: %v", c.Engine.Inventory))
	env := c.Engine.Env
	for _, name := range sortedNames(env.Global) {
		c.printSystem(fmt.Sprintf("global %s = %s", name, env.Global[name].Display()))
	}
	for _, spkr := range sortedSpeakers(env.Speakers) {
		vars := env.Speakers[spkr]
		for _, name := range sortedNames(vars) {
			c.printSystem(fmt.Sprintf("%s: %s = %s", spkr, name, vars[name].Display()))
		}
	}
}

func sortedNames(m map[string]types.Value) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func sortedSpeakers(m map[string]map[string]types.Value) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintln(c.Out, "["+text+"]")
}
