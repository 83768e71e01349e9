package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/duskmire/engine"
	"github.com/nathoo/duskmire/engine/dialogue"
	"github.com/nathoo/duskmire/engine/save"
	"github.com/nathoo/duskmire/engine/state"
	"github.com/nathoo/duskmire/types"
)

// rawLine stores an unstyled output line with its classification, so we
// can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // echoed player input, shown with the "> " prompt
	isSystem bool // system message, shown bracketed like the CLI's
}

// Model is the Bubble Tea model for the Duskmire TUI.
type Model struct {
	engine *engine.Engine
	defs   *state.Defs

	viewport viewport.Model
	input    textinput.Model
	history  *inputHistory

	// Non-nil while a conversation menu awaits the player's pick.
	session *dialogue.Session
	menu    []types.MenuOption

	rawLines []rawLine

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	saveDir  string
}

// outputMsg carries lines into the Update loop.
type outputMsg struct {
	input    string // echoed player input (empty for intro)
	lines    []string
	isSystem bool
}

// New creates a TUI model wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	home, _ := os.UserHomeDir()
	return Model{
		engine:  eng,
		defs:    defs,
		input:   ti,
		history: newInputHistory(100),
		saveDir: filepath.Join(home, ".duskmire", "saves"),
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, defs *state.Defs) error {
	m := New(eng, defs)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		var lines []string
		lines = append(lines, m.defs.Game.Title+" v"+m.defs.Game.Version+" by "+m.defs.Game.Author)
		lines = append(lines, "")
		if m.defs.Game.Intro != "" {
			lines = append(lines, m.defs.Game.Intro)
			lines = append(lines, "")
		}
		lines = append(lines, m.npcList())
		return outputMsg{lines: lines}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "esc":
			if m.session != nil {
				m.session.Cancel()
				m.session = nil
				m.menu = nil
				m = m.appendOutput(outputMsg{lines: []string{"You walk away."}, isSystem: true})
			}
			return m, nil

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.older(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.newer(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case outputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if input == "" {
		return m, nil
	}
	m.history.remember(input)

	// A menu is open: the line is a choice number, 0 to walk away.
	if m.session != nil {
		return m.handleChoice(input), nil
	}

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(outputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m = m.handleCommand(input)
	return m, nil
}

// handleCommand dispatches a game command line.
func (m Model) handleCommand(input string) Model {
	parts := strings.Fields(strings.ToLower(input))
	verb := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch verb {
	case "talk", "speak":
		return m.startTalk(input, arg)
	case "npcs", "who":
		return m.appendOutput(outputMsg{input: input, lines: []string{m.npcList()}})
	case "inventory", "i":
		return m.appendOutput(outputMsg{input: input, lines: []string{m.inventoryLine()}})
	case "wallet", "coins":
		line := fmt.Sprintf("You have %d coins.", m.engine.Wallet())
		return m.appendOutput(outputMsg{input: input, lines: []string{line}})
	default:
		return m.appendOutput(outputMsg{
			input: input, lines: []string{"Try 'talk <name>', 'npcs', 'inventory', or /help."},
		})
	}
}

// startTalk begins a conversation turn and opens the menu if one comes back.
func (m Model) startTalk(input, name string) Model {
	npcID, ok := m.resolveNPC(name)
	if !ok {
		return m.appendOutput(outputMsg{input: input, lines: []string{"There's nobody here by that name."}})
	}
	sess, err := m.engine.Talk(npcID)
	if err != nil {
		return m.appendOutput(outputMsg{input: input, lines: []string{err.Error()}})
	}

	turn := sess.Start()
	lines := m.turnLines(turn)
	if len(turn.Options) > 0 {
		m.session = sess
		m.menu = turn.Options
		for i, opt := range turn.Options {
			lines = append(lines, fmt.Sprintf("  %d. %s", i+1, opt.Label))
		}
		lines = append(lines, "Pick a number, or Esc to walk away.")
	}
	return m.appendOutput(outputMsg{input: input, lines: lines})
}

// handleChoice resolves a menu pick typed as a number.
func (m Model) handleChoice(input string) Model {
	sess, menu := m.session, m.menu
	n, err := strconv.Atoi(input)
	if err != nil || n < 0 || n > len(menu) {
		line := fmt.Sprintf("Pick a number between 1 and %d, or 0 to walk away.", len(menu))
		return m.appendOutput(outputMsg{input: input, lines: []string{line}, isSystem: true})
	}
	m.session = nil
	m.menu = nil
	if n == 0 {
		sess.Cancel()
		return m.appendOutput(outputMsg{input: input, lines: []string{"You walk away."}, isSystem: true})
	}
	turn := sess.Choose(menu[n-1].Index)
	return m.appendOutput(outputMsg{input: input, lines: m.turnLines(turn)})
}

// turnLines flattens a turn into display lines, with trace warnings.
func (m Model) turnLines(turn types.Turn) []string {
	lines := append([]string{}, turn.Text...)
	if m.trace {
		for _, w := range turn.Warnings {
			lines = append(lines, "[trace] "+w)
		}
	}
	return lines
}

func (m Model) resolveNPC(name string) (string, bool) {
	lower := strings.ToLower(name)
	if lower == "" {
		return "", false
	}
	if _, ok := m.defs.NPCs[lower]; ok {
		return lower, true
	}
	for id, npc := range m.defs.NPCs {
		if strings.Contains(strings.ToLower(npc.Name), lower) {
			return id, true
		}
	}
	return "", false
}

func (m Model) npcList() string {
	if len(m.defs.NPCs) == 0 {
		return "There's nobody around."
	}
	var names []string
	for _, npc := range m.defs.NPCs {
		names = append(names, npc.Name)
	}
	sort.Strings(names)
	return "You could talk to: " + strings.Join(names, ", ") + "."
}

func (m Model) inventoryLine() string {
	inv := m.engine.Inventory
	if len(inv) == 0 {
		return "You are carrying nothing."
	}
	var names []string
	for _, id := range inv {
		names = append(names, m.engine.ItemName(id))
	}
	return "You are carrying: " + strings.Join(names, ", ") + "."
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: msg.input, isInput: true})
	}
	for _, line := range msg.lines {
		rl := rawLine{text: line}
		if msg.isSystem {
			rl.isSystem = true
		} else {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}
	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})
	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current
// width and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(rl.text, width)
		switch {
		case rl.isInput:
			styled = append(styled, styledPlayerInput(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text at word boundaries to fit the given width.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0
	for i, word := range words {
		wLen := len(word)
		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}
		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}
	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true
	case "/save":
		return m.cmdSave(arg), false
	case "/load":
		return m.cmdLoad(arg), false
	case "/help":
		return m.cmdHelp(), false
	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false
	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	data, err := m.engine.Snapshot()
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	path := filepath.Join(m.saveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	path := filepath.Join(m.saveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	sd, err := save.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	m.engine.ApplySave(sd)
	return []string{fmt.Sprintf("Game loaded from %s.", name)}
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]  — Save game (default: quicksave)",
		"  /load [name]  — Load game (default: quicksave)",
		"  /quit         — Exit game",
		"  /trace        — Toggle debug trace output",
		"",
		"Game commands:",
		"  talk <npc>      — Start a conversation",
		"  npcs (who)      — List who you can talk to",
		"  inventory (i)   — Check what you're carrying",
		"  wallet (coins)  — Check your coin balance",
		"",
		"While a menu is open, type its number or press Esc to walk away.",
	}
}

// viewportKeyMap disables the viewport's default bindings that clash
// with text input, keeping only page scrolling.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}
}
