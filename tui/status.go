package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line showing the
// game title, wallet, and inventory.
func (m Model) renderStatusBar() string {
	left := " " + m.defs.Game.Title
	if m.session != nil {
		left += " | in conversation"
	}
	right := fmt.Sprintf("Coins: %d ", m.engine.Wallet())

	// Show inventory items if they fit, otherwise just the count.
	if n := len(m.engine.Inventory); n > 0 {
		var names []string
		for _, id := range m.engine.Inventory {
			names = append(names, m.engine.ItemName(id))
		}
		candidate := fmt.Sprintf("Inv: %s | Coins: %d ", strings.Join(names, ", "), m.engine.Wallet())
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | Coins: %d ", n, m.engine.Wallet())
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return styleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
