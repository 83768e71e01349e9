// Package tui provides a Bubble Tea terminal UI for Duskmire.
package tui

// inputHistory keeps recent input lines for up/down recall.
type inputHistory struct {
	lines  []string
	max    int
	cursor int // -1 = not navigating
}

func newInputHistory(max int) *inputHistory {
	return &inputHistory{max: max, cursor: -1}
}

// remember appends a line, skipping consecutive duplicates and trimming
// to the capacity.
func (h *inputHistory) remember(line string) {
	if n := len(h.lines); n > 0 && h.lines[n-1] == line {
		return
	}
	h.lines = append(h.lines, line)
	if len(h.lines) > h.max {
		h.lines = h.lines[1:]
	}
	h.cursor = -1
}

// older steps back in history. Returns ("", false) when empty.
func (h *inputHistory) older() (string, bool) {
	if len(h.lines) == 0 {
		return "", false
	}
	if h.cursor == -1 {
		h.cursor = len(h.lines) - 1
	} else if h.cursor > 0 {
		h.cursor--
	}
	return h.lines[h.cursor], true
}

// newer steps forward. Returns ("", false) once past the newest entry.
func (h *inputHistory) newer() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.lines) {
		h.cursor = -1
		return "", false
	}
	return h.lines[h.cursor], true
}
