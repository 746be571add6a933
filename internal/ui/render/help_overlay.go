package render

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
	"github.com/kk-code-lab/rbrowse/internal/textutil"
)

type helpOverlayEntry struct {
	keys string
	desc string
}

type helpOverlaySection struct {
	title   string
	entries []helpOverlayEntry
}

func buildHelpOverlayLines(state *statepkg.AppState) []string {
	hiddenDesc := "Hide hidden files"
	if state != nil && state.HideHidden {
		hiddenDesc = "Show hidden files"
	}

	sections := []helpOverlaySection{
		{
			title: "Navigation",
			entries: []helpOverlayEntry{
				{keys: "↑/↓ j/k", desc: "Move cursor"},
				{keys: "↵ → l", desc: "Open directory or view file"},
				{keys: "← h ⌫", desc: "Parent directory"},
				{keys: "[ / ]", desc: "History back/forward"},
				{keys: "~", desc: "Go to start directory"},
				{keys: "r", desc: "Reload directory"},
			},
		},
		{
			title: "Selection",
			entries: []helpOverlayEntry{
				{keys: "space", desc: "Toggle selection"},
				{keys: "a", desc: "Select all"},
				{keys: "Esc", desc: "Clear selection"},
			},
		},
		{
			title: "Filter & Search",
			entries: []helpOverlayEntry{
				{keys: "/", desc: "Filter current directory"},
				{keys: "f", desc: "Search the server"},
				{keys: "^R ^T Tab", desc: "Regex, case, type while searching"},
			},
		},
		{
			title: "Files",
			entries: []helpOverlayEntry{
				{keys: "n / N", desc: "New file / folder"},
				{keys: "m", desc: "Rename"},
				{keys: "p", desc: "Change permissions"},
				{keys: "d", desc: "Delete"},
				{keys: "D", desc: "Download"},
				{keys: "u / U", desc: "Upload panel / add local files"},
				{keys: "e", desc: "Edit in $EDITOR (viewer)"},
				{keys: "y", desc: "Yank remote path"},
				{keys: ".", desc: hiddenDesc},
			},
		},
		{
			title: "Session",
			entries: []helpOverlayEntry{
				{keys: "c", desc: "Enter a session token"},
				{keys: "A", desc: "Request access after a permission error"},
				{keys: "^Z", desc: "Suspend"},
				{keys: "q / ^C", desc: "Quit"},
				{keys: "?", desc: "Close this help"},
			},
		},
	}

	lines := make([]string, 0, 40)
	for i, section := range sections {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, section.title)
		for _, entry := range section.entries {
			lines = append(lines, fmt.Sprintf("  %s %s", textutil.PadRight(entry.keys, 12), entry.desc))
		}
	}

	return lines
}

func (r *Renderer) drawHelpOverlay(state *statepkg.AppState, w, h int) {
	baseStyle := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	for y := 0; y < h; y++ {
		r.fillRow(y, 0, w, baseStyle)
	}

	title := " Help "
	headerStyle := baseStyle.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg).Bold(true)
	titleStart := 0
	if titleWidth := textutil.DisplayWidth(title); w > titleWidth {
		titleStart = (w - titleWidth) / 2
	}
	r.drawTextLine(titleStart, 0, w-titleStart, title, headerStyle)

	lines := buildHelpOverlayLines(state)
	// Two columns when the terminal is too short for one.
	columns := 1
	if len(lines) > h-3 && w >= 100 {
		columns = 2
	}
	perColumn := (len(lines) + columns - 1) / columns
	colWidth := (w - 4) / columns
	for i, line := range lines {
		col, row := i/perColumn, 2+i%perColumn
		if row >= h-1 {
			continue
		}
		style := baseStyle
		if line != "" && !strings.HasPrefix(line, " ") {
			style = style.Bold(true)
		}
		x := 2 + col*colWidth
		r.drawTextLine(x, row, colWidth, textutil.Truncate(line, colWidth-1), style)
	}

	r.drawRow(h-1, w, "? toggle · Esc close", headerStyle)
}
