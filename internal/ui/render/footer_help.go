package render

import (
	"strings"

	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
)

// buildFooterHelpText returns the contextual footer hint string with leading/trailing padding.
func buildFooterHelpText(state *statepkg.AppState) string {
	parts := buildFooterHelpSegments(state)
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, "  ") + " "
}

// buildFooterHelpSegments assembles context-aware help hints for the footer.
func buildFooterHelpSegments(state *statepkg.AppState) []string {
	if state == nil {
		return nil
	}

	switch state.InputMode() {
	case statepkg.ModeConfirm:
		return []string{"y/↵: yes", "n/Esc: no"}
	case statepkg.ModePrompt:
		return []string{"type: edit", "↵: submit", "Esc: cancel"}
	case statepkg.ModeHelp:
		return []string{"?/Esc: close help"}
	case statepkg.ModeViewer:
		return viewerHelpSegments(state.Viewer)
	case statepkg.ModeSearch:
		return []string{
			"type: search",
			"↵: open",
			"↑↓: select",
			"^R: regex",
			"^T: case",
			"Tab: type",
			"Esc: close",
		}
	case statepkg.ModeUpload:
		return []string{
			"a: add files",
			"s/↵: start",
			"c: clear done",
			"x: reset",
			"Esc/u: close",
		}
	case statepkg.ModeFilter:
		return []string{
			"type: filter",
			"Esc: clear",
			"↵: open",
			"↑↓: move",
		}
	}

	if !state.Connected {
		return []string{"c: connect", "?: help", "q: quit"}
	}

	segments := []string{
		"↑↓/↵/←: navigate",
		"[]: history",
		"space: select",
		"/: filter",
		"f: search",
		"d: delete",
		"D: download",
		"u: uploads",
	}
	if state.Stats.Count > 0 {
		segments = append(segments, "Esc: clear selection")
	}
	return append(segments, "?: help", "q: quit")
}

func viewerHelpSegments(v *statepkg.Viewer) []string {
	segments := []string{"Esc/q: close", "↑↓/Pg: scroll"}
	if v != nil && v.Category.Editable() && !v.Loading && v.Err == nil {
		segments = append(segments, "e: edit")
		if v.Dirty() {
			segments = append(segments, "^S: save")
		}
	}
	return append(segments, "D: download", "y: yank path")
}
