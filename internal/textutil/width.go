package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	DefaultTabWidth = 4
	Ellipsis        = "…"
)

// DisplayWidth reports the number of terminal cells text occupies.
func DisplayWidth(text string) int {
	width := 0
	for _, r := range text {
		width += runeCells(r)
	}
	return width
}

func runeCells(r rune) int {
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 1
}

// Truncate cuts text to width cells, ending with an ellipsis when it had to cut.
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if DisplayWidth(text) <= width {
		return text
	}
	if width == 1 {
		return Ellipsis
	}

	var b strings.Builder
	used := 0
	for _, r := range text {
		w := runeCells(r)
		if used+w > width-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	b.WriteString(Ellipsis)
	return b.String()
}

// TruncateLeft keeps the end of text, which is the interesting part of a path.
func TruncateLeft(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if DisplayWidth(text) <= width {
		return text
	}
	if width == 1 {
		return Ellipsis
	}

	runes := []rune(text)
	used := 0
	start := len(runes)
	for start > 0 {
		w := runeCells(runes[start-1])
		if used+w > width-1 {
			break
		}
		used += w
		start--
	}
	return Ellipsis + string(runes[start:])
}

// PadRight truncates or pads text with spaces to exactly width cells.
func PadRight(text string, width int) string {
	text = Truncate(text, width)
	if gap := width - DisplayWidth(text); gap > 0 {
		return text + strings.Repeat(" ", gap)
	}
	return text
}

// PadLeft right-aligns text in width cells.
func PadLeft(text string, width int) string {
	text = Truncate(text, width)
	if gap := width - DisplayWidth(text); gap > 0 {
		return strings.Repeat(" ", gap) + text
	}
	return text
}

// ExpandTabs replaces tab characters with spaces up to the next tab stop.
func ExpandTabs(text string, tabWidth int) string {
	if tabWidth <= 0 || !strings.ContainsRune(text, '\t') {
		return text
	}

	var b strings.Builder
	column := 0
	for _, r := range text {
		if r == '\t' {
			spaces := tabWidth - (column % tabWidth)
			b.WriteString(strings.Repeat(" ", spaces))
			column += spaces
			continue
		}
		b.WriteRune(r)
		column += runeCells(r)
	}
	return b.String()
}
