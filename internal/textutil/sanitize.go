package textutil

import "strings"

// Invisible runes that can make a remote file name render differently from
// what it is ("invoice<RLO>txt.exe"). They are shown as labels instead.
var invisibleRuneLabels = map[rune]string{
	0x061C: "⟪ALM⟫",
	0x200B: "⟪ZWSP⟫",
	0x200C: "⟪ZWNJ⟫",
	0x200D: "⟪ZWJ⟫",
	0x200E: "⟪LRM⟫",
	0x200F: "⟪RLM⟫",
	0x202A: "⟪LRE⟫",
	0x202B: "⟪RLE⟫",
	0x202C: "⟪PDF⟫",
	0x202D: "⟪LRO⟫",
	0x202E: "⟪RLO⟫",
	0x2060: "⟪WJ⟫",
	0x2066: "⟪LRI⟫",
	0x2067: "⟪RLI⟫",
	0x2068: "⟪FSI⟫",
	0x2069: "⟪PDI⟫",
	0xFEFF: "⟪BOM⟫",
}

// SafeText makes server-provided text safe to draw on the terminal: control
// characters cannot emit escape sequences and invisible formatting runes
// become visible. Tabs are kept for ExpandTabs.
func SafeText(text string) string {
	clean := true
	for _, r := range text {
		if r != '\t' && unsafeRune(r) {
			clean = false
			break
		}
	}
	if clean {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if label, ok := invisibleRuneLabels[r]; ok {
			b.WriteString(label)
			continue
		}
		switch {
		case r == '\t':
			b.WriteRune(r)
		case r == '\n' || r == '\r':
			b.WriteByte(' ')
		case unsafeRune(r):
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SafeName is SafeText for single-line labels such as file names: tabs
// become spaces too.
func SafeName(name string) string {
	return strings.ReplaceAll(SafeText(name), "\t", " ")
}

// Deceptive reports whether name holds invisible formatting runes.
func Deceptive(name string) bool {
	for _, r := range name {
		if _, ok := invisibleRuneLabels[r]; ok {
			return true
		}
	}
	return false
}

func unsafeRune(r rune) bool {
	if _, ok := invisibleRuneLabels[r]; ok {
		return true
	}
	return r < 0x20 || (r >= 0x7f && r < 0xa0)
}
