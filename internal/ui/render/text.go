package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rbrowse/internal/search"
	"github.com/kk-code-lab/rbrowse/internal/textutil"
	"github.com/mattn/go-runewidth"
)

func (r *Renderer) cachedRuneWidth(ru rune) int {
	if cached, ok := r.runeWidths.Load(ru); ok {
		return cached.(int)
	}
	width := runewidth.RuneWidth(ru)
	if width < 0 {
		width = 0
	}
	r.runeWidths.Store(ru, width)
	return width
}

// drawTextLine draws text from startX and returns the column after it.
// Zero-width runes are attached to the preceding cell.
func (r *Renderer) drawTextLine(startX, y, maxWidth int, text string, style tcell.Style) int {
	x := startX
	runes := []rune(text)
	i := 0

	for i < len(runes) {
		mainc := runes[i]
		w := r.cachedRuneWidth(mainc)
		if w == 0 {
			w = 1
		}
		if x-startX+w > maxWidth {
			break
		}
		i++

		var combc []rune
		for i < len(runes) && r.cachedRuneWidth(runes[i]) == 0 && runes[i] >= 0x300 {
			combc = append(combc, runes[i])
			i++
		}

		r.screen.SetContent(x, y, mainc, combc, style)
		x += w
	}

	return x
}

func (r *Renderer) drawStyledRune(x, y, maxX int, ru rune, style tcell.Style) int {
	if x >= maxX {
		return x
	}

	width := r.cachedRuneWidth(ru)
	if width <= 0 {
		width = 1
	}
	if x+width > maxX {
		r.screen.SetContent(x, y, ' ', nil, style)
		return maxX
	}

	r.screen.SetContent(x, y, ru, nil, style)
	return x + width
}

func (r *Renderer) fillRow(y, fromX, toX int, style tcell.Style) {
	for x := fromX; x < toX; x++ {
		r.screen.SetContent(x, y, ' ', nil, style)
	}
}

// drawHighlightedText draws text with the rune ranges of spans in highlight.
func (r *Renderer) drawHighlightedText(startX, y, maxX int, text string, spans []search.MatchSpan, base, highlight tcell.Style) int {
	x := startX
	spanIdx := 0
	for idx, ru := range []rune(text) {
		if x >= maxX {
			break
		}
		for spanIdx < len(spans) && idx >= spans[spanIdx].End {
			spanIdx++
		}
		style := base
		if spanIdx < len(spans) && idx >= spans[spanIdx].Start {
			style = highlight
		}
		x = r.drawStyledRune(x, y, maxX, ru, style)
	}
	return x
}

// drawRow draws text across a full row, padding with style.
func (r *Renderer) drawRow(y, w int, text string, style tcell.Style) {
	end := r.drawTextLine(0, y, w, textutil.Truncate(text, w), style)
	r.fillRow(y, end, w, style)
}

// drawRight right-aligns text ending at maxX and returns where it starts.
func (r *Renderer) drawRight(y, minX, maxX int, text string, style tcell.Style) int {
	width := textutil.DisplayWidth(text)
	if width == 0 || maxX-width <= minX {
		return maxX
	}
	start := maxX - width
	r.drawTextLine(start, y, width, text, style)
	return start
}
