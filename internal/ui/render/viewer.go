package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rbrowse/internal/blob"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
	"github.com/kk-code-lab/rbrowse/internal/textutil"
)

func (r *Renderer) drawViewerBar(v *statepkg.Viewer, w, y int) {
	base := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.DimFg)
	r.fillRow(y, 0, w, base)

	parts := []string{string(v.Category)}
	if v.MIME != "" {
		parts = append(parts, v.MIME)
	}
	size := v.Entry.Size
	if v.Size > 0 {
		size = uint64(v.Size)
	}
	parts = append(parts, humanize.IBytes(size))
	if v.Category == fs.CategoryText && !v.Loading && v.Err == nil {
		parts = append(parts, fmt.Sprintf("%d lines", strings.Count(v.Text, "\n")+1))
	}
	x := r.drawTextLine(0, y, w, " "+strings.Join(parts, " · "), base)

	switch {
	case v.Saving:
		r.drawTextLine(x, y, w-x, "  saving…", base.Foreground(r.theme.WarnFg))
	case v.Dirty():
		r.drawTextLine(x, y, w-x, "  [modified]", base.Foreground(r.theme.WarnFg).Bold(true))
	}
}

func (r *Renderer) drawViewer(v *statepkg.Viewer, top, w, rows int) {
	base := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	dim := base.Foreground(r.theme.DimFg)

	switch {
	case v.Loading:
		r.drawMessage(top, w, "Loading…", dim)
	case v.Err != nil:
		r.drawMessage(top, w, "Cannot open "+v.Entry.Name+": "+v.Err.Error(), base.Foreground(r.theme.ErrorFg))
	case v.Category == fs.CategoryText:
		r.drawTextBody(v, top, w, rows)
	case v.Category == fs.CategoryBinary:
		r.drawLines(v.HexLines, v.Scroll, top, w, rows, base)
	case v.Category == fs.CategoryImage:
		if rows > 1 && r.drawImage(v.Handle, top, w, rows-1) {
			r.drawMessage(top+rows-1, w, "D: download", dim)
			return
		}
		r.drawPreviewInfo(v, top, w, dim)
	default:
		r.drawPreviewInfo(v, top, w, dim)
	}
}

func (r *Renderer) drawTextBody(v *statepkg.Viewer, top, w, rows int) {
	base := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	gutter := base.Foreground(r.theme.GutterFg)

	lines := strings.Split(v.Text, "\n")
	digits := len(fmt.Sprint(len(lines)))
	start := min(v.Scroll, max(len(lines)-1, 0))
	for row := 0; row < rows && start+row < len(lines); row++ {
		n := start + row
		x := r.drawTextLine(0, top+row, w, fmt.Sprintf("%*d ", digits, n+1), gutter)
		line := textutil.SafeText(textutil.ExpandTabs(lines[n], textutil.DefaultTabWidth))
		r.drawTextLine(x, top+row, w-x, line, base)
	}
}

func (r *Renderer) drawLines(lines []string, scroll, top, w, rows int, style tcell.Style) {
	start := min(scroll, max(len(lines)-1, 0))
	for row := 0; row < rows && start+row < len(lines); row++ {
		r.drawTextLine(0, top+row, w, lines[start+row], style)
	}
}

func (r *Renderer) drawPreviewInfo(v *statepkg.Viewer, top, w int, style tcell.Style) {
	lines := []string{
		"No inline preview for " + textutil.SafeName(v.Entry.Name),
		"",
		"Type:    " + v.MIME,
		"Size:    " + humanize.IBytes(uint64(v.Size)),
		"Handle:  " + string(v.Handle),
		"",
		"Press D to download.",
	}
	for i, line := range lines {
		r.drawMessage(top+i, w, line, style)
	}
}

// thumbnail caches the last scaled image so redraws do not decode again.
type thumbnail struct {
	handle blob.Handle
	w, h   int
	img    image.Image
}

// drawImage draws the blob behind h with half-block cells, two pixels per
// cell vertically. It reports false when the content cannot be decoded.
func (r *Renderer) drawImage(h blob.Handle, top, w, rows int) bool {
	if r.blobs == nil || w <= 0 || rows <= 0 {
		return false
	}
	if r.thumb.handle != h || r.thumb.w != w || r.thumb.h != rows*2 {
		b, ok := r.blobs.Get(h)
		if !ok {
			return false
		}
		src, err := imaging.Decode(bytes.NewReader(b.Data), imaging.AutoOrientation(true))
		if err != nil {
			return false
		}
		r.thumb = thumbnail{handle: h, w: w, h: rows * 2, img: imaging.Fit(src, w, rows*2, imaging.Box)}
	}

	img := r.thumb.img
	bounds := img.Bounds()
	for py := 0; py < bounds.Dy(); py += 2 {
		for px := 0; px < bounds.Dx(); px++ {
			upper := img.At(bounds.Min.X+px, bounds.Min.Y+py)
			lower := upper
			if py+1 < bounds.Dy() {
				lower = img.At(bounds.Min.X+px, bounds.Min.Y+py+1)
			}
			style := tcell.StyleDefault.Foreground(cellColor(upper)).Background(cellColor(lower))
			r.screen.SetContent(px, top+py/2, '▀', nil, style)
		}
	}
	return true
}

func cellColor(c color.Color) tcell.Color {
	red, green, blue, _ := c.RGBA()
	return tcell.NewRGBColor(int32(red>>8), int32(green>>8), int32(blue>>8))
}
