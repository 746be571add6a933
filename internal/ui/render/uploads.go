package render

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
	"github.com/kk-code-lab/rbrowse/internal/textutil"
	"github.com/kk-code-lab/rbrowse/internal/upload"
)

// drawUploadPanel draws the upload batch over the lower part of the list.
func (r *Renderer) drawUploadPanel(state *statepkg.AppState, items []upload.Item, top, w, rows int) {
	height := min(max(len(items), 1)+1, rows)
	if half := rows / 2; height < half {
		height = half
	}
	y0 := top + rows - height

	base := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	title := base.Reverse(true)
	r.drawRow(y0, w, fmt.Sprintf(" Uploads → %s   %s", textutil.SafeName(state.CurrentPath), formatUploadSummary(items)), title)

	for y := y0 + 1; y < top+rows; y++ {
		r.fillRow(y, 0, w, base)
	}
	if len(items) == 0 {
		if height > 1 {
			r.drawMessage(y0+1, w, "No files queued. Press a to add local files.", base.Foreground(r.theme.DimFg))
		}
		return
	}

	for i, it := range items {
		y := y0 + 1 + i
		if y >= top+rows {
			break
		}
		style := base
		switch it.Status {
		case upload.StatusSuccess:
			style = style.Foreground(r.theme.SuccessFg)
		case upload.StatusError:
			style = style.Foreground(r.theme.ErrorFg)
		case upload.StatusUploading:
			style = style.Foreground(r.theme.MatchFg)
		}

		line := fmt.Sprintf(" %s %s  %s", uploadIcon(it), textutil.SafeName(it.File.Name), humanize.IBytes(uint64(it.File.Size)))
		switch {
		case it.Status == upload.StatusUploading:
			line += fmt.Sprintf("  %d%%", it.Progress)
		case it.Status == upload.StatusError && it.Error != "":
			line += "  " + textutil.SafeName(it.Error)
		case it.Preview != "":
			line += "  " + it.PreviewMIME
		}
		r.drawTextLine(0, y, w, textutil.Truncate(line, w), style)
	}
}
