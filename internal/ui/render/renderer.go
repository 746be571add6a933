package render

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rbrowse/internal/blob"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/search"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
	"github.com/kk-code-lab/rbrowse/internal/textutil"
	"github.com/kk-code-lab/rbrowse/internal/upload"
)

// Frame is everything a single draw needs.
type Frame struct {
	State   *statepkg.AppState
	Uploads []upload.Item
	Tick    int
}

// Renderer handles all UI rendering
type Renderer struct {
	screen     tcell.Screen
	theme      ColorTheme
	blobs      *blob.Store
	runeWidths sync.Map
	thumb      thumbnail
}

// NewRenderer creates a new renderer
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{
		screen: screen,
		theme:  GetColorTheme(),
	}
}

// SetBlobs gives the renderer access to preview content for image viewing.
func (r *Renderer) SetBlobs(store *blob.Store) {
	r.blobs = store
}

// Render draws the entire UI based on state
func (r *Renderer) Render(f Frame) {
	r.screen.Clear()
	defer r.screen.Show()

	w, h := r.screen.Size()
	state := f.State
	if state == nil || w <= 0 || h <= 0 {
		return
	}

	if state.HelpVisible && state.Prompt == nil && state.Confirm == nil {
		r.drawHelpOverlay(state, w, h)
		return
	}

	rows := h - chromeRows
	if v := state.Viewer; v != nil {
		r.drawHeader(state, v.Entry.Path, f.Tick, w)
		r.drawViewerBar(v, w, 1)
		if rows > 0 {
			r.drawViewer(v, listTop, w, rows)
		}
	} else {
		r.drawHeader(state, state.CurrentPath, f.Tick, w)
		r.drawBar(state, w, 1)
		if rows > 0 {
			if state.Search.Active {
				r.drawSearchResults(state, listTop, w, rows)
			} else {
				r.drawFileList(state, listTop, w, rows)
			}
			if state.UploadPanel {
				r.drawUploadPanel(state, f.Uploads, listTop, w, rows)
			}
		}
	}

	if h >= 2 {
		r.drawStatusLine(f, w, h-2)
	}
	r.drawRow(h-1, w, buildFooterHelpText(state), tcell.StyleDefault.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg).Dim(true))
}

// drawHeader renders the top bar with title and breadcrumb
func (r *Renderer) drawHeader(state *statepkg.AppState, path string, tick, w int) {
	headerStyle := tcell.StyleDefault.Background(r.theme.HeaderBg).Foreground(r.theme.HeaderFg)
	r.fillRow(0, 0, w, headerStyle)

	endX := r.drawTextLine(0, 0, w, headerTitle, headerStyle.Bold(true))

	badge, badgeStyle := "", headerStyle
	switch {
	case !state.Connected:
		badge, badgeStyle = " offline", headerStyle.Foreground(r.theme.ErrorFg)
	case state.Listing.Loading || state.Busy > 0:
		badge = " " + spinnerFrame(tick)
	}
	maxX := r.drawRight(0, endX, w, badge, badgeStyle)

	crumbs, elided := breadcrumbLayout(path, breadcrumbStart(), maxX)
	x := breadcrumbStart()
	dim := headerStyle.Foreground(r.theme.DimFg)
	if elided {
		x = r.drawTextLine(x, 0, maxX-x, textutil.Ellipsis+crumbSep, dim)
	}
	for i, c := range crumbs {
		if i > 0 {
			x = r.drawTextLine(x, 0, maxX-x, crumbSep, dim)
		}
		style := headerStyle
		if i == len(crumbs)-1 {
			style = style.Bold(true)
		}
		x = r.drawTextLine(c.start, 0, maxX-c.start, c.text, style)
	}
}

// drawBar renders the row under the header: search input, alert, filter
// input or column titles, in that order of precedence.
func (r *Renderer) drawBar(state *statepkg.AppState, w, y int) {
	base := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	r.fillRow(y, 0, w, base)

	switch {
	case state.Search.Active:
		r.drawSearchInput(state, w, y)
	case state.Alert != nil:
		alert := base.Background(r.theme.AlertBg).Foreground(r.theme.AlertFg)
		r.drawRow(y, w, " "+textutil.SafeName(formatAlert(state.Alert)), alert)
	case state.FilterActive:
		x := r.drawTextLine(0, y, w, "/", base.Foreground(r.theme.MatchFg))
		x = r.drawTextLine(x, y, w-x, textutil.SafeName(state.FilterQuery), base)
		x = r.drawStyledRune(x, y, w, '█', base.Foreground(r.theme.MatchFg))
		if state.FilterQuery != "" {
			count := fmt.Sprintf("  %d of %d", len(state.DisplayEntries()), len(state.Entries))
			r.drawTextLine(x, y, w-x, count, base.Foreground(r.theme.DimFg))
		}
	default:
		r.drawColumnTitles(w, y, base.Foreground(r.theme.DimFg))
	}
}

func (r *Renderer) drawColumnTitles(w, y int, style tcell.Style) {
	cols := computeColumns(w)
	x := cols.marker
	x = r.drawTextLine(x, y, cols.name, textutil.PadRight("Name", cols.name), style)
	if cols.size > 0 {
		x = r.drawTextLine(x, y, cols.size, textutil.PadLeft("Size", cols.size-1)+" ", style)
	}
	if cols.modified > 0 {
		x = r.drawTextLine(x, y, cols.modified, " "+textutil.PadRight("Modified", cols.modified-1), style)
	}
	if cols.perms > 0 {
		r.drawTextLine(x, y, cols.perms, " "+textutil.PadRight("Perms", cols.perms-1), style)
	}
}

func (r *Renderer) drawSearchInput(state *statepkg.AppState, w, y int) {
	base := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	accent := base.Foreground(r.theme.MatchFg)
	q := state.Search.Query

	x := r.drawTextLine(0, y, w, "search> ", accent)
	if q.Text == "" {
		x = r.drawStyledRune(x, y, w, '█', accent)
		x = r.drawTextLine(x, y, w-x, "(type to search in "+textutil.SafeName(q.Root)+")", base.Foreground(r.theme.DimFg))
	} else {
		x = r.drawTextLine(x, y, w-x, textutil.SafeName(q.Text), base)
		x = r.drawStyledRune(x, y, w, '█', accent)
	}

	info := "  " + formatSearchFlags(q)
	if status := formatSearchStatus(state.Search); status != "" {
		info += " · " + status
	}
	r.drawRight(y, x, w, info, base.Foreground(r.theme.DimFg))
}

func (r *Renderer) drawMessage(y, w int, text string, style tcell.Style) {
	r.drawTextLine(2, y, w-2, textutil.Truncate(textutil.SafeName(text), w-2), style)
}

// drawFileList renders the current listing
func (r *Renderer) drawFileList(state *statepkg.AppState, top, w, rows int) {
	base := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	dim := base.Foreground(r.theme.DimFg)
	entries := state.DisplayEntries()

	if len(entries) == 0 {
		switch {
		case !state.Connected:
			r.drawMessage(top, w, "Not connected. Press c to enter a session token.", dim)
		case state.Listing.Loading:
			r.drawMessage(top, w, "Loading…", dim)
		case state.Listing.Err != nil:
			r.drawMessage(top, w, "Cannot open "+state.Listing.Path+": "+state.Listing.Err.Error(), base.Foreground(r.theme.ErrorFg))
		case state.FilterActive && state.FilterQuery != "":
			r.drawMessage(top, w, "No matches", dim)
		default:
			r.drawMessage(top, w, "Empty directory", dim)
		}
		return
	}

	cols := computeColumns(w)
	spans := state.FilterSpans()
	for row := 0; row < rows; row++ {
		idx := state.ScrollOffset + row
		if idx >= len(entries) {
			break
		}
		entry := entries[idx]
		r.drawEntryRow(entry, top+row, cols, w, idx == state.Cursor, state.Selection.Has(entry.Path), spans[entry.Path])
	}
}

func (r *Renderer) drawEntryRow(entry fs.Entry, y int, cols listColumns, w int, cursor, marked bool, spans []search.MatchSpan) {
	style := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.FileFg)
	switch {
	case textutil.Deceptive(entry.Name):
		style = style.Foreground(r.theme.WarnFg)
	case entry.IsHidden():
		style = style.Foreground(r.theme.HiddenFg)
	case entry.IsDir():
		style = style.Foreground(r.theme.DirectoryFg)
	}
	if marked {
		style = style.Foreground(r.theme.MarkedFg)
	}
	if cursor {
		style = style.Background(r.theme.SelectionBg).Foreground(r.theme.SelectionFg)
	}
	r.fillRow(y, 0, w, style)

	if marked {
		r.drawTextLine(0, y, cols.marker, "●", style)
	}

	name := textutil.SafeName(entry.Name)
	if name != entry.Name {
		spans = nil
	}
	if entry.IsDir() {
		name += "/"
	}
	x := cols.marker
	nameEnd := x + cols.name
	if len(spans) > 0 {
		highlight := style.Foreground(r.theme.MatchFg).Bold(true)
		if cursor {
			highlight = style.Bold(true).Underline(true)
		}
		r.drawHighlightedText(x, y, nameEnd-1, textutil.Truncate(name, cols.name-1), spans, style, highlight)
	} else {
		r.drawTextLine(x, y, cols.name-1, textutil.Truncate(name, cols.name-1), style)
	}
	x = nameEnd

	meta := style
	if !cursor {
		meta = style.Foreground(r.theme.DimFg)
	}
	if cols.size > 0 {
		x = r.drawTextLine(x, y, cols.size, textutil.PadLeft(entry.DisplaySize(), cols.size-1)+" ", meta)
	}
	if cols.modified > 0 {
		modified := ""
		if !entry.Modified.IsZero() {
			modified = entry.Modified.Local().Format("2006-01-02 15:04")
		}
		x = r.drawTextLine(x, y, cols.modified, " "+textutil.PadRight(modified, cols.modified-1), meta)
	}
	if cols.perms > 0 {
		r.drawTextLine(x, y, cols.perms, " "+textutil.PadRight(entry.DisplayPermissions(), cols.perms-1), meta)
	}
}

func (r *Renderer) drawSearchResults(state *statepkg.AppState, top, w, rows int) {
	base := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	dim := base.Foreground(r.theme.DimFg)
	s := state.Search

	if len(s.Results) == 0 {
		switch s.Status {
		case search.StatusDebouncing, search.StatusSearching:
			r.drawMessage(top, w, "Searching…", dim)
		case search.StatusNoResults:
			r.drawMessage(top, w, "No results for "+s.Query.Text, dim)
		case search.StatusInvalidPattern, search.StatusError:
			msg := "Search failed"
			if s.Err != nil {
				msg += ": " + s.Err.Error()
			}
			r.drawMessage(top, w, msg, base.Foreground(r.theme.ErrorFg))
		default:
			r.drawMessage(top, w, "Type to search file names under "+s.Query.Root, dim)
		}
		return
	}

	listRows, offset := searchWindow(s, rows)
	if listRows < rows {
		r.drawMessage(top+listRows, w, fmt.Sprintf("Showing the first %d results. Refine the query to see more.", len(s.Results)), dim)
	}
	cols := computeColumns(w)
	for row := 0; row < listRows; row++ {
		idx := offset + row
		if idx >= len(s.Results) {
			break
		}
		res := s.Results[idx]
		entry := fs.Entry{Path: res.Path, Name: res.Path, Type: res.Type, Size: res.Size, Modified: res.Modified}
		var spans []search.MatchSpan
		if !s.Query.Regex {
			spans = search.HighlightSpans(s.Query.Text, res.Path, s.Query.CaseSensitive)
		}
		r.drawEntryRow(entry, top+row, cols, w, idx == s.Selected, false, spans)
	}
}

// drawStatusLine renders confirmation, prompt, alert, notice or the default
// summary, whichever is most urgent.
func (r *Renderer) drawStatusLine(f Frame, w, y int) {
	state := f.State
	base := tcell.StyleDefault.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg)

	switch {
	case state.Confirm != nil:
		r.drawRow(y, w, " "+textutil.SafeName(state.Confirm.Prompt)+" [y/N]", base.Foreground(r.theme.WarnFg).Bold(true))
		return
	case state.Prompt != nil:
		r.fillRow(y, 0, w, base)
		x := r.drawTextLine(0, y, w, " "+state.Prompt.Label+": ", base.Bold(true))
		value := textutil.TruncateLeft(textutil.SafeName(state.Prompt.Value), max(w-x-1, 0))
		x = r.drawTextLine(x, y, w-x, value, base)
		r.drawStyledRune(x, y, w, '█', base.Foreground(r.theme.MatchFg))
		return
	case state.Alert != nil && (state.Viewer != nil || state.Search.Active):
		r.drawRow(y, w, " "+textutil.SafeName(formatAlert(state.Alert)), base.Background(r.theme.AlertBg).Foreground(r.theme.AlertFg))
		return
	case len(state.Notices) > 0:
		n := state.Notices[len(state.Notices)-1]
		style := base
		switch n.Level {
		case statepkg.NoticeError:
			style = style.Foreground(r.theme.ErrorFg)
		case statepkg.NoticeWarn:
			style = style.Foreground(r.theme.WarnFg)
		default:
			style = style.Foreground(r.theme.SuccessFg)
		}
		r.drawRow(y, w, " "+textutil.SafeName(formatNotice(n)), style)
		return
	}

	r.fillRow(y, 0, w, base)
	right := formatSelectionSummary(state.Stats)
	if summary := formatUploadSummary(f.Uploads); summary != "" && (state.UploadPanel || state.Busy > 0) {
		right = joinNonEmpty(right, "uploads: "+summary)
	}
	if state.Busy > 0 {
		right = joinNonEmpty(right, fmt.Sprintf("%s %d running", spinnerFrame(f.Tick), state.Busy))
	}
	right += " "
	maxX := r.drawRight(y, 0, w, right, base.Foreground(r.theme.MarkedFg))

	r.drawTextLine(0, y, maxX, " "+textutil.TruncateLeft(textutil.SafeName(statusPath(state)), max(maxX-2, 0)), base.Dim(true))
}

func statusPath(state *statepkg.AppState) string {
	if state.Viewer != nil {
		return state.Viewer.Entry.Path
	}
	if state.Search.Active {
		if s := state.Search; s.Selected >= 0 && s.Selected < len(s.Results) {
			return s.Results[s.Selected].Path
		}
		return state.Search.Query.Root
	}
	if entry, ok := state.CursorEntry(); ok {
		return entry.Path
	}
	return state.CurrentPath
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " · " + b
}

// searchWindow returns how many rows the result list gets and the index of
// the first visible result.
func searchWindow(s statepkg.SearchState, rows int) (listRows, offset int) {
	listRows = rows
	if s.Truncated && rows > 1 {
		listRows--
	}
	if s.Selected >= listRows {
		offset = s.Selected - listRows + 1
	}
	return listRows, offset
}

// SearchResultAt maps a row of the list area to the search result drawn there.
func SearchResultAt(state *statepkg.AppState, row int) (int, bool) {
	listRows, offset := searchWindow(state.Search, state.ListRows())
	if row < 0 || row >= listRows {
		return 0, false
	}
	idx := offset + row
	if idx >= len(state.Search.Results) {
		return 0, false
	}
	return idx, true
}
