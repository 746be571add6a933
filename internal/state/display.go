package state

import (
	"unicode"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/search"
)

// rows taken by header, breadcrumb, column titles and status line
const listChromeRows = 4

func (s *AppState) visibleEntries() []fs.Entry {
	if !s.HideHidden {
		return s.Entries
	}
	visible := make([]fs.Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		if !e.IsHidden() {
			visible = append(visible, e)
		}
	}
	return visible
}

// DisplayEntries returns the entries shown in the list: hidden entries
// removed when hidden, then narrowed and ranked by the quick filter.
func (s *AppState) DisplayEntries() []fs.Entry {
	visible := s.visibleEntries()
	if !s.filtering() {
		return visible
	}
	out := make([]fs.Entry, 0, len(s.filterMatches))
	for _, m := range s.filterMatches {
		if m.Index >= 0 && m.Index < len(visible) {
			out = append(out, visible[m.Index])
		}
	}
	return out
}

// FilterSpans returns highlight spans of the quick filter keyed by path.
func (s *AppState) FilterSpans() map[string][]search.MatchSpan {
	if !s.filtering() {
		return nil
	}
	visible := s.visibleEntries()
	spans := make(map[string][]search.MatchSpan, len(s.filterMatches))
	for _, m := range s.filterMatches {
		if m.Index >= 0 && m.Index < len(visible) {
			spans[visible[m.Index].Path] = m.Spans
		}
	}
	return spans
}

func (s *AppState) filtering() bool {
	return s.FilterActive && s.FilterQuery != ""
}

func (s *AppState) recomputeFilter() {
	if !s.filtering() {
		s.filterMatches = nil
		return
	}
	s.filterMatches = search.FilterEntries(s.visibleEntries(), s.FilterQuery, s.FilterCaseSensitive)
}

func (s *AppState) clearFilter() {
	s.FilterActive = false
	s.FilterQuery = ""
	s.FilterCaseSensitive = false
	s.filterMatches = nil
}

// CursorEntry returns the entry under the cursor.
func (s *AppState) CursorEntry() (fs.Entry, bool) {
	display := s.DisplayEntries()
	if s.Cursor < 0 || s.Cursor >= len(display) {
		return fs.Entry{}, false
	}
	return display[s.Cursor], true
}

// focusPath puts the cursor on p, or remembers p until the listing arrives.
func (s *AppState) focusPath(p string) {
	for i, e := range s.DisplayEntries() {
		if e.Path == p {
			s.Cursor = i
			s.updateScroll()
			return
		}
	}
	if s.Listing.Loading {
		s.pendingFocus = p
	}
}

func (s *AppState) moveCursor(delta int) {
	s.Cursor += delta
	s.clampCursor()
}

func (s *AppState) clampCursor() {
	n := len(s.DisplayEntries())
	switch {
	case n == 0:
		s.Cursor = 0
	case s.Cursor >= n:
		s.Cursor = n - 1
	case s.Cursor < 0:
		s.Cursor = 0
	}
	s.updateScroll()
}

// ListRows is the number of list rows that fit on screen.
func (s *AppState) ListRows() int {
	rows := s.ScreenHeight - listChromeRows
	if rows < 1 {
		return 1
	}
	return rows
}

func (s *AppState) updateScroll() {
	rows := s.ListRows()
	if s.Cursor < s.ScrollOffset {
		s.ScrollOffset = s.Cursor
	}
	if s.Cursor >= s.ScrollOffset+rows {
		s.ScrollOffset = s.Cursor - rows + 1
	}
	if s.ScrollOffset < 0 {
		s.ScrollOffset = 0
	}
}

func isUpper(r rune) bool {
	return unicode.IsUpper(r)
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
