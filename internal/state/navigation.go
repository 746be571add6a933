package state

import (
	"github.com/kk-code-lab/rbrowse/internal/fs"
)

// navigate moves to p, discarding forward history, and loads it.
func (r *StateReducer) navigate(state *AppState, p string) error {
	if !state.Connected {
		return nil
	}
	p = fs.Clean(p)
	state.pushHistory(p)
	return r.changeDirectory(state, p)
}

func (r *StateReducer) back(state *AppState) error {
	if !state.Connected || !state.CanGoBack() {
		return nil
	}
	state.HistoryIndex--
	return r.changeDirectory(state, state.History[state.HistoryIndex])
}

func (r *StateReducer) forward(state *AppState) error {
	if !state.Connected || !state.CanGoForward() {
		return nil
	}
	state.HistoryIndex++
	return r.changeDirectory(state, state.History[state.HistoryIndex])
}

// changeDirectory makes p current without touching history. Error state and
// selection are cleared on every move.
func (r *StateReducer) changeDirectory(state *AppState, p string) error {
	if p != state.CurrentPath {
		state.Entries = nil
		state.Cursor = 0
		state.ScrollOffset = 0
		state.pendingFocus = ""
		state.clearFilter()
	}
	state.CurrentPath = p
	state.Listing.Err = nil
	state.Listing.Kind = ""
	state.Alert = nil
	state.clearSelection()
	return r.load(state, p, false)
}

// pushHistory appends p after the cursor, truncating forward entries. A path
// equal to the current entry is not duplicated.
func (s *AppState) pushHistory(p string) {
	if len(s.History) == 0 {
		s.History = []string{p}
		s.HistoryIndex = 0
		return
	}
	if s.History[s.HistoryIndex] == p {
		return
	}
	s.History = append(s.History[:s.HistoryIndex+1], p)
	s.HistoryIndex = len(s.History) - 1
}

// replaceHistory swaps the current entry for p, used when a directory turns
// out to be gone and the view falls back to its parent.
func (s *AppState) replaceHistory(p string) {
	if len(s.History) == 0 {
		s.History = []string{p}
		s.HistoryIndex = 0
		return
	}
	s.History = s.History[:s.HistoryIndex+1]
	s.History[s.HistoryIndex] = p
	if s.HistoryIndex > 0 && s.History[s.HistoryIndex-1] == p {
		s.History = s.History[:s.HistoryIndex]
		s.HistoryIndex--
	}
}
