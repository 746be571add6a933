package state

import (
	"github.com/kk-code-lab/rbrowse/internal/fs"
)

// SelectionSet holds selected paths. It is always a subset of the paths of
// the current listing.
type SelectionSet map[string]struct{}

// Has reports whether p is selected.
func (s SelectionSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// SelectionStats are derived from a set of entries.
type SelectionStats struct {
	Count          int
	TotalSize      uint64 // files only
	HasFiles       bool
	HasDirectories bool
	AllFiles       bool
	AllDirectories bool
}

// StatsOf computes stats over entries.
func StatsOf(entries []fs.Entry) SelectionStats {
	var st SelectionStats
	for _, e := range entries {
		st.Count++
		if e.IsDir() {
			st.HasDirectories = true
			continue
		}
		st.HasFiles = true
		st.TotalSize += e.Size
	}
	st.AllFiles = st.Count > 0 && !st.HasDirectories
	st.AllDirectories = st.Count > 0 && !st.HasFiles
	return st
}

// Reasons an operation is unavailable.
const (
	ReasonNothingSelected   = "Nothing selected"
	ReasonDirectorySelected = "Directories cannot be downloaded, select files only"
	ReasonNotSingle         = "Select exactly one item to change permissions"
)

// CanDownload gates download over the given stats.
func CanDownload(st SelectionStats) (bool, string) {
	switch {
	case st.Count == 0:
		return false, ReasonNothingSelected
	case st.HasDirectories:
		return false, ReasonDirectorySelected
	}
	return true, ""
}

// CanChmod gates permission changes over the given stats.
func CanChmod(st SelectionStats) (bool, string) {
	if st.Count != 1 {
		return false, ReasonNotSingle
	}
	return true, ""
}

// SelectedEntries returns the selected entries in listing order.
func (s *AppState) SelectedEntries() []fs.Entry {
	if len(s.Selection) == 0 {
		return nil
	}
	out := make([]fs.Entry, 0, len(s.Selection))
	for _, e := range s.Entries {
		if s.Selection.Has(e.Path) {
			out = append(out, e)
		}
	}
	return out
}

// Targets are the entries an operation applies to: the selection, or the
// entry under the cursor when nothing is selected.
func (s *AppState) Targets() []fs.Entry {
	if selected := s.SelectedEntries(); len(selected) > 0 {
		return selected
	}
	if e, ok := s.CursorEntry(); ok {
		return []fs.Entry{e}
	}
	return nil
}

func (s *AppState) toggleSelection(p string) {
	if _, ok := s.EntryByPath(p); !ok {
		return
	}
	if s.Selection == nil {
		s.Selection = SelectionSet{}
	}
	if s.Selection.Has(p) {
		delete(s.Selection, p)
	} else {
		s.Selection[p] = struct{}{}
	}
	s.recomputeStats()
}

// selectAll selects what the list shows: hidden entries and entries the
// quick filter rejects are left out.
func (s *AppState) selectAll() {
	shown := s.DisplayEntries()
	s.Selection = make(SelectionSet, len(shown))
	for _, e := range shown {
		s.Selection[e.Path] = struct{}{}
	}
	s.recomputeStats()
}

// dropHiddenSelection deselects entries that are no longer shown because
// hidden entries were just hidden.
func (s *AppState) dropHiddenSelection() {
	if !s.HideHidden || len(s.Selection) == 0 {
		return
	}
	for _, e := range s.Entries {
		if e.IsHidden() {
			delete(s.Selection, e.Path)
		}
	}
	s.recomputeStats()
}

func (s *AppState) clearSelection() {
	s.Selection = SelectionSet{}
	s.recomputeStats()
}

func (s *AppState) recomputeStats() {
	s.Stats = StatsOf(s.SelectedEntries())
}

func entryPaths(entries []fs.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}
