package state

import (
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/search"
)

func (r *StateReducer) openSearch(state *AppState) {
	if state.Search.Active {
		return
	}
	state.Search = SearchState{
		Active: true,
		ID:     state.Search.ID,
		Query:  search.Query{Root: state.CurrentPath, Type: search.TypeAll},
	}
}

// closeSearch cancels the debounce and any request in flight and bumps the
// query ID so a result already queued is ignored.
func (r *StateReducer) closeSearch(state *AppState) {
	r.cancelSearchTimer(state)
	r.searcher.Cancel()
	state.Search = SearchState{ID: state.Search.ID + 1}
}

func (r *StateReducer) cancelSearchTimer(state *AppState) {
	if state.Search.timer != nil {
		state.Search.timer.Stop()
		state.Search.timer = nil
	}
}

// setSearchQuery applies an edit to the query. Every change invalidates the
// results and restarts the debounce.
func (r *StateReducer) setSearchQuery(state *AppState, edit func(*search.Query)) error {
	if !state.Search.Active {
		return nil
	}
	q := state.Search.Query
	edit(&q)
	if q == state.Search.Query {
		return nil
	}

	r.cancelSearchTimer(state)
	r.searcher.Cancel()

	state.Search.Query = q
	state.Search.ID++
	state.Search.Results = nil
	state.Search.Truncated = false
	state.Search.Selected = 0
	state.Search.Err = nil

	if q.Empty() {
		state.Search.Status = search.StatusIdle
		return nil
	}
	if err := q.Validate(); err != nil {
		state.Search.Status = search.StatusInvalidPattern
		state.Search.Err = err
		return nil
	}

	state.Search.Status = search.StatusDebouncing
	dispatch := state.getDispatch()
	if dispatch == nil {
		return r.fireSearch(state, state.Search.ID)
	}
	id := state.Search.ID
	state.Search.timer = r.afterFunc(r.debounce, func() {
		dispatch(SearchFireAction{ID: id})
	})
	return nil
}

func (r *StateReducer) fireSearch(state *AppState, id int) error {
	if !state.Search.Active || id != state.Search.ID || state.Search.Status != search.StatusDebouncing {
		return nil
	}
	state.Search.timer = nil
	state.Search.Status = search.StatusSearching
	q := state.Search.Query

	r.log.Debug().Str("query", q.Text).Str("root", q.Root).Bool("regex", q.Regex).Int("id", id).Msg("search dispatched")

	dispatch := state.getDispatch()
	if dispatch == nil {
		r.applySearchResults(state, SearchResultsAction{ID: id, Outcome: r.searcher.Search(r.ctx, q)})
		return nil
	}
	r.searcher.SearchAsync(q, func(out search.Outcome) {
		dispatch(SearchResultsAction{ID: id, Outcome: out})
	})
	return nil
}

func (r *StateReducer) applySearchResults(state *AppState, a SearchResultsAction) {
	if !state.Search.Active || a.ID != state.Search.ID {
		return
	}
	if remote.IsCanceled(a.Outcome.Err) {
		return
	}
	state.Search.Status = a.Outcome.Status()
	state.Search.Results = a.Outcome.Results
	state.Search.Truncated = a.Outcome.Truncated
	state.Search.Err = a.Outcome.Err
	state.Search.Selected = 0

	if a.Outcome.Err != nil {
		kind := remote.KindOf(a.Outcome.Err)
		r.log.Warn().Err(a.Outcome.Err).Str("kind", string(kind)).Msg("search failed")
		if kind.Persistent() {
			state.Alert = &Alert{Kind: kind, Path: state.Search.Query.Root, Message: describe(a.Outcome.Err)}
		}
	}
}

func (s *AppState) moveSearchSelection(delta int) {
	n := len(s.Search.Results)
	if n == 0 {
		s.Search.Selected = 0
		return
	}
	s.Search.Selected += delta
	if s.Search.Selected < 0 {
		s.Search.Selected = 0
	}
	if s.Search.Selected >= n {
		s.Search.Selected = n - 1
	}
}

// openSearchResult navigates to a directory result, or to the parent of a
// file result with the file selected.
func (r *StateReducer) openSearchResult(state *AppState, index int) error {
	if index < 0 {
		index = state.Search.Selected
	}
	if index < 0 || index >= len(state.Search.Results) {
		return nil
	}
	res := state.Search.Results[index]
	r.closeSearch(state)
	if !state.Connected {
		return nil
	}

	if res.Type == fs.TypeDirectory {
		return r.navigate(state, res.Path)
	}
	state.pendingSelect = fs.Clean(res.Path)
	return r.navigate(state, fs.Parent(res.Path))
}
