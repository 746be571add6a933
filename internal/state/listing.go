package state

import (
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
)

// load issues a listing request for p. Any load in flight is canceled and its
// result will be discarded.
func (r *StateReducer) load(state *AppState, p string, recovering bool) error {
	ctx, token := r.list.Begin(r.ctx)
	state.Listing.Loading = true
	state.Listing.Path = p
	state.Listing.token = token
	state.Listing.recovering = recovering
	state.Listing.stale = false

	r.log.Debug().Str("path", p).Int("token", token).Msg("listing directory")

	gw := r.gw
	return r.spawn(state, func() Action {
		entries, err := gw.List(ctx, p)
		return DirectoryLoadedAction{Token: token, Path: p, Entries: entries, Err: err}
	})
}

// reload refreshes the current directory. Requests arriving while a load of
// the same path is in flight are coalesced into one follow-up load.
func (r *StateReducer) reload(state *AppState) error {
	if !state.Connected {
		return nil
	}
	if state.Listing.Loading && state.Listing.Path == state.CurrentPath {
		state.Listing.stale = true
		return nil
	}
	return r.load(state, state.CurrentPath, false)
}

func (r *StateReducer) applyListing(state *AppState, a DirectoryLoadedAction) error {
	if a.Token != state.Listing.token || !r.list.IsCurrent(a.Token) {
		return nil
	}
	r.list.Finish(a.Token)
	state.Listing.Loading = false

	if remote.IsCanceled(a.Err) {
		return nil
	}
	if a.Err != nil {
		return r.listingFailed(state, a)
	}

	state.Listing.Path = a.Path
	state.Listing.Err = nil
	state.Listing.Kind = ""
	state.Listing.recovering = false
	state.Entries = a.Entries
	state.clearSelection()
	state.clearFilter()

	switch {
	case state.pendingSelect != "":
		target := state.pendingSelect
		state.pendingSelect = ""
		if e, ok := state.EntryByPath(target); ok {
			// A hidden search hit is revealed rather than selected out of sight.
			if state.HideHidden && e.IsHidden() {
				state.HideHidden = false
			}
			state.toggleSelection(target)
			state.focusPath(target)
		}
	case state.pendingFocus != "":
		target := state.pendingFocus
		state.pendingFocus = ""
		state.focusPath(target)
	}
	state.clampCursor()

	if state.Listing.stale {
		return r.load(state, state.CurrentPath, false)
	}
	return nil
}

// listingFailed either keeps the view on the failing path or falls back to
// the parent, depending on how the failure is classified.
func (r *StateReducer) listingFailed(state *AppState, a DirectoryLoadedAction) error {
	kind := remote.KindOf(a.Err)
	recovering := state.Listing.recovering
	state.Listing.recovering = false
	state.Listing.stale = false

	r.log.Warn().Err(a.Err).Str("path", a.Path).Str("kind", string(kind)).Bool("recovering", recovering).Msg("listing failed")

	// A vanished parent keeps cascading upward; any other failure of a
	// recovery load stops where it is.
	canRecover := kind.Recoverable() && !fs.IsRoot(a.Path) && (!recovering || kind == remote.KindNotFound)
	if canRecover {
		parent := fs.Parent(a.Path)
		r.notify(state, NoticeWarn, kind, describe(a.Err)+", opened "+parent)
		state.replaceHistory(parent)
		state.pendingFocus = ""
		state.pendingSelect = ""
		state.CurrentPath = parent
		state.Entries = nil
		state.Cursor = 0
		state.ScrollOffset = 0
		return r.load(state, parent, true)
	}

	state.Listing.Err = a.Err
	state.Listing.Kind = kind
	state.pendingSelect = ""
	if kind.Persistent() {
		state.Alert = &Alert{Kind: kind, Path: a.Path, Message: describe(a.Err)}
		return nil
	}
	r.notify(state, NoticeError, kind, describe(a.Err))
	return nil
}
