package state

import (
	"context"
	"io"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/blob"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/search"
	"github.com/kk-code-lab/rbrowse/internal/upload"
	"github.com/rs/zerolog"
)

// Gateway is the remote file API as seen by the engine. *remote.Client
// satisfies it.
type Gateway interface {
	Session() remote.Session
	SetSession(remote.Session)

	List(ctx context.Context, dir string) ([]fs.Entry, error)
	Read(ctx context.Context, p string) (remote.Content, error)
	Create(ctx context.Context, p, content string) error
	Write(ctx context.Context, p, content string) error
	Delete(ctx context.Context, p string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Mkdir(ctx context.Context, p string) error
	Chmod(ctx context.Context, p, mode string) error
	Download(ctx context.Context, p string) (remote.Content, error)
	DownloadBundle(ctx context.Context, paths []string) (remote.Content, error)
	Search(ctx context.Context, req remote.SearchRequest) ([]remote.SearchResult, error)
	Upload(ctx context.Context, dest string, files []remote.UploadFile, progress remote.ProgressFunc) ([]remote.UploadResult, error)
}

// Notifier receives every notice the engine emits.
type Notifier interface {
	Notify(Notice)
}

// Timer is the part of *time.Timer the debounce needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arms f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Deps are the collaborators of the engine. Gateway is required; everything
// else has a default.
type Deps struct {
	Gateway  Gateway
	Blobs    *blob.Store
	Uploads  *upload.Pipeline
	Searcher *search.Searcher
	Sink     DownloadSink
	Notifier Notifier
	Logger   zerolog.Logger

	Debounce  time.Duration
	AfterFunc AfterFunc
	Now       func() time.Time
}

// ===== REDUCER =====

// StateReducer applies actions to state. It must be driven from one goroutine.
type StateReducer struct {
	gw       Gateway
	blobs    *blob.Store
	uploads  *upload.Pipeline
	searcher *search.Searcher
	sink     DownloadSink
	notifier Notifier
	log      zerolog.Logger

	debounce  time.Duration
	afterFunc AfterFunc
	now       func() time.Time

	ctx    context.Context
	stop   context.CancelFunc
	list   remote.Scope
	viewer remote.Scope
	upload remote.Scope
}

// NewStateReducer creates a new reducer
func NewStateReducer(deps Deps) *StateReducer {
	r := &StateReducer{
		gw:        deps.Gateway,
		blobs:     deps.Blobs,
		uploads:   deps.Uploads,
		searcher:  deps.Searcher,
		sink:      deps.Sink,
		notifier:  deps.Notifier,
		log:       deps.Logger.With().Str("component", "engine").Logger(),
		debounce:  deps.Debounce,
		afterFunc: deps.AfterFunc,
		now:       deps.Now,
	}
	if r.blobs == nil {
		r.blobs = blob.NewStore()
	}
	if r.uploads == nil {
		r.uploads = upload.New(upload.DefaultLimits(), r.blobs, deps.Logger)
	}
	if r.searcher == nil {
		r.searcher = search.NewSearcher(r.gw, search.MaxResults, deps.Logger)
	}
	if r.sink == nil {
		r.sink = DiscardSink{}
	}
	if r.debounce <= 0 {
		r.debounce = search.DebounceDelay
	}
	if r.afterFunc == nil {
		r.afterFunc = realAfterFunc
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.ctx, r.stop = context.WithCancel(context.Background())
	return r
}

// Uploads exposes the upload batch for rendering.
func (r *StateReducer) Uploads() *upload.Pipeline {
	return r.uploads
}

// Blobs exposes the preview handle store.
func (r *StateReducer) Blobs() *blob.Store {
	return r.blobs
}

// Shutdown cancels all outstanding work and releases every handle the engine owns.
func (r *StateReducer) Shutdown(state *AppState) {
	r.stop()
	r.searcher.Cancel()
	r.cancelSearchTimer(state)
	r.closeViewer(state)
	r.upload.Cancel()
	r.uploads.Reset()
}

// spawn runs job off the reducer goroutine and feeds its result back through
// dispatch. Without a dispatcher the job runs inline.
func (r *StateReducer) spawn(state *AppState, job func() Action) error {
	dispatch := state.getDispatch()
	if dispatch == nil {
		_, err := r.Reduce(state, job())
		return err
	}
	go func() {
		dispatch(job())
	}()
	return nil
}

// Init loads the start path if a session is already installed.
func (r *StateReducer) Init(state *AppState) error {
	state.Connected = r.gw.Session().Valid()
	if !state.Connected {
		return nil
	}
	state.History = []string{state.CurrentPath}
	state.HistoryIndex = 0
	return r.load(state, state.CurrentPath, false)
}

// Reduce applies an action to state and returns new state
func (r *StateReducer) Reduce(state *AppState, action Action) (*AppState, error) {
	switch a := action.(type) {

	// ===== SESSION =====

	case ConnectAction:
		return state, r.connect(state, a.Session)

	case DisconnectAction:
		r.gw.SetSession(remote.Session{})
		r.list.Cancel()
		r.searcher.Cancel()
		r.cancelSearchTimer(state)
		if st := state.Search.Status; st == search.StatusDebouncing || st == search.StatusSearching {
			state.Search.Status = search.StatusIdle
		}
		r.dropViewer(state)
		r.upload.Cancel()
		if n := r.uploads.Abort(sessionClosed); n > 0 {
			r.notify(state, NoticeWarn, "", "Upload stopped: "+plural(n, "file")+" not sent")
		}
		state.Connected = false
		state.Listing = ListingState{}
		return state, nil

	// ===== NAVIGATION =====

	case NavigateAction:
		return state, r.navigate(state, a.Path)

	case BackAction:
		return state, r.back(state)

	case ForwardAction:
		return state, r.forward(state)

	case UpAction:
		if fs.IsRoot(state.CurrentPath) {
			return state, nil
		}
		state.pendingSelect = ""
		cursorTo := state.CurrentPath
		if err := r.navigate(state, fs.Parent(state.CurrentPath)); err != nil {
			return state, err
		}
		state.focusPath(cursorTo)
		return state, nil

	case HomeAction:
		return state, r.navigate(state, state.HomePath)

	case RefreshAction:
		return state, r.reload(state)

	case EnterAction:
		entry, ok := state.CursorEntry()
		if !ok {
			return state, nil
		}
		if entry.IsDir() {
			return state, r.navigate(state, entry.Path)
		}
		return state, r.openViewer(state, entry)

	case DirectoryLoadedAction:
		return state, r.applyListing(state, a)

	// ===== CURSOR & VIEW =====

	case CursorMoveAction:
		state.moveCursor(a.Delta)
		return state, nil

	case CursorHomeAction:
		state.Cursor = 0
		state.updateScroll()
		return state, nil

	case CursorEndAction:
		state.Cursor = len(state.DisplayEntries()) - 1
		state.clampCursor()
		return state, nil

	case ResizeAction:
		state.ScreenWidth = a.Width
		state.ScreenHeight = a.Height
		state.updateScroll()
		return state, nil

	case ToggleHiddenAction:
		current, ok := state.CursorEntry()
		state.HideHidden = !state.HideHidden
		state.dropHiddenSelection()
		state.recomputeFilter()
		if ok {
			state.focusPath(current.Path)
		}
		state.clampCursor()
		return state, nil

	// ===== FILTER =====

	case FilterStartAction:
		state.FilterActive = true
		state.FilterQuery = ""
		state.FilterCaseSensitive = false
		state.recomputeFilter()
		return state, nil

	case FilterCharAction:
		if !state.FilterActive {
			return state, nil
		}
		state.FilterQuery += string(a.Char)
		state.FilterCaseSensitive = state.FilterCaseSensitive || isUpper(a.Char)
		state.recomputeFilter()
		state.Cursor = 0
		state.updateScroll()
		return state, nil

	case FilterBackspaceAction:
		if !state.FilterActive {
			return state, nil
		}
		if state.FilterQuery == "" {
			state.clearFilter()
			return state, nil
		}
		runes := []rune(state.FilterQuery)
		state.FilterQuery = string(runes[:len(runes)-1])
		state.FilterCaseSensitive = hasUpper(state.FilterQuery)
		state.recomputeFilter()
		state.clampCursor()
		return state, nil

	case FilterClearAction:
		current, ok := state.CursorEntry()
		state.clearFilter()
		if ok {
			state.focusPath(current.Path)
		}
		return state, nil

	// ===== SELECTION =====

	case ToggleSelectAction:
		if a.Path != "" {
			state.toggleSelection(fs.Clean(a.Path))
			return state, nil
		}
		entry, ok := state.CursorEntry()
		if !ok {
			return state, nil
		}
		state.toggleSelection(entry.Path)
		state.moveCursor(1)
		return state, nil

	case SelectAllAction:
		state.selectAll()
		return state, nil

	case ClearSelectionAction:
		state.clearSelection()
		return state, nil

	// ===== FILE OPERATIONS =====

	case CreateFileAction:
		return state, r.createFile(state, a.Path, a.Content)

	case CreateFolderAction:
		return state, r.createFolder(state, a.Path)

	case RenameAction:
		return state, r.rename(state, a.Path, a.NewName)

	case DeleteAction:
		r.requestDelete(state, a.Paths)
		return state, nil

	case DeleteSelectionAction:
		r.requestDelete(state, entryPaths(state.Targets()))
		return state, nil

	case deleteConfirmedAction:
		return state, r.deletePaths(state, a.Paths)

	case DeleteFinishedAction:
		return state, r.finishDelete(state, a)

	case ChmodAction:
		return state, r.chmod(state, a.Path, a.Mode)

	case DownloadAction:
		return state, r.download(state, a.Paths)

	case DownloadSelectionAction:
		targets := state.Targets()
		if ok, reason := CanDownload(StatsOf(targets)); !ok {
			r.notify(state, NoticeWarn, "", reason)
			return state, nil
		}
		return state, r.download(state, entryPaths(targets))

	case DownloadFinishedAction:
		r.finishDownload(state, a)
		return state, nil

	case OperationFinishedAction:
		return state, r.finishOperation(state, a)

	// ===== UPLOAD =====

	case UploadPanelToggleAction:
		state.UploadPanel = !state.UploadPanel
		return state, nil

	case UploadAddAction:
		r.addUploads(state, a.Files)
		return state, nil

	case UploadPathsAction:
		r.addUploadPaths(state, a.Paths)
		return state, nil

	case UploadStartAction:
		return state, r.startUpload(state, a.Dest)

	case UploadProgressAction:
		r.uploads.SetProgress(a.Generation, a.Index, a.Percent)
		return state, nil

	case UploadFinishedAction:
		return state, r.finishUpload(state, a)

	case UploadRemoveAction:
		r.uploads.Remove(a.ID)
		return state, nil

	case UploadClearCompletedAction:
		r.uploads.ClearCompleted()
		return state, nil

	case UploadResetAction:
		r.uploads.Reset()
		return state, nil

	// ===== SEARCH =====

	case SearchOpenAction:
		r.openSearch(state)
		return state, nil

	case SearchCloseAction:
		r.closeSearch(state)
		return state, nil

	case SearchSetTextAction:
		return state, r.setSearchQuery(state, func(q *search.Query) { q.Text = a.Text })

	case SearchCharAction:
		return state, r.setSearchQuery(state, func(q *search.Query) { q.Text += string(a.Char) })

	case SearchBackspaceAction:
		return state, r.setSearchQuery(state, func(q *search.Query) {
			runes := []rune(q.Text)
			if len(runes) > 0 {
				q.Text = string(runes[:len(runes)-1])
			}
		})

	case SearchToggleRegexAction:
		return state, r.setSearchQuery(state, func(q *search.Query) { q.Regex = !q.Regex })

	case SearchToggleCaseAction:
		return state, r.setSearchQuery(state, func(q *search.Query) { q.CaseSensitive = !q.CaseSensitive })

	case SearchCycleTypeAction:
		return state, r.setSearchQuery(state, func(q *search.Query) { q.Type = q.Type.Next() })

	case SearchMoveAction:
		state.moveSearchSelection(a.Delta)
		return state, nil

	case SearchFireAction:
		return state, r.fireSearch(state, a.ID)

	case SearchResultsAction:
		r.applySearchResults(state, a)
		return state, nil

	case SearchOpenResultAction:
		return state, r.openSearchResult(state, a.Index)

	// ===== VIEWER =====

	case ViewerOpenAction:
		entry, ok := state.CursorEntry()
		if a.Path != "" {
			entry, ok = state.EntryByPath(fs.Clean(a.Path))
		}
		if !ok || entry.IsDir() {
			return state, nil
		}
		return state, r.openViewer(state, entry)

	case ViewerLoadedAction:
		r.applyViewerContent(state, a)
		return state, nil

	case ViewerSetTextAction:
		if state.Viewer != nil && state.Viewer.Category == fs.CategoryText && !state.Viewer.Loading {
			state.Viewer.Text = a.Text
		}
		return state, nil

	case ViewerSaveAction:
		return state, r.saveViewer(state)

	case ViewerSavedAction:
		return state, r.finishSave(state, a)

	case ViewerCloseAction:
		r.requestCloseViewer(state)
		return state, nil

	case viewerDiscardAction:
		r.closeViewer(state)
		return state, nil

	case ViewerDownloadAction:
		if state.Viewer == nil {
			return state, nil
		}
		return state, r.download(state, []string{state.Viewer.Entry.Path})

	case ViewerScrollAction:
		if state.Viewer != nil {
			state.Viewer.Scroll = max(0, state.Viewer.Scroll+a.Delta)
		}
		return state, nil

	// ===== PROMPT & CONFIRMATION =====

	case PromptOpenAction:
		r.openPrompt(state, a.Kind)
		return state, nil

	case PromptCharAction:
		if state.Prompt != nil {
			state.Prompt.Value += string(a.Char)
		}
		return state, nil

	case PromptBackspaceAction:
		if state.Prompt != nil {
			runes := []rune(state.Prompt.Value)
			if len(runes) > 0 {
				state.Prompt.Value = string(runes[:len(runes)-1])
			}
		}
		return state, nil

	case PromptCancelAction:
		state.Prompt = nil
		return state, nil

	case PromptSubmitAction:
		return r.submitPrompt(state)

	case ConfirmAction:
		pending := state.Confirm
		state.Confirm = nil
		if pending == nil || !a.Accepted || pending.OnAccept == nil {
			return state, nil
		}
		return r.Reduce(state, pending.OnAccept)

	case DismissAlertAction:
		state.Alert = nil
		return state, nil

	case RequestAccessAction:
		if state.Alert == nil || state.Alert.Kind != remote.KindPermission {
			return state, nil
		}
		r.log.Info().Str("path", state.Alert.Path).Msg("access requested")
		r.notify(state, NoticeInfo, "", "Access request recorded for "+state.Alert.Path)
		return state, nil

	case HelpToggleAction:
		state.HelpVisible = !state.HelpVisible
		return state, nil

	case NotifyAction:
		r.notify(state, a.Level, "", a.Message)
		return state, nil
	}

	return state, nil
}

func (r *StateReducer) connect(state *AppState, session remote.Session) error {
	r.gw.SetSession(session)
	state.Connected = session.Valid()
	if state.Alert != nil && state.Alert.Kind == remote.KindSessionExpired {
		state.Alert = nil
	}
	if !state.Connected {
		return nil
	}
	if len(state.History) == 0 {
		state.History = []string{state.CurrentPath}
		state.HistoryIndex = 0
	}
	return r.load(state, state.CurrentPath, false)
}

// DownloadSink stores downloaded content locally.
type DownloadSink interface {
	Save(name string, r io.Reader) (string, error)
}
