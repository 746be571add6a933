package state

import (
	"time"

	"github.com/kk-code-lab/rbrowse/internal/blob"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/search"
)

// ===== STATE DEFINITIONS =====

// ListingState tracks the Directory Listing Store.
type ListingState struct {
	Loading bool
	Path    string // path of the load in flight or last applied
	Err     error  // kept while the view stays on a failed path
	Kind    remote.ErrorKind

	token      int
	recovering bool
	stale      bool
}

// SearchState is the Search Coordinator snapshot.
type SearchState struct {
	Active    bool
	Query     search.Query
	Status    search.Status
	Results   []search.Result
	Truncated bool
	Selected  int
	Err       error
	ID        int // bumped on every query change; stale results carry an older ID

	timer Timer
}

// Viewer is the Content Viewer/Editor for one entry.
type Viewer struct {
	Entry    fs.Entry
	Category fs.Category
	Loading  bool
	Err      error

	// Text category.
	Text     string
	Original string
	Encoding fs.UnicodeEncoding
	Saving   bool

	// Other categories.
	Handle   blob.Handle
	MIME     string
	HexLines []string
	Size     int

	Scroll int
	token  int
}

// Dirty reports whether the edit buffer differs from the loaded content.
func (v *Viewer) Dirty() bool {
	return v != nil && v.Category == fs.CategoryText && v.Text != v.Original
}

// CanSave reports whether save is allowed: unsaved changes and no save running.
func (v *Viewer) CanSave() bool {
	return v.Dirty() && !v.Saving && !v.Loading
}

// NoticeLevel grades a notification.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeWarn  NoticeLevel = "warn"
	NoticeError NoticeLevel = "error"
)

// Notice is a transient notification handed to the Notifier.
type Notice struct {
	Level   NoticeLevel
	Kind    remote.ErrorKind
	Message string
	At      time.Time
}

// Alert is a persistent error that stays visible until dismissed or resolved.
type Alert struct {
	Kind    remote.ErrorKind
	Path    string
	Message string
}

// Confirmation is a question waiting for the user. OnAccept runs when the
// answer is yes.
type Confirmation struct {
	Prompt   string
	OnAccept Action
}

// PromptKind selects what a submitted prompt does.
type PromptKind string

const (
	PromptCreateFile   PromptKind = "create_file"
	PromptCreateFolder PromptKind = "create_folder"
	PromptRename       PromptKind = "rename"
	PromptChmod        PromptKind = "chmod"
	PromptUpload       PromptKind = "upload"
	PromptReconnect    PromptKind = "reconnect"
)

// Prompt is a single-line text input owned by the engine.
type Prompt struct {
	Kind   PromptKind
	Label  string
	Value  string
	Target string
}

// AppState is the single source of truth
type AppState struct {
	// Session
	Connected bool

	// Navigation & listing
	CurrentPath  string
	HomePath     string
	Entries      []fs.Entry // current listing, always sorted
	Listing      ListingState
	History      []string
	HistoryIndex int

	// Cursor & viewport over the display entries
	Cursor       int
	ScrollOffset int

	// Selection
	Selection SelectionSet
	Stats     SelectionStats

	// Local quick filter
	HideHidden          bool
	FilterActive        bool
	FilterQuery         string
	FilterCaseSensitive bool
	filterMatches       []search.FilterMatch

	Search SearchState
	Viewer *Viewer

	// Upload panel
	UploadPanel bool

	HelpVisible bool

	// Interaction
	Prompt  *Prompt
	Confirm *Confirmation
	Alert   *Alert
	Notices []Notice

	// Operations in flight, for the status line.
	Busy int

	// Dimensions
	ScreenWidth  int
	ScreenHeight int

	// pendingSelect is a path to select once the next listing lands;
	// pendingFocus only moves the cursor there.
	pendingSelect string
	pendingFocus  string

	dispatchAction func(Action)
}

// NewAppState creates the initial state for home. The engine stays in the
// waiting state until a session is installed.
func NewAppState(home string) *AppState {
	home = fs.Clean(home)
	return &AppState{
		CurrentPath: home,
		HomePath:    home,
		HideHidden:  true,
		Selection:   SelectionSet{},
	}
}

// SetDispatch installs the function used by background work to report back.
// Without it every request runs inline.
func (s *AppState) SetDispatch(fn func(Action)) {
	s.dispatchAction = fn
}

func (s *AppState) getDispatch() func(Action) {
	return s.dispatchAction
}

// CanGoBack reports whether back() would move.
func (s *AppState) CanGoBack() bool {
	return s.HistoryIndex > 0 && len(s.History) > 0
}

// CanGoForward reports whether forward() would move.
func (s *AppState) CanGoForward() bool {
	return s.HistoryIndex < len(s.History)-1
}

// EntryByPath looks up an entry of the current listing.
func (s *AppState) EntryByPath(p string) (fs.Entry, bool) {
	for _, e := range s.Entries {
		if e.Path == p {
			return e, true
		}
	}
	return fs.Entry{}, false
}

// InputMode reports which input surface has focus, most specific first.
func (s *AppState) InputMode() InputMode {
	switch {
	case s.Confirm != nil:
		return ModeConfirm
	case s.Prompt != nil:
		return ModePrompt
	case s.HelpVisible:
		return ModeHelp
	case s.Viewer != nil:
		return ModeViewer
	case s.Search.Active:
		return ModeSearch
	case s.UploadPanel:
		return ModeUpload
	case s.FilterActive:
		return ModeFilter
	default:
		return ModeBrowse
	}
}

// InputMode names the focused surface.
type InputMode int

const (
	ModeBrowse InputMode = iota
	ModeFilter
	ModeSearch
	ModeViewer
	ModeUpload
	ModePrompt
	ModeConfirm
	ModeHelp
)
