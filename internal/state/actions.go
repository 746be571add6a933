package state

import (
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/search"
	"github.com/kk-code-lab/rbrowse/internal/upload"
)

// Action is the base interface for all state mutations
type Action interface{}

// ===== SESSION ACTIONS =====

// ConnectAction installs a session handle and loads the current path.
type ConnectAction struct {
	Session remote.Session
}
type DisconnectAction struct{}

// ===== NAVIGATION ACTIONS =====

type NavigateAction struct {
	Path string
}
type BackAction struct{}
type ForwardAction struct{}
type UpAction struct{}
type HomeAction struct{}
type RefreshAction struct{}

// EnterAction opens the entry under the cursor: directories are navigated
// into, files open in the viewer.
type EnterAction struct{}

// DirectoryLoadedAction reports a finished listing request.
type DirectoryLoadedAction struct {
	Token   int
	Path    string
	Entries []fs.Entry
	Err     error
}

// ===== CURSOR & VIEW ACTIONS =====

type CursorMoveAction struct {
	Delta int
}
type CursorHomeAction struct{}
type CursorEndAction struct{}
type ResizeAction struct {
	Width  int
	Height int
}
type ToggleHiddenAction struct{}

// ===== FILTER ACTIONS =====

type FilterStartAction struct{}
type FilterCharAction struct {
	Char rune
}
type FilterBackspaceAction struct{}
type FilterClearAction struct{}

// ===== SELECTION ACTIONS =====

type ToggleSelectAction struct {
	Path string // empty means the entry under the cursor
}
type SelectAllAction struct{}
type ClearSelectionAction struct{}

// ===== FILE OPERATION ACTIONS =====

type CreateFileAction struct {
	Path    string
	Content string
}
type CreateFolderAction struct {
	Path string
}
type RenameAction struct {
	Path    string
	NewName string
}

// DeleteAction asks for confirmation before deleting Paths.
type DeleteAction struct {
	Paths []string
}
type ChmodAction struct {
	Path string
	Mode string
}
type DownloadAction struct {
	Paths []string
}

// DeleteSelectionAction, DownloadSelectionAction and friends act on the
// selection, or on the entry under the cursor when nothing is selected.
type DeleteSelectionAction struct{}
type DownloadSelectionAction struct{}

// OperationFinishedAction reports a single mutating request.
type OperationFinishedAction struct {
	Op      string
	Path    string
	Message string
	Focus   string // entry to put the cursor on after the reload
	Err     error
}

type deleteConfirmedAction struct {
	Paths []string
}

// DeleteFinishedAction reports the settlement of every request of a batch.
type DeleteFinishedAction struct {
	Paths []string
	Errs  []error
}

// DownloadFinishedAction reports a finished download and where it was saved.
type DownloadFinishedAction struct {
	Paths     []string
	SavedPath string
	Err       error
}

// ===== UPLOAD ACTIONS =====

type UploadPanelToggleAction struct{}
type UploadAddAction struct {
	Files []upload.File
}

// UploadPathsAction adds local files by path.
type UploadPathsAction struct {
	Paths []string
}
type UploadStartAction struct {
	Dest string // empty means the current directory
}
type UploadRemoveAction struct {
	ID string
}
type UploadClearCompletedAction struct{}
type UploadResetAction struct{}
type UploadProgressAction struct {
	Generation int
	Index      int
	Percent    int
}
type UploadFinishedAction struct {
	Generation int
	Dest       string
	Results    []remote.UploadResult
	Err        error
}

// ===== SEARCH ACTIONS =====

type SearchOpenAction struct{}
type SearchCloseAction struct{}
type SearchSetTextAction struct {
	Text string
}
type SearchCharAction struct {
	Char rune
}
type SearchBackspaceAction struct{}
type SearchToggleRegexAction struct{}
type SearchToggleCaseAction struct{}
type SearchCycleTypeAction struct{}
type SearchMoveAction struct {
	Delta int
}

// SearchOpenResultAction opens result Index, or the selected one when Index < 0.
type SearchOpenResultAction struct {
	Index int
}

// SearchFireAction is sent by the debounce timer for query ID.
type SearchFireAction struct {
	ID int
}
type SearchResultsAction struct {
	ID      int
	Outcome search.Outcome
}

// ===== VIEWER ACTIONS =====

type ViewerOpenAction struct {
	Path string // empty means the entry under the cursor
}
type ViewerLoadedAction struct {
	Token   int
	Path    string
	Content remote.Content
	Err     error
}
type ViewerSetTextAction struct {
	Text string
}
type ViewerSaveAction struct{}
type ViewerSavedAction struct {
	Token int
	Text  string
	Err   error
}
type ViewerCloseAction struct{}
type ViewerDownloadAction struct{}
type ViewerScrollAction struct {
	Delta int
}
type viewerDiscardAction struct{}

// ===== PROMPT & CONFIRMATION ACTIONS =====

type PromptOpenAction struct {
	Kind PromptKind
}
type PromptCharAction struct {
	Char rune
}
type PromptBackspaceAction struct{}
type PromptCancelAction struct{}
type PromptSubmitAction struct{}

type ConfirmAction struct {
	Accepted bool
}

type DismissAlertAction struct{}

// RequestAccessAction records that the user asked for access to the path of
// the current permission alert.
type RequestAccessAction struct{}

// ===== APPLICATION ACTIONS =====

// QuitAction, SuspendAction, OpenEditorAction and YankPathAction are handled
// by the terminal application; the reducer ignores them.
type QuitAction struct{}
type SuspendAction struct{}
type OpenEditorAction struct{}
type YankPathAction struct{}

type HelpToggleAction struct{}

// NotifyAction posts a notice raised outside the engine.
type NotifyAction struct {
	Level   NoticeLevel
	Message string
}
