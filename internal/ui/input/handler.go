package input

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
)

// InputHandler converts tcell events to Actions
type InputHandler struct {
	actionChan chan statepkg.Action
	state      *statepkg.AppState // Reference to current state for mode checking
}

// NewInputHandler creates a new input handler
func NewInputHandler(actionChan chan statepkg.Action) *InputHandler {
	return &InputHandler{
		actionChan: actionChan,
	}
}

// SetState sets the state reference for mode checking
func (ih *InputHandler) SetState(state *statepkg.AppState) {
	ih.state = state
}

// ProcessEvent converts a tcell event into an Action. It returns false when
// the application should quit.
func (ih *InputHandler) ProcessEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return ih.processKeyEvent(ev)
	case *tcell.EventResize:
		w, h := ev.Size()
		ih.send(statepkg.ResizeAction{Width: w, Height: h})
		return true
	default:
		return true
	}
}

func (ih *InputHandler) send(a statepkg.Action) {
	ih.actionChan <- a
}

func (ih *InputHandler) mode() statepkg.InputMode {
	if ih.state == nil {
		return statepkg.ModeBrowse
	}
	return ih.state.InputMode()
}

// processKeyEvent handles keyboard input
func (ih *InputHandler) processKeyEvent(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyCtrlC {
		ih.send(statepkg.QuitAction{})
		return false
	}

	switch ih.mode() {
	case statepkg.ModeConfirm:
		ih.handleConfirmKey(ev)
	case statepkg.ModePrompt:
		ih.handlePromptKey(ev)
	case statepkg.ModeHelp:
		ih.handleHelpKey(ev)
	case statepkg.ModeViewer:
		ih.handleViewerKey(ev)
	case statepkg.ModeSearch:
		ih.handleSearchKey(ev)
	case statepkg.ModeUpload:
		ih.handleUploadKey(ev)
	case statepkg.ModeFilter:
		ih.handleFilterKey(ev)
	default:
		return ih.handleBrowseKey(ev)
	}
	return true
}

func isBackspace(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyBackspace || ev.Key() == tcell.KeyBackspace2
}

func (ih *InputHandler) pageSize() int {
	if ih.state == nil {
		return 10
	}
	return ih.state.ListRows()
}

func (ih *InputHandler) handleBrowseKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyUp:
		ih.send(statepkg.CursorMoveAction{Delta: -1})
	case tcell.KeyDown:
		ih.send(statepkg.CursorMoveAction{Delta: 1})
	case tcell.KeyPgUp:
		ih.send(statepkg.CursorMoveAction{Delta: -ih.pageSize()})
	case tcell.KeyPgDn:
		ih.send(statepkg.CursorMoveAction{Delta: ih.pageSize()})
	case tcell.KeyHome:
		ih.send(statepkg.CursorHomeAction{})
	case tcell.KeyEnd:
		ih.send(statepkg.CursorEndAction{})
	case tcell.KeyEnter, tcell.KeyRight:
		ih.send(statepkg.EnterAction{})
	case tcell.KeyLeft, tcell.KeyBackspace, tcell.KeyBackspace2:
		ih.send(statepkg.UpAction{})
	case tcell.KeyDelete:
		ih.send(statepkg.DeleteSelectionAction{})
	case tcell.KeyEscape:
		if ih.state != nil && ih.state.Alert != nil {
			ih.send(statepkg.DismissAlertAction{})
		} else {
			ih.send(statepkg.ClearSelectionAction{})
		}
	case tcell.KeyCtrlZ:
		ih.send(statepkg.SuspendAction{})
	case tcell.KeyRune:
		return ih.handleBrowseRune(ev.Rune())
	}
	return true
}

func (ih *InputHandler) handleBrowseRune(r rune) bool {
	switch r {
	case 'k':
		ih.send(statepkg.CursorMoveAction{Delta: -1})
	case 'j':
		ih.send(statepkg.CursorMoveAction{Delta: 1})
	case 'g':
		ih.send(statepkg.CursorHomeAction{})
	case 'G':
		ih.send(statepkg.CursorEndAction{})
	case 'l':
		ih.send(statepkg.EnterAction{})
	case 'h':
		ih.send(statepkg.UpAction{})
	case '[':
		ih.send(statepkg.BackAction{})
	case ']':
		ih.send(statepkg.ForwardAction{})
	case '~':
		ih.send(statepkg.HomeAction{})
	case 'r':
		ih.send(statepkg.RefreshAction{})
	case '/':
		ih.send(statepkg.FilterStartAction{})
	case 'f':
		ih.send(statepkg.SearchOpenAction{})
	case '.':
		ih.send(statepkg.ToggleHiddenAction{})
	case 'v':
		ih.send(statepkg.ViewerOpenAction{})
	case ' ':
		ih.send(statepkg.ToggleSelectAction{})
	case 'a':
		ih.send(statepkg.SelectAllAction{})
	case 'n':
		ih.send(statepkg.PromptOpenAction{Kind: statepkg.PromptCreateFile})
	case 'N':
		ih.send(statepkg.PromptOpenAction{Kind: statepkg.PromptCreateFolder})
	case 'm':
		ih.send(statepkg.PromptOpenAction{Kind: statepkg.PromptRename})
	case 'p':
		ih.send(statepkg.PromptOpenAction{Kind: statepkg.PromptChmod})
	case 'd':
		ih.send(statepkg.DeleteSelectionAction{})
	case 'D':
		ih.send(statepkg.DownloadSelectionAction{})
	case 'u':
		ih.send(statepkg.UploadPanelToggleAction{})
	case 'U':
		ih.send(statepkg.PromptOpenAction{Kind: statepkg.PromptUpload})
	case 'c':
		ih.send(statepkg.PromptOpenAction{Kind: statepkg.PromptReconnect})
	case 'A':
		ih.send(statepkg.RequestAccessAction{})
	case 'y':
		ih.send(statepkg.YankPathAction{})
	case '?':
		ih.send(statepkg.HelpToggleAction{})
	case 'q', 'Q':
		ih.send(statepkg.QuitAction{})
		return false
	}
	return true
}

func (ih *InputHandler) handleFilterKey(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyEscape:
		ih.send(statepkg.FilterClearAction{})
	case ev.Key() == tcell.KeyEnter:
		ih.send(statepkg.EnterAction{})
	case isBackspace(ev):
		ih.send(statepkg.FilterBackspaceAction{})
	case ev.Key() == tcell.KeyUp:
		ih.send(statepkg.CursorMoveAction{Delta: -1})
	case ev.Key() == tcell.KeyDown:
		ih.send(statepkg.CursorMoveAction{Delta: 1})
	case ev.Key() == tcell.KeyRune:
		ih.send(statepkg.FilterCharAction{Char: ev.Rune()})
	}
}

func (ih *InputHandler) handleSearchKey(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyEscape:
		if ih.state != nil && ih.state.Search.Query.Text != "" {
			ih.send(statepkg.SearchSetTextAction{Text: ""})
		} else {
			ih.send(statepkg.SearchCloseAction{})
		}
	case ev.Key() == tcell.KeyEnter:
		ih.send(statepkg.SearchOpenResultAction{Index: -1})
	case isBackspace(ev):
		ih.send(statepkg.SearchBackspaceAction{})
	case ev.Key() == tcell.KeyUp:
		ih.send(statepkg.SearchMoveAction{Delta: -1})
	case ev.Key() == tcell.KeyDown:
		ih.send(statepkg.SearchMoveAction{Delta: 1})
	case ev.Key() == tcell.KeyPgUp:
		ih.send(statepkg.SearchMoveAction{Delta: -ih.pageSize()})
	case ev.Key() == tcell.KeyPgDn:
		ih.send(statepkg.SearchMoveAction{Delta: ih.pageSize()})
	case ev.Key() == tcell.KeyCtrlR:
		ih.send(statepkg.SearchToggleRegexAction{})
	case ev.Key() == tcell.KeyCtrlT:
		ih.send(statepkg.SearchToggleCaseAction{})
	case ev.Key() == tcell.KeyTab:
		ih.send(statepkg.SearchCycleTypeAction{})
	case ev.Key() == tcell.KeyRune:
		ih.send(statepkg.SearchCharAction{Char: ev.Rune()})
	}
}

// viewerLines is the number of scrollable lines of the open viewer.
func viewerLines(v *statepkg.Viewer) int {
	if v == nil {
		return 0
	}
	if len(v.HexLines) > 0 {
		return len(v.HexLines)
	}
	if v.Text == "" {
		return 0
	}
	return strings.Count(v.Text, "\n") + 1
}

func (ih *InputHandler) scrollViewer(delta int) {
	v := ih.state.Viewer
	last := max(viewerLines(v)-ih.pageSize(), 0)
	target := min(max(v.Scroll+delta, 0), last)
	if target != v.Scroll {
		ih.send(statepkg.ViewerScrollAction{Delta: target - v.Scroll})
	}
}

func (ih *InputHandler) handleViewerKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		ih.send(statepkg.ViewerCloseAction{})
	case tcell.KeyUp:
		ih.scrollViewer(-1)
	case tcell.KeyDown:
		ih.scrollViewer(1)
	case tcell.KeyPgUp:
		ih.scrollViewer(-ih.pageSize())
	case tcell.KeyPgDn:
		ih.scrollViewer(ih.pageSize())
	case tcell.KeyHome:
		ih.scrollViewer(-viewerLines(ih.state.Viewer))
	case tcell.KeyEnd:
		ih.scrollViewer(viewerLines(ih.state.Viewer))
	case tcell.KeyCtrlS:
		ih.send(statepkg.ViewerSaveAction{})
	case tcell.KeyCtrlZ:
		ih.send(statepkg.SuspendAction{})
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'h':
			ih.send(statepkg.ViewerCloseAction{})
		case 'k':
			ih.scrollViewer(-1)
		case 'j':
			ih.scrollViewer(1)
		case 'g':
			ih.scrollViewer(-viewerLines(ih.state.Viewer))
		case 'G':
			ih.scrollViewer(viewerLines(ih.state.Viewer))
		case 'e':
			ih.send(statepkg.OpenEditorAction{})
		case 's':
			ih.send(statepkg.ViewerSaveAction{})
		case 'D':
			ih.send(statepkg.ViewerDownloadAction{})
		case 'y':
			ih.send(statepkg.YankPathAction{})
		case '?':
			ih.send(statepkg.HelpToggleAction{})
		}
	}
}

func (ih *InputHandler) handleUploadKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		ih.send(statepkg.UploadPanelToggleAction{})
	case tcell.KeyEnter:
		ih.send(statepkg.UploadStartAction{})
	case tcell.KeyRune:
		switch ev.Rune() {
		case 's':
			ih.send(statepkg.UploadStartAction{})
		case 'a', 'U':
			ih.send(statepkg.PromptOpenAction{Kind: statepkg.PromptUpload})
		case 'c':
			ih.send(statepkg.UploadClearCompletedAction{})
		case 'x':
			ih.send(statepkg.UploadResetAction{})
		case 'u', 'q':
			ih.send(statepkg.UploadPanelToggleAction{})
		case '?':
			ih.send(statepkg.HelpToggleAction{})
		}
	}
}

func (ih *InputHandler) handlePromptKey(ev *tcell.EventKey) {
	switch {
	case ev.Key() == tcell.KeyEscape:
		ih.send(statepkg.PromptCancelAction{})
	case ev.Key() == tcell.KeyEnter:
		ih.send(statepkg.PromptSubmitAction{})
	case isBackspace(ev):
		ih.send(statepkg.PromptBackspaceAction{})
	case ev.Key() == tcell.KeyRune:
		ih.send(statepkg.PromptCharAction{Char: ev.Rune()})
	}
}

func (ih *InputHandler) handleConfirmKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEnter:
		ih.send(statepkg.ConfirmAction{Accepted: true})
	case tcell.KeyEscape:
		ih.send(statepkg.ConfirmAction{Accepted: false})
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'y', 'Y':
			ih.send(statepkg.ConfirmAction{Accepted: true})
		case 'n', 'N':
			ih.send(statepkg.ConfirmAction{Accepted: false})
		}
	}
}

func (ih *InputHandler) handleHelpKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		ih.send(statepkg.HelpToggleAction{})
	case tcell.KeyRune:
		switch ev.Rune() {
		case '?', 'q', 'Q':
			ih.send(statepkg.HelpToggleAction{})
		}
	}
}
