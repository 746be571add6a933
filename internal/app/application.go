package app

import (
	"time"

	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
	inputui "github.com/kk-code-lab/rbrowse/internal/ui/input"
	renderui "github.com/kk-code-lab/rbrowse/internal/ui/render"
	"github.com/kk-code-lab/rbrowse/internal/upload"
	"github.com/rs/zerolog"
)

// DefaultNoticeTTL is how long a notice stays on the status line.
const DefaultNoticeTTL = 4 * time.Second

// Options configure a terminal session against one remote connection.
type Options struct {
	Gateway     statepkg.Gateway
	StartPath   string
	DownloadDir string
	Limits      upload.Limits
	MaxResults  int
	Debounce    time.Duration
	NoticeTTL   time.Duration
	// Editor overrides $VISUAL and $EDITOR when set.
	Editor string
	Logger zerolog.Logger
}

// Application represents the running app.
type Application struct {
	screen     tcell.Screen
	state      *statepkg.AppState
	reducer    *statepkg.StateReducer
	renderer   *renderui.Renderer
	input      *inputui.InputHandler
	actionCh   chan statepkg.Action
	resultCh   chan statepkg.Action
	dispatch   func(statepkg.Action)
	shouldQuit bool
	log        zerolog.Logger

	clipboardCmd []string
	editorCmd    []string
	noticeTTL    time.Duration
	tick         int

	lastClickKey  string
	lastClickTime time.Time
}

// Close cleans up resources.
func (app *Application) Close() error {
	app.reducer.Shutdown(app.state)
	app.screen.Fini()
	return nil
}

// CurrentPath returns the remote directory shown when the app stopped.
func (app *Application) CurrentPath() string {
	return app.state.CurrentPath
}
