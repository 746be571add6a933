package app

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rbrowse/internal/blob"
	"github.com/kk-code-lab/rbrowse/internal/search"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
	"github.com/kk-code-lab/rbrowse/internal/ui/input"
	renderui "github.com/kk-code-lab/rbrowse/internal/ui/render"
	"github.com/kk-code-lab/rbrowse/internal/upload"
	"github.com/pkg/errors"
)

const (
	doubleClickThreshold = 300 * time.Millisecond
	animationInterval    = 100 * time.Millisecond
	noticeSweepInterval  = 500 * time.Millisecond
	wheelStep            = 3
)

// NewApplication opens the terminal and wires the engine to it.
func NewApplication(opts Options) (*Application, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.Wrap(err, "open terminal")
	}
	if err := screen.Init(); err != nil {
		return nil, errors.Wrap(err, "init terminal")
	}
	// Parse mouse sequences so modified clicks don't leak as key events.
	screen.EnableMouse()

	app, err := newApplication(screen, opts)
	if err != nil {
		screen.Fini()
		return nil, err
	}
	return app, nil
}

func newApplication(screen tcell.Screen, opts Options) (*Application, error) {
	if opts.Gateway == nil {
		return nil, errors.New("no gateway configured")
	}
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = DefaultNoticeTTL
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = search.MaxResults
	}
	if opts.Limits == (upload.Limits{}) {
		opts.Limits = upload.DefaultLimits()
	}
	log := opts.Logger.With().Str("component", "app").Logger()

	state := statepkg.NewAppState(opts.StartPath)
	w, h := screen.Size()
	state.ScreenWidth = w
	state.ScreenHeight = h

	actionCh := make(chan statepkg.Action, 64)
	// Engine results come from worker goroutines only; a blocking send keeps
	// them in order without ever stalling the loop's own input sends.
	resultCh := make(chan statepkg.Action, 256)
	dispatch := func(action statepkg.Action) {
		resultCh <- action
	}
	state.SetDispatch(dispatch)

	var sink statepkg.DownloadSink = statepkg.DiscardSink{}
	if opts.DownloadDir != "" {
		sink = statepkg.DirSink{Dir: opts.DownloadDir}
	}
	blobs := blob.NewStore()
	reducer := statepkg.NewStateReducer(statepkg.Deps{
		Gateway:  opts.Gateway,
		Blobs:    blobs,
		Uploads:  upload.New(opts.Limits, blobs, opts.Logger),
		Searcher: search.NewSearcher(opts.Gateway, opts.MaxResults, opts.Logger),
		Sink:     sink,
		Logger:   opts.Logger,
		Debounce: opts.Debounce,
	})

	renderer := renderui.NewRenderer(screen)
	renderer.SetBlobs(reducer.Blobs())
	inputHandler := input.NewInputHandler(actionCh)
	inputHandler.SetState(state)

	app := &Application{
		screen:       screen,
		state:        state,
		reducer:      reducer,
		renderer:     renderer,
		input:        inputHandler,
		actionCh:     actionCh,
		resultCh:     resultCh,
		dispatch:     dispatch,
		log:          log,
		clipboardCmd: detectClipboard(),
		editorCmd:    detectEditorCommand(opts.Editor),
		noticeTTL:    opts.NoticeTTL,
	}

	if err := reducer.Init(state); err != nil {
		log.Warn().Err(err).Str("path", state.CurrentPath).Msg("initial load failed")
	}
	log.Info().
		Str("start", state.CurrentPath).
		Bool("connected", state.Connected).
		Bool("clipboard", len(app.clipboardCmd) > 0).
		Bool("editor", len(app.editorCmd) > 0).
		Msg("terminal session started")
	return app, nil
}

// Run drives the event loop until the user quits. The caller still owns Close.
func (app *Application) Run() {
	app.render()
	renderPending := false

	eventChan := make(chan tcell.Event)
	go func() {
		for {
			ev := app.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	var sigContCh chan os.Signal
	if sigs := contSignals(); len(sigs) > 0 {
		sigContCh = make(chan os.Signal, 1)
		signal.Notify(sigContCh, sigs...)
		defer signal.Stop(sigContCh)
	}

	var animationTimer *time.Timer
	var animationCh <-chan time.Time

	startAnimation := func() {
		if animationCh != nil {
			return
		}
		if animationTimer == nil {
			animationTimer = time.NewTimer(animationInterval)
		} else {
			animationTimer.Reset(animationInterval)
		}
		animationCh = animationTimer.C
	}

	stopAnimation := func() {
		if animationTimer == nil {
			return
		}
		if !animationTimer.Stop() {
			select {
			case <-animationTimer.C:
			default:
			}
		}
		animationCh = nil
	}

	sweep := time.NewTicker(noticeSweepInterval)
	defer sweep.Stop()

	for !app.shouldQuit {
		if renderPending {
			app.render()
			renderPending = false
		}

		if app.shouldAnimate() {
			startAnimation()
		} else {
			stopAnimation()
		}

		select {
		case ev := <-eventChan:
			if app.handleEvent(ev) {
				renderPending = true
			}
		case <-animationCh:
			animationCh = nil
			app.tick++
			renderPending = true
		case now := <-sweep.C:
			if app.state.PruneNotices(now, app.noticeTTL) {
				renderPending = true
			}
		case action := <-app.actionCh:
			if app.handleAction(action) {
				renderPending = true
			}
		case action := <-app.resultCh:
			if app.handleAction(action) {
				renderPending = true
			}
		case <-sigContCh:
			if app.resumeAfterStop() {
				renderPending = true
			}
		}

		if app.processActions() {
			renderPending = true
		}
	}

	stopAnimation()
	app.log.Info().Str("path", app.state.CurrentPath).Msg("terminal session ended")
}

func (app *Application) render() {
	app.renderer.Render(renderui.Frame{
		State:   app.state,
		Uploads: app.reducer.Uploads().Items(),
		Tick:    app.tick,
	})
}

func (app *Application) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey, *tcell.EventResize:
		if !app.input.ProcessEvent(ev) {
			app.shouldQuit = true
		}
	case *tcell.EventMouse:
		return app.handleMouse(ev)
	case *tcell.EventInterrupt:
		return true
	default:
		return false
	}
	return true
}

// handleMouse maps wheel scrolling and primary clicks to engine actions.
func (app *Application) handleMouse(ev *tcell.EventMouse) bool {
	mode := app.state.InputMode()
	buttons := ev.Buttons()

	switch {
	case buttons&tcell.WheelUp != 0:
		return app.scroll(mode, -wheelStep)
	case buttons&tcell.WheelDown != 0:
		return app.scroll(mode, wheelStep)
	case buttons&tcell.Button1 == 0:
		return false
	}

	if mode != statepkg.ModeBrowse && mode != statepkg.ModeFilter && mode != statepkg.ModeSearch {
		return false
	}

	x, y := ev.Position()
	if y == 0 {
		return app.handleBreadcrumbClick(x)
	}

	row := y - 2
	if row < 0 || row >= app.state.ListRows() {
		return false
	}

	clickKey := fmt.Sprintf("list-%d", row)
	doubleClick := app.lastClickKey == clickKey && time.Since(app.lastClickTime) <= doubleClickThreshold
	app.lastClickKey = clickKey
	app.lastClickTime = time.Now()

	if mode == statepkg.ModeSearch {
		idx, ok := renderui.SearchResultAt(app.state, row)
		if !ok {
			return false
		}
		app.actionCh <- statepkg.SearchMoveAction{Delta: idx - app.state.Search.Selected}
		if doubleClick {
			app.actionCh <- statepkg.SearchOpenResultAction{Index: idx}
		}
		return true
	}

	idx := app.state.ScrollOffset + row
	if idx >= len(app.state.DisplayEntries()) {
		return false
	}
	app.actionCh <- statepkg.CursorMoveAction{Delta: idx - app.state.Cursor}
	if doubleClick {
		app.actionCh <- statepkg.EnterAction{}
	}
	return true
}

func (app *Application) scroll(mode statepkg.InputMode, delta int) bool {
	switch mode {
	case statepkg.ModeViewer:
		app.actionCh <- statepkg.ViewerScrollAction{Delta: delta}
	case statepkg.ModeSearch:
		app.actionCh <- statepkg.SearchMoveAction{Delta: delta}
	case statepkg.ModeBrowse, statepkg.ModeFilter:
		app.actionCh <- statepkg.CursorMoveAction{Delta: delta}
	default:
		return false
	}
	return true
}

func (app *Application) handleBreadcrumbClick(x int) bool {
	if !app.state.Connected || app.state.Search.Active {
		return false
	}
	target, ok := renderui.BreadcrumbAt(app.state.CurrentPath, app.state.ScreenWidth, x)
	if !ok || target == app.state.CurrentPath {
		return false
	}
	app.actionCh <- statepkg.NavigateAction{Path: target}
	return true
}

func (app *Application) processActions() bool {
	changed := false
	for !app.shouldQuit {
		select {
		case action := <-app.actionCh:
			if app.handleAction(action) {
				changed = true
			}
		case action := <-app.resultCh:
			if app.handleAction(action) {
				changed = true
			}
		default:
			return changed
		}
	}
	return changed
}

// shouldAnimate reports whether something in flight needs the spinner.
func (app *Application) shouldAnimate() bool {
	s := app.state
	if s.Busy > 0 || s.Listing.Loading {
		return true
	}
	if s.Viewer != nil && (s.Viewer.Loading || s.Viewer.Saving) {
		return true
	}
	if s.Search.Active && (s.Search.Status == search.StatusSearching || s.Search.Status == search.StatusDebouncing) {
		return true
	}
	return app.reducer.Uploads().Uploading()
}

func (app *Application) handleAction(action statepkg.Action) bool {
	if action == nil {
		return false
	}

	switch action.(type) {
	case statepkg.QuitAction:
		app.shouldQuit = true
		return false
	case statepkg.SuspendAction:
		app.suspendToShell()
		app.resumeAfterStop()
		return true
	case statepkg.YankPathAction:
		return app.handleClipboard()
	case statepkg.OpenEditorAction:
		return app.handleEditorOpen()
	}

	app.reduce(action)
	return true
}

// reduce applies action and turns an engine error into a visible notice.
func (app *Application) reduce(action statepkg.Action) {
	if _, err := app.reducer.Reduce(app.state, action); err != nil {
		app.log.Error().Err(err).Str("action", fmt.Sprintf("%T", action)).Msg("action failed")
		app.notify(statepkg.NoticeError, err.Error())
	}
}

func (app *Application) notify(level statepkg.NoticeLevel, message string) {
	if _, err := app.reducer.Reduce(app.state, statepkg.NotifyAction{Level: level, Message: message}); err != nil {
		app.log.Error().Err(err).Msg("notify failed")
	}
}
