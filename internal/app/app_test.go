package app

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
	"github.com/rs/zerolog"
)

// memGateway serves a fixed tree from memory.
type memGateway struct {
	session remote.Session
	dirs    map[string][]fs.Entry
	files   map[string][]byte
}

func newMemGateway() *memGateway {
	return &memGateway{
		dirs: map[string][]fs.Entry{
			"/": {
				{Path: "/src", Name: "src", Type: fs.TypeDirectory},
				{Path: "/a.txt", Name: "a.txt", Type: fs.TypeFile, Size: 5},
				{Path: "/b.txt", Name: "b.txt", Type: fs.TypeFile, Size: 3},
			},
			"/src": {
				{Path: "/src/main.go", Name: "main.go", Type: fs.TypeFile, Size: 12},
			},
		},
		files: map[string][]byte{
			"/a.txt":       []byte("hello"),
			"/src/main.go": []byte("package main"),
		},
	}
}

func notFound(op, p string) error {
	return &remote.Error{Op: op, Path: p, Kind: remote.KindNotFound, Status: http.StatusNotFound}
}

func (g *memGateway) Session() remote.Session     { return g.session }
func (g *memGateway) SetSession(s remote.Session) { g.session = s }

func (g *memGateway) List(_ context.Context, dir string) ([]fs.Entry, error) {
	entries, ok := g.dirs[dir]
	if !ok {
		return nil, notFound("list", dir)
	}
	return append([]fs.Entry(nil), entries...), nil
}

func (g *memGateway) Read(_ context.Context, p string) (remote.Content, error) {
	data, ok := g.files[p]
	if !ok {
		return remote.Content{}, notFound("read", p)
	}
	return remote.Content{Data: data, ContentType: "text/plain"}, nil
}

func (g *memGateway) Create(context.Context, string, string) error { return nil }

func (g *memGateway) Write(_ context.Context, p, content string) error {
	g.files[p] = []byte(content)
	return nil
}

func (g *memGateway) Delete(context.Context, string) error         { return nil }
func (g *memGateway) Rename(context.Context, string, string) error { return nil }
func (g *memGateway) Mkdir(context.Context, string) error          { return nil }
func (g *memGateway) Chmod(context.Context, string, string) error  { return nil }

func (g *memGateway) Download(ctx context.Context, p string) (remote.Content, error) {
	return g.Read(ctx, p)
}

func (g *memGateway) DownloadBundle(context.Context, []string) (remote.Content, error) {
	return remote.Content{}, nil
}

func (g *memGateway) Search(context.Context, remote.SearchRequest) ([]remote.SearchResult, error) {
	return []remote.SearchResult{
		{Path: "/a.txt", Name: "a.txt", Type: fs.TypeFile},
		{Path: "/src/main.go", Name: "main.go", Type: fs.TypeFile},
	}, nil
}

func (g *memGateway) Upload(_ context.Context, _ string, files []remote.UploadFile, _ remote.ProgressFunc) ([]remote.UploadResult, error) {
	out := make([]remote.UploadResult, len(files))
	for i, f := range files {
		out[i] = remote.UploadResult{Name: f.Name, Success: true}
	}
	return out, nil
}

func newTestScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init screen: %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(func() {
		screen.Fini()
	})
	return screen
}

// newTestApp builds a connected application whose engine runs requests
// inline, so every reduce settles before it returns.
func newTestApp(t *testing.T) *Application {
	t.Helper()
	gw := newMemGateway()
	app, err := newApplication(newTestScreen(t), Options{
		Gateway:   gw,
		StartPath: "/",
		Logger:    zerolog.New(zerolog.NewTestWriter(t)),
	})
	if err != nil {
		t.Fatalf("newApplication: %v", err)
	}
	app.state.SetDispatch(nil)
	app.clipboardCmd = nil
	app.editorCmd = nil
	app.reduce(statepkg.ConnectAction{Session: remote.Session{ConnectionID: "c1", Token: "t1"}})
	if !app.state.Connected || len(app.state.Entries) != 3 {
		t.Fatalf("connect: connected=%v entries=%d", app.state.Connected, len(app.state.Entries))
	}
	t.Cleanup(func() {
		app.reducer.Shutdown(app.state)
	})
	return app
}

// nextAction pops the next queued action or fails.
func nextAction(t *testing.T, app *Application) statepkg.Action {
	t.Helper()
	select {
	case a := <-app.actionCh:
		return a
	case <-time.After(time.Second):
		t.Fatalf("no action queued")
		return nil
	}
}

func expectNoAction(t *testing.T, app *Application) {
	t.Helper()
	select {
	case a := <-app.actionCh:
		t.Fatalf("unexpected action %T", a)
	default:
	}
}

func TestNewApplicationRequiresGateway(t *testing.T) {
	if _, err := newApplication(newTestScreen(t), Options{}); err == nil {
		t.Fatalf("expected an error without a gateway")
	}
}

func TestNewApplicationWithoutSessionWaits(t *testing.T) {
	app, err := newApplication(newTestScreen(t), Options{Gateway: newMemGateway(), StartPath: "/src"})
	if err != nil {
		t.Fatalf("newApplication: %v", err)
	}
	defer app.reducer.Shutdown(app.state)

	if app.state.Connected || len(app.state.Entries) != 0 {
		t.Fatalf("no session should leave the engine waiting")
	}
	if app.CurrentPath() != "/src" {
		t.Fatalf("current path = %q", app.CurrentPath())
	}
	if app.state.ScreenWidth != 80 || app.state.ScreenHeight != 24 {
		t.Fatalf("screen = %dx%d", app.state.ScreenWidth, app.state.ScreenHeight)
	}
	if app.noticeTTL != DefaultNoticeTTL {
		t.Fatalf("notice ttl = %v", app.noticeTTL)
	}
}

func TestHandleActionQuit(t *testing.T) {
	app := newTestApp(t)
	if app.handleAction(statepkg.QuitAction{}) {
		t.Fatalf("quit should not request a render")
	}
	if !app.shouldQuit {
		t.Fatalf("quit action should stop the loop")
	}
}

func TestProcessActionsDrainsQueue(t *testing.T) {
	app := newTestApp(t)
	app.actionCh <- statepkg.CursorMoveAction{Delta: 1}
	app.actionCh <- statepkg.CursorMoveAction{Delta: 1}

	if !app.processActions() {
		t.Fatalf("expected a render request")
	}
	if app.state.Cursor != 2 {
		t.Fatalf("cursor = %d", app.state.Cursor)
	}
	expectNoAction(t, app)
}

func TestKeyEventsFlowThroughInput(t *testing.T) {
	app := newTestApp(t)

	app.handleEvent(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	if _, ok := nextAction(t, app).(statepkg.CursorMoveAction); !ok {
		t.Fatalf("down arrow should move the cursor")
	}

	app.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	if !app.shouldQuit {
		t.Fatalf("q should quit")
	}
}

func TestShouldAnimateWhileBusy(t *testing.T) {
	app := newTestApp(t)
	if app.shouldAnimate() {
		t.Fatalf("idle app should not animate")
	}
	app.state.Busy = 1
	if !app.shouldAnimate() {
		t.Fatalf("busy app should animate")
	}
	app.state.Busy = 0
	app.state.Listing.Loading = true
	if !app.shouldAnimate() {
		t.Fatalf("loading listing should animate")
	}
}

func TestReduceSurfacesNotify(t *testing.T) {
	app := newTestApp(t)
	app.notify(statepkg.NoticeWarn, "careful")

	if n := len(app.state.Notices); n == 0 || app.state.Notices[n-1].Message != "careful" {
		t.Fatalf("notices = %+v", app.state.Notices)
	}
}

func TestRenderDrawsListing(t *testing.T) {
	app := newTestApp(t)
	screen := app.screen.(tcell.SimulationScreen)
	app.render()

	cells, w, _ := screen.GetContents()
	var row []rune
	for x := 0; x < w; x++ {
		row = append(row, cells[2*w+x].Runes...)
	}
	if got := string(row); !strings.Contains(got, "src/") {
		t.Fatalf("first list row = %q", got)
	}
}

func TestEngineResultsKeepDispatchOrder(t *testing.T) {
	app := newTestApp(t)

	const n = 1000
	go func() {
		for i := 0; i < n; i++ {
			app.dispatch(statepkg.UploadProgressAction{Generation: 1, Index: 0, Percent: i})
		}
	}()

	for i := 0; i < n; i++ {
		select {
		case a := <-app.resultCh:
			got, ok := a.(statepkg.UploadProgressAction)
			if !ok || got.Percent != i {
				t.Fatalf("result %d out of order: %#v", i, a)
			}
		case <-time.After(time.Second):
			t.Fatalf("result %d never arrived", i)
		}
	}
	expectNoAction(t, app)
}
