package state

import (
	"context"
	"io"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/rs/zerolog"
)

type fakeGateway struct {
	mu      sync.Mutex
	session remote.Session

	dirs    map[string][]fs.Entry
	listErr map[string]error
	files   map[string][]byte
	opErr   map[string]error // keyed by "op path"

	calls []string

	search        func(ctx context.Context, req remote.SearchRequest) ([]remote.SearchResult, error)
	uploadResults []remote.UploadResult
	uploadErr     error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		session: remote.Session{ConnectionID: "c1", Token: "t1"},
		dirs:    map[string][]fs.Entry{"/": nil},
		listErr: map[string]error{},
		files:   map[string][]byte{},
		opErr:   map[string]error{},
	}
}

func dirEntry(p string) fs.Entry {
	return fs.Entry{Path: p, Name: fs.Base(p), Type: fs.TypeDirectory}
}

func fileEntry(p string, size uint64) fs.Entry {
	return fs.Entry{Path: p, Name: fs.Base(p), Type: fs.TypeFile, Size: size, Permissions: "rw-r--r--"}
}

func (g *fakeGateway) setDir(p string, entries ...fs.Entry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sorted := append([]fs.Entry(nil), entries...)
	fs.SortEntries(sorted)
	g.dirs[p] = sorted
}

func (g *fakeGateway) record(op, p string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := op + " " + p
	g.calls = append(g.calls, key)
	return g.opErr[key]
}

func (g *fakeGateway) callsFor(op string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, c := range g.calls {
		if len(c) > len(op) && c[:len(op)+1] == op+" " {
			out = append(out, c[len(op)+1:])
		}
	}
	sort.Strings(out)
	return out
}

func (g *fakeGateway) Session() remote.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

func (g *fakeGateway) SetSession(s remote.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = s
}

func (g *fakeGateway) List(ctx context.Context, dir string) ([]fs.Entry, error) {
	if err := g.record("list", dir); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.listErr[dir]; ok {
		return nil, err
	}
	entries, ok := g.dirs[dir]
	if !ok {
		return nil, &remote.Error{Op: "list", Path: dir, Kind: remote.KindNotFound, Status: http.StatusNotFound, Message: "no such file or directory"}
	}
	return append([]fs.Entry(nil), entries...), nil
}

func (g *fakeGateway) Read(ctx context.Context, p string) (remote.Content, error) {
	if err := g.record("read", p); err != nil {
		return remote.Content{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	data, ok := g.files[p]
	if !ok {
		return remote.Content{}, &remote.Error{Op: "read", Path: p, Kind: remote.KindNotFound, Status: http.StatusNotFound}
	}
	return remote.Content{Data: data}, nil
}

func (g *fakeGateway) Create(ctx context.Context, p, content string) error {
	return g.record("create", p)
}

func (g *fakeGateway) Write(ctx context.Context, p, content string) error {
	if err := g.record("write", p); err != nil {
		return err
	}
	g.mu.Lock()
	g.files[p] = []byte(content)
	g.mu.Unlock()
	return nil
}

func (g *fakeGateway) Delete(ctx context.Context, p string) error {
	return g.record("delete", p)
}

func (g *fakeGateway) Rename(ctx context.Context, oldPath, newPath string) error {
	return g.record("rename", oldPath+"->"+newPath)
}

func (g *fakeGateway) Mkdir(ctx context.Context, p string) error {
	return g.record("mkdir", p)
}

func (g *fakeGateway) Chmod(ctx context.Context, p, mode string) error {
	return g.record("chmod", p+"="+mode)
}

func (g *fakeGateway) Download(ctx context.Context, p string) (remote.Content, error) {
	if err := g.record("download", p); err != nil {
		return remote.Content{}, err
	}
	return remote.Content{Data: []byte("data of " + p)}, nil
}

func (g *fakeGateway) DownloadBundle(ctx context.Context, paths []string) (remote.Content, error) {
	for _, p := range paths {
		_ = g.record("bundle", p)
	}
	return remote.Content{Data: []byte("PK"), ContentType: "application/zip"}, nil
}

func (g *fakeGateway) Search(ctx context.Context, req remote.SearchRequest) ([]remote.SearchResult, error) {
	_ = g.record("search", req.Query)
	if g.search != nil {
		return g.search(ctx, req)
	}
	return nil, nil
}

func (g *fakeGateway) Upload(ctx context.Context, dest string, files []remote.UploadFile, progress remote.ProgressFunc) ([]remote.UploadResult, error) {
	for i, f := range files {
		_ = g.record("upload", fs.Join(dest, f.Name))
		if progress != nil {
			progress(i, 50)
		}
	}
	return g.uploadResults, g.uploadErr
}

// recordingSink keeps saved downloads in memory.
type recordingSink struct {
	mu    sync.Mutex
	saved map[string][]byte
}

func (s *recordingSink) Save(name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[name] = data
	return "/downloads/" + name, nil
}

type fakeTimers struct {
	fns     []func()
	stopped int
}

type fakeTimer struct {
	owner *fakeTimers
}

func (t fakeTimer) Stop() bool {
	t.owner.stopped++
	return true
}

func (f *fakeTimers) after(_ time.Duration, fn func()) Timer {
	f.fns = append(f.fns, fn)
	return fakeTimer{owner: f}
}

type harness struct {
	t      *testing.T
	gw     *fakeGateway
	r      *StateReducer
	state  *AppState
	sink   *recordingSink
	timers *fakeTimers
	queue  chan Action
}

// newHarness builds a synchronous engine: every request runs inline.
func newHarness(t *testing.T, gw *fakeGateway) *harness {
	t.Helper()
	h := &harness{t: t, gw: gw, sink: &recordingSink{}, timers: &fakeTimers{}}
	h.r = NewStateReducer(Deps{
		Gateway:   gw,
		Sink:      h.sink,
		Logger:    zerolog.Nop(),
		AfterFunc: h.timers.after,
	})
	h.state = NewAppState("/")
	h.state.ScreenHeight = 40
	if err := h.r.Init(h.state); err != nil {
		t.Fatalf("init: %v", err)
	}
	return h
}

// newAsyncHarness installs a queued dispatcher so tests decide when each
// background result is reduced.
func newAsyncHarness(t *testing.T, gw *fakeGateway) *harness {
	t.Helper()
	h := &harness{t: t, gw: gw, sink: &recordingSink{}, timers: &fakeTimers{}, queue: make(chan Action, 64)}
	h.r = NewStateReducer(Deps{
		Gateway:   gw,
		Sink:      h.sink,
		Logger:    zerolog.Nop(),
		AfterFunc: h.timers.after,
	})
	h.state = NewAppState("/")
	h.state.ScreenHeight = 40
	h.state.SetDispatch(func(a Action) { h.queue <- a })
	return h
}

func (h *harness) do(a Action) {
	h.t.Helper()
	if _, err := h.r.Reduce(h.state, a); err != nil {
		h.t.Fatalf("reduce %T: %v", a, err)
	}
}

// next waits for the next dispatched action without reducing it.
func (h *harness) next() Action {
	h.t.Helper()
	select {
	case a := <-h.queue:
		return a
	case <-time.After(2 * time.Second):
		h.t.Fatalf("timed out waiting for dispatched action")
		return nil
	}
}

// step reduces the next dispatched action.
func (h *harness) step() Action {
	h.t.Helper()
	a := h.next()
	h.do(a)
	return a
}

func (h *harness) expectQuiet(d time.Duration) {
	h.t.Helper()
	select {
	case a := <-h.queue:
		h.t.Fatalf("unexpected dispatched action %T", a)
	case <-time.After(d):
	}
}

func (h *harness) lastNotice() Notice {
	h.t.Helper()
	if len(h.state.Notices) == 0 {
		h.t.Fatalf("expected a notice")
	}
	return h.state.Notices[len(h.state.Notices)-1]
}
