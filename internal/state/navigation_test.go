package state

import (
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/upload"
)

func treeGateway() *fakeGateway {
	gw := newFakeGateway()
	gw.setDir("/", dirEntry("/src"), fileEntry("/readme.txt", 120), fileEntry("/x.exe", 2048))
	gw.setDir("/src", dirEntry("/src/lib"), fileEntry("/src/main.go", 300))
	gw.setDir("/src/lib", fileEntry("/src/lib/util.go", 40))
	return gw
}

func TestInitWithoutSessionWaits(t *testing.T) {
	gw := treeGateway()
	gw.session = remote.Session{}
	h := newHarness(t, gw)

	if h.state.Connected {
		t.Fatalf("expected waiting state without a session")
	}
	if calls := gw.callsFor("list"); len(calls) != 0 {
		t.Fatalf("expected no listing before connect, got %v", calls)
	}

	h.do(NavigateAction{Path: "/src"})
	if len(gw.callsFor("list")) != 0 {
		t.Fatalf("navigation must not issue requests while disconnected")
	}

	h.do(ConnectAction{Session: remote.Session{ConnectionID: "c", Token: "t"}})
	if !h.state.Connected || len(h.state.Entries) != 3 {
		t.Fatalf("expected root listing after connect, got connected=%v entries=%d", h.state.Connected, len(h.state.Entries))
	}
}

func TestNavigateBackForward(t *testing.T) {
	h := newHarness(t, treeGateway())

	if h.state.CanGoBack() || h.state.CanGoForward() {
		t.Fatalf("fresh history must not allow back or forward")
	}

	h.do(NavigateAction{Path: "/src"})
	h.do(NavigateAction{Path: "/src/lib"})
	if h.state.CurrentPath != "/src/lib" {
		t.Fatalf("current path = %q", h.state.CurrentPath)
	}

	h.do(BackAction{})
	if h.state.CurrentPath != "/src" {
		t.Fatalf("back: current path = %q, want /src", h.state.CurrentPath)
	}
	if len(h.state.Entries) != 2 {
		t.Fatalf("back should reload /src, got %d entries", len(h.state.Entries))
	}
	if !h.state.CanGoForward() {
		t.Fatalf("expected forward after back")
	}

	h.do(ForwardAction{})
	if h.state.CurrentPath != "/src/lib" {
		t.Fatalf("forward: current path = %q", h.state.CurrentPath)
	}

	h.do(BackAction{})
	h.do(BackAction{})
	if h.state.CurrentPath != "/" || h.state.CanGoBack() {
		t.Fatalf("expected to be at the oldest entry, got %q", h.state.CurrentPath)
	}
	h.do(BackAction{})
	if h.state.CurrentPath != "/" {
		t.Fatalf("back at the oldest entry must be a no-op")
	}
}

func TestNavigateTruncatesForwardHistory(t *testing.T) {
	h := newHarness(t, treeGateway())

	h.do(NavigateAction{Path: "/src"})
	h.do(NavigateAction{Path: "/src/lib"})
	h.do(BackAction{})
	h.do(BackAction{})
	h.do(NavigateAction{Path: "/src/lib"})

	want := []string{"/", "/src/lib"}
	if !reflect.DeepEqual(h.state.History, want) {
		t.Fatalf("history = %v, want %v", h.state.History, want)
	}
	if h.state.CanGoForward() {
		t.Fatalf("forward history should have been discarded")
	}
}

func TestNavigateToCurrentPathDoesNotDuplicateHistory(t *testing.T) {
	h := newHarness(t, treeGateway())
	h.do(NavigateAction{Path: "/src"})
	h.do(NavigateAction{Path: "/src/"})

	if len(h.state.History) != 2 {
		t.Fatalf("history = %v", h.state.History)
	}
}

func TestUpFocusesPreviousDirectory(t *testing.T) {
	gw := treeGateway()
	gw.setDir("/", dirEntry("/docs"), dirEntry("/src"), fileEntry("/readme.txt", 120))
	h := newHarness(t, gw)
	h.do(NavigateAction{Path: "/src"})
	h.do(UpAction{})

	if h.state.CurrentPath != "/" {
		t.Fatalf("current path = %q", h.state.CurrentPath)
	}
	entry, ok := h.state.CursorEntry()
	if !ok || entry.Path != "/src" || h.state.Cursor != 1 {
		t.Fatalf("cursor entry = %+v, want /src", entry)
	}

	before := len(h.gw.callsFor("list"))
	h.do(UpAction{})
	if len(h.gw.callsFor("list")) != before {
		t.Fatalf("up at root must not reload")
	}
}

func TestEnterOpensDirectoryOrViewer(t *testing.T) {
	gw := treeGateway()
	gw.files["/readme.txt"] = []byte("hello")
	h := newHarness(t, gw)

	h.do(EnterAction{})
	if h.state.CurrentPath != "/src" {
		t.Fatalf("enter on a directory should navigate, at %q", h.state.CurrentPath)
	}

	h.do(BackAction{})
	h.do(CursorMoveAction{Delta: 1})
	h.do(EnterAction{})
	if h.state.Viewer == nil || h.state.Viewer.Text != "hello" {
		t.Fatalf("enter on a file should open the viewer, got %+v", h.state.Viewer)
	}
}

func TestPermissionDeniedStaysOnPath(t *testing.T) {
	gw := treeGateway()
	gw.listErr["/root"] = &remote.Error{Op: "list", Path: "/root", Kind: remote.KindPermission, Status: http.StatusForbidden, Message: "Permission denied"}
	h := newHarness(t, gw)

	h.do(NavigateAction{Path: "/root"})

	if h.state.CurrentPath != "/root" {
		t.Fatalf("current path = %q, want /root", h.state.CurrentPath)
	}
	if h.state.Listing.Kind != remote.KindPermission || h.state.Listing.Err == nil {
		t.Fatalf("listing error = %v kind=%q", h.state.Listing.Err, h.state.Listing.Kind)
	}
	if h.state.Alert == nil || h.state.Alert.Kind != remote.KindPermission || h.state.Alert.Path != "/root" {
		t.Fatalf("expected permission alert, got %+v", h.state.Alert)
	}
	if !reflect.DeepEqual(h.state.History, []string{"/", "/root"}) {
		t.Fatalf("history = %v", h.state.History)
	}
	if calls := gw.callsFor("list"); len(calls) != 2 {
		t.Fatalf("permission failure must not fall back, list calls = %v", calls)
	}

	h.do(RequestAccessAction{})
	if n := h.lastNotice(); n.Message != "Access request recorded for /root" {
		t.Fatalf("notice = %q", n.Message)
	}

	h.do(BackAction{})
	if h.state.Alert != nil || h.state.Listing.Err != nil {
		t.Fatalf("moving away must clear the error state")
	}
}

func TestNotFoundFallsBackToParent(t *testing.T) {
	h := newHarness(t, treeGateway())

	h.do(NavigateAction{Path: "/src/gone"})

	if h.state.CurrentPath != "/src" {
		t.Fatalf("current path = %q, want /src", h.state.CurrentPath)
	}
	if h.state.Listing.Err != nil || len(h.state.Entries) != 2 {
		t.Fatalf("expected /src listing, err=%v entries=%d", h.state.Listing.Err, len(h.state.Entries))
	}
	if !reflect.DeepEqual(h.state.History, []string{"/", "/src"}) {
		t.Fatalf("history = %v, want the vanished entry replaced", h.state.History)
	}
	if n := h.lastNotice(); n.Kind != remote.KindNotFound {
		t.Fatalf("notice kind = %q", n.Kind)
	}
}

func TestNotFoundCascadesUpward(t *testing.T) {
	h := newHarness(t, treeGateway())

	h.do(NavigateAction{Path: "/a/b/c"})

	if h.state.CurrentPath != "/" {
		t.Fatalf("current path = %q, want /", h.state.CurrentPath)
	}
	want := []string{"/a/b/c", "/a/b", "/a", "/"}
	got := h.gw.calls[1:]
	for i, p := range want {
		if got[i] != "list "+p {
			t.Fatalf("call %d = %q, want list %s", i, got[i], p)
		}
	}
	if !reflect.DeepEqual(h.state.History, []string{"/"}) {
		t.Fatalf("history = %v", h.state.History)
	}
}

func TestNetworkFailureOfRecoveryStops(t *testing.T) {
	gw := treeGateway()
	netErr := &remote.Error{Op: "list", Kind: remote.KindNetwork}
	gw.listErr["/a/b"] = netErr
	gw.listErr["/a"] = netErr
	h := newHarness(t, gw)

	h.do(NavigateAction{Path: "/a/b"})

	if h.state.CurrentPath != "/a" {
		t.Fatalf("current path = %q, want /a", h.state.CurrentPath)
	}
	if h.state.Listing.Kind != remote.KindNetwork {
		t.Fatalf("listing kind = %q", h.state.Listing.Kind)
	}
	if h.state.Alert != nil {
		t.Fatalf("network failures must not raise an alert")
	}
}

func TestRootFailureDoesNotRecover(t *testing.T) {
	gw := treeGateway()
	gw.listErr["/"] = &remote.Error{Op: "list", Kind: remote.KindNotFound, Status: http.StatusNotFound}
	h := newHarness(t, gw)

	if h.state.Listing.Kind != remote.KindNotFound {
		t.Fatalf("listing kind = %q", h.state.Listing.Kind)
	}
	if calls := gw.callsFor("list"); len(calls) != 1 {
		t.Fatalf("list calls = %v", calls)
	}
}

func TestSessionExpiredRaisesAlertUntilReconnect(t *testing.T) {
	gw := treeGateway()
	gw.listErr["/src"] = &remote.Error{Op: "list", Kind: remote.KindSessionExpired, Status: http.StatusUnauthorized}
	h := newHarness(t, gw)

	h.do(NavigateAction{Path: "/src"})
	if h.state.Alert == nil || h.state.Alert.Kind != remote.KindSessionExpired {
		t.Fatalf("expected session alert, got %+v", h.state.Alert)
	}

	delete(gw.listErr, "/src")
	h.do(PromptOpenAction{Kind: PromptReconnect})
	for _, r := range "fresh" {
		h.do(PromptCharAction{Char: r})
	}
	h.do(PromptSubmitAction{})

	if h.state.Alert != nil {
		t.Fatalf("reconnect should clear the session alert")
	}
	if gw.Session().Token != "fresh" || len(h.state.Entries) != 2 {
		t.Fatalf("expected /src reloaded with the new token, token=%q entries=%d", gw.Session().Token, len(h.state.Entries))
	}
}

func TestStaleListingIsDiscarded(t *testing.T) {
	h := newAsyncHarness(t, treeGateway())
	h.do(ConnectAction{Session: h.gw.session})
	h.step()

	h.do(NavigateAction{Path: "/src"})
	first := h.next().(DirectoryLoadedAction)
	h.do(NavigateAction{Path: "/src/lib"})
	second := h.next().(DirectoryLoadedAction)

	h.do(second)
	h.do(first)

	if h.state.CurrentPath != "/src/lib" || len(h.state.Entries) != 1 || h.state.Entries[0].Name != "util.go" {
		t.Fatalf("late result overwrote the listing: path=%q entries=%v", h.state.CurrentPath, h.state.Entries)
	}
}

func TestReloadWhileLoadingIsCoalesced(t *testing.T) {
	h := newAsyncHarness(t, treeGateway())
	h.do(ConnectAction{Session: h.gw.session})

	h.do(RefreshAction{})
	h.do(RefreshAction{})
	h.do(RefreshAction{})

	h.step()
	h.step()
	h.expectQuiet(50 * time.Millisecond)

	if calls := h.gw.callsFor("list"); len(calls) != 2 {
		t.Fatalf("expected one follow-up load, got %v", calls)
	}
	if h.state.Listing.Loading {
		t.Fatalf("listing should be settled")
	}
}

func TestDisconnectDropsInFlightListing(t *testing.T) {
	h := newAsyncHarness(t, treeGateway())
	h.do(ConnectAction{Session: h.gw.session})
	h.step()

	h.do(NavigateAction{Path: "/src"})
	pending := h.next()
	h.do(DisconnectAction{})
	h.do(pending)

	if h.state.Connected {
		t.Fatalf("expected disconnected state")
	}
	if h.state.Listing.Loading || len(h.state.Entries) != 0 {
		t.Fatalf("in-flight listing applied after disconnect: %v", h.state.Entries)
	}
}

func TestDisconnectClosesViewerAndDropsItsLoad(t *testing.T) {
	h := newAsyncHarness(t, viewerGateway(t))
	h.do(ConnectAction{Session: h.gw.session})
	h.step()

	h.do(ViewerOpenAction{Path: "/logo.png"})
	pending := h.next()
	h.do(DisconnectAction{})
	h.do(pending)

	if h.state.Viewer != nil {
		t.Fatalf("viewer left open after disconnect")
	}
	if n := h.r.Blobs().Live(); n != 0 {
		t.Fatalf("%d preview handles still live", n)
	}
}

func TestDisconnectKeepsUnsavedEdits(t *testing.T) {
	h := newHarness(t, viewerGateway(t))
	h.do(ViewerOpenAction{Path: "/notes.txt"})
	h.do(ViewerSetTextAction{Text: "hello, edited"})

	h.do(DisconnectAction{})

	if v := h.state.Viewer; v == nil || v.Text != "hello, edited" || !v.Dirty() {
		t.Fatalf("unsaved buffer lost: %+v", v)
	}
}

func TestDisconnectFailsInFlightUpload(t *testing.T) {
	gw := treeGateway()
	gw.uploadResults = []remote.UploadResult{{Name: "a.txt", Path: "/a.txt", Success: true}}
	h := newAsyncHarness(t, gw)
	h.do(ConnectAction{Session: gw.session})
	h.step()

	h.do(UploadAddAction{Files: []upload.File{memFile("a.txt", "a")}})
	h.do(UploadStartAction{})
	h.do(DisconnectAction{})

	for {
		if _, done := h.step().(UploadFinishedAction); done {
			break
		}
	}

	items := h.r.Uploads().Items()
	if len(items) != 1 || items[0].Status != upload.StatusError || items[0].Error != sessionClosed {
		t.Fatalf("items = %+v", items)
	}
	if h.state.Busy != 0 {
		t.Fatalf("busy = %d after the late result", h.state.Busy)
	}
	if n := h.lastNotice(); !strings.HasPrefix(n.Message, "Upload stopped") {
		t.Fatalf("notice = %q", n.Message)
	}
}
