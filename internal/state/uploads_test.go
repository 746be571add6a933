package state

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/upload"
)

func memFile(name, content string) upload.File {
	return upload.File{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestUploadAddRejectsAndOpensPanel(t *testing.T) {
	h := newHarness(t, treeGateway())

	h.do(UploadAddAction{Files: []upload.File{memFile("a.txt", "a"), memFile("setup.exe", "MZ")}})

	if !h.state.UploadPanel {
		t.Fatalf("accepted files should open the upload panel")
	}
	if h.r.Uploads().Len() != 1 {
		t.Fatalf("batch size = %d", h.r.Uploads().Len())
	}
	var rejected bool
	for _, n := range h.state.Notices {
		if n.Kind == remote.KindValidation && strings.HasPrefix(n.Message, "setup.exe") {
			rejected = true
		}
	}
	if !rejected {
		t.Fatalf("expected a rejection notice for setup.exe, got %+v", h.state.Notices)
	}
	if h.state.InputMode() != ModeUpload {
		t.Fatalf("input mode = %v", h.state.InputMode())
	}
}

func TestUploadBatchReportsPartialSuccessAndReloads(t *testing.T) {
	gw := treeGateway()
	gw.uploadResults = []remote.UploadResult{
		{Name: "a.txt", Path: "/a.txt", Success: true},
		{Name: "b.txt", Success: false, Error: "disk full"},
	}
	h := newHarness(t, gw)
	before := len(gw.callsFor("list"))

	h.do(UploadAddAction{Files: []upload.File{memFile("a.txt", "a"), memFile("b.txt", "bb")}})
	h.do(UploadStartAction{})

	if calls := gw.callsFor("upload"); !reflect.DeepEqual(calls, []string{"/a.txt", "/b.txt"}) {
		t.Fatalf("upload calls = %v", calls)
	}
	items := h.r.Uploads().Items()
	if items[0].Status != upload.StatusSuccess || items[1].Status != upload.StatusError || items[1].Error != "disk full" {
		t.Fatalf("items = %+v", items)
	}
	if n := h.lastNotice(); n.Message != "Uploaded 1 of 2 files, 1 failed" {
		t.Fatalf("notice = %q", n.Message)
	}
	if len(gw.callsFor("list")) != before+1 {
		t.Fatalf("upload into the current directory must reload")
	}

	h.do(UploadClearCompletedAction{})
	if h.r.Uploads().Len() != 1 {
		t.Fatalf("clear completed should keep the failed item")
	}
}

func TestUploadElsewhereDoesNotReload(t *testing.T) {
	gw := treeGateway()
	gw.uploadResults = []remote.UploadResult{{Name: "a.txt", Path: "/src/a.txt", Success: true}}
	h := newHarness(t, gw)
	before := len(gw.callsFor("list"))

	h.do(UploadAddAction{Files: []upload.File{memFile("a.txt", "a")}})
	h.do(UploadStartAction{Dest: "/src"})

	if len(gw.callsFor("list")) != before {
		t.Fatalf("upload into another directory must not reload the listing")
	}
	if n := h.lastNotice(); n.Message != "Uploaded 1 file" {
		t.Fatalf("notice = %q", n.Message)
	}
}

func TestUploadStartWithNothingPending(t *testing.T) {
	h := newHarness(t, treeGateway())
	h.do(UploadStartAction{})

	if calls := h.gw.callsFor("upload"); len(calls) != 0 {
		t.Fatalf("upload calls = %v", calls)
	}
	if n := h.lastNotice(); n.Message != "Nothing to upload" {
		t.Fatalf("notice = %q", n.Message)
	}
}

func TestUploadResetDropsInFlightResults(t *testing.T) {
	gw := treeGateway()
	gw.uploadResults = []remote.UploadResult{{Name: "a.txt", Path: "/a.txt", Success: true}}
	h := newAsyncHarness(t, gw)
	h.do(ConnectAction{Session: gw.session})
	h.step()

	h.do(UploadAddAction{Files: []upload.File{memFile("a.txt", "a")}})
	h.do(UploadStartAction{})

	var finished UploadFinishedAction
	for {
		a := h.next()
		if f, ok := a.(UploadFinishedAction); ok {
			finished = f
			break
		}
		h.do(a)
	}
	h.do(UploadResetAction{})
	notices := len(h.state.Notices)
	h.do(finished)

	if h.r.Uploads().Len() != 0 || len(h.state.Notices) != notices {
		t.Fatalf("results of a reset batch were applied")
	}
	if h.state.Busy != 0 {
		t.Fatalf("busy = %d", h.state.Busy)
	}
}

func TestUploadProgressDispatched(t *testing.T) {
	gw := treeGateway()
	gw.uploadResults = []remote.UploadResult{{Name: "a.txt", Success: true}}
	h := newAsyncHarness(t, gw)
	h.do(ConnectAction{Session: gw.session})
	h.step()

	h.do(UploadAddAction{Files: []upload.File{memFile("a.txt", "a")}})
	h.do(UploadStartAction{})

	progress, ok := h.next().(UploadProgressAction)
	if !ok {
		t.Fatalf("expected a progress action first")
	}
	h.do(progress)
	if got := h.r.Uploads().Items()[0].Progress; got != 50 {
		t.Fatalf("progress = %d", got)
	}
	h.step()
	if got := h.r.Uploads().Items()[0].Status; got != upload.StatusSuccess {
		t.Fatalf("status = %q", got)
	}
}

func TestUploadPathsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "local.txt")
	if err := os.WriteFile(path, []byte("local"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := newHarness(t, treeGateway())

	h.do(UploadPathsAction{Paths: []string{path, filepath.Join(dir, "missing.txt"), dir}})

	items := h.r.Uploads().Items()
	if len(items) != 1 || items[0].File.Name != "local.txt" || items[0].File.Size != 5 {
		t.Fatalf("items = %+v", items)
	}
	var rejected int
	for _, n := range h.state.Notices {
		if n.Kind == remote.KindValidation {
			rejected++
		}
	}
	if rejected != 2 {
		t.Fatalf("expected two rejection notices, got %+v", h.state.Notices)
	}
}
