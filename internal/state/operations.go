package state

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"golang.org/x/sync/errgroup"
)

// mutate runs one mutating request. Success reloads the listing, failure is
// classified and surfaced; nothing is retried.
func (r *StateReducer) mutate(state *AppState, op, p, success, focus string, call func(ctx context.Context) error) error {
	state.Busy++
	ctx := r.ctx
	return r.spawn(state, func() Action {
		return OperationFinishedAction{Op: op, Path: p, Message: success, Focus: focus, Err: call(ctx)}
	})
}

func (r *StateReducer) finishOperation(state *AppState, a OperationFinishedAction) error {
	state.Busy = max(0, state.Busy-1)
	if a.Err != nil {
		r.surface(state, a.Op, a.Path, a.Err)
		return nil
	}
	r.log.Info().Str("op", a.Op).Str("path", a.Path).Msg("operation succeeded")
	if a.Message != "" {
		r.notify(state, NoticeInfo, "", a.Message)
	}
	if a.Focus != "" && fs.Parent(a.Focus) == state.CurrentPath {
		state.pendingFocus = a.Focus
	}
	return r.reload(state)
}

func (r *StateReducer) createFile(state *AppState, p, content string) error {
	p = fs.Clean(p)
	if err := fs.ValidateName(fs.Base(p)); err != nil {
		r.rejectInput(state, err)
		return nil
	}
	gw := r.gw
	return r.mutate(state, "create", p, "Created "+fs.Base(p), p, func(ctx context.Context) error {
		return gw.Create(ctx, p, content)
	})
}

func (r *StateReducer) createFolder(state *AppState, p string) error {
	p = fs.Clean(p)
	if err := fs.ValidateName(fs.Base(p)); err != nil {
		r.rejectInput(state, err)
		return nil
	}
	gw := r.gw
	return r.mutate(state, "mkdir", p, "Created folder "+fs.Base(p), p, func(ctx context.Context) error {
		return gw.Mkdir(ctx, p)
	})
}

// rename validates newName before any request is made.
func (r *StateReducer) rename(state *AppState, p, newName string) error {
	p = fs.Clean(p)
	current := fs.Base(p)
	if err := fs.ValidateRename(current, newName); err != nil {
		r.rejectInput(state, err)
		return nil
	}
	name := fs.NormalizeName(newName)
	target := fs.Join(fs.Parent(p), name)
	gw := r.gw
	return r.mutate(state, "rename", p, fmt.Sprintf("Renamed %s to %s", current, name), target, func(ctx context.Context) error {
		return gw.Rename(ctx, p, target)
	})
}

// chmod rejects anything but a 3-digit octal mode before any request is made.
func (r *StateReducer) chmod(state *AppState, p, mode string) error {
	p = fs.Clean(p)
	if err := fs.ValidateOctal(mode); err != nil {
		r.rejectInput(state, err)
		return nil
	}
	gw := r.gw
	return r.mutate(state, "chmod", p, fmt.Sprintf("Changed mode of %s to %s", fs.Base(p), mode), p, func(ctx context.Context) error {
		return gw.Chmod(ctx, p, mode)
	})
}

func (r *StateReducer) requestDelete(state *AppState, paths []string) {
	if len(paths) == 0 {
		r.notify(state, NoticeWarn, "", ReasonNothingSelected)
		return
	}
	cleaned := make([]string, len(paths))
	entries := make([]fs.Entry, 0, len(paths))
	for i, p := range paths {
		cleaned[i] = fs.Clean(p)
		if e, ok := state.EntryByPath(cleaned[i]); ok {
			entries = append(entries, e)
		}
	}
	r.confirm(state, deletePrompt(cleaned, StatsOf(entries)), deleteConfirmedAction{Paths: cleaned})
}

func deletePrompt(paths []string, st SelectionStats) string {
	if len(paths) == 1 {
		return fmt.Sprintf("Delete %s?", fs.Base(paths[0]))
	}
	prompt := fmt.Sprintf("Delete %s", plural(len(paths), "item"))
	if st.HasDirectories && st.TotalSize > 0 {
		prompt += fmt.Sprintf(" (directories included, files total %s)", humanize.IBytes(st.TotalSize))
	} else if st.HasDirectories {
		prompt += " (directories included)"
	} else if st.TotalSize > 0 {
		prompt += fmt.Sprintf(" (%s)", humanize.IBytes(st.TotalSize))
	}
	return prompt + "?"
}

// deletePaths issues every deletion at once and waits for all of them to
// settle, so partial failure can be reported.
func (r *StateReducer) deletePaths(state *AppState, paths []string) error {
	state.Busy++
	gw, ctx := r.gw, r.ctx
	return r.spawn(state, func() Action {
		errs := make([]error, len(paths))
		var g errgroup.Group
		for i, p := range paths {
			g.Go(func() error {
				errs[i] = gw.Delete(ctx, p)
				return nil
			})
		}
		_ = g.Wait()
		return DeleteFinishedAction{Paths: paths, Errs: errs}
	})
}

func (r *StateReducer) finishDelete(state *AppState, a DeleteFinishedAction) error {
	state.Busy = max(0, state.Busy-1)

	var failed []int
	for i, err := range a.Errs {
		if err != nil && !remote.IsCanceled(err) {
			failed = append(failed, i)
		}
		if err == nil && state.Viewer != nil && state.Viewer.Entry.Path == a.Paths[i] {
			r.closeViewer(state)
		}
	}
	total := len(a.Paths)
	succeeded := total - len(failed)

	r.log.Info().Int("succeeded", succeeded).Int("failed", len(failed)).Msg("delete batch settled")

	switch {
	case len(failed) == 0:
		r.notify(state, NoticeInfo, "", "Deleted "+plural(total, "item"))
	case succeeded == 0:
		first := a.Errs[failed[0]]
		kind := remote.KindOf(first)
		if kind.Persistent() {
			state.Alert = &Alert{Kind: kind, Path: a.Paths[failed[0]], Message: describe(first)}
		}
		r.notify(state, NoticeError, kind, fmt.Sprintf("Failed to delete %s: %s", plural(total, "item"), describe(first)))
		return nil
	default:
		first := a.Errs[failed[0]]
		r.notify(state, NoticeWarn, remote.KindOf(first), fmt.Sprintf("Deleted %d of %d items, %d failed (%s: %s)",
			succeeded, total, len(failed), fs.Base(a.Paths[failed[0]]), describe(first)))
	}
	return r.reload(state)
}

// download saves a single file directly and anything larger as one zip
// bundle. Directories are never downloadable.
func (r *StateReducer) download(state *AppState, paths []string) error {
	if len(paths) == 0 {
		r.notify(state, NoticeWarn, "", ReasonNothingSelected)
		return nil
	}
	cleaned := make([]string, len(paths))
	for i, p := range paths {
		cleaned[i] = fs.Clean(p)
		if e, ok := state.EntryByPath(cleaned[i]); ok && e.IsDir() {
			r.notify(state, NoticeWarn, "", ReasonDirectorySelected)
			return nil
		}
	}

	state.Busy++
	gw, sink, ctx := r.gw, r.sink, r.ctx
	bundle := bundleName(state.CurrentPath)
	return r.spawn(state, func() Action {
		var (
			content remote.Content
			name    string
			err     error
		)
		if len(cleaned) == 1 {
			name = fs.Base(cleaned[0])
			content, err = gw.Download(ctx, cleaned[0])
		} else {
			name = bundle
			content, err = gw.DownloadBundle(ctx, cleaned)
		}
		if err != nil {
			return DownloadFinishedAction{Paths: cleaned, Err: err}
		}
		saved, err := sink.Save(name, bytes.NewReader(content.Data))
		return DownloadFinishedAction{Paths: cleaned, SavedPath: saved, Err: err}
	})
}

func (r *StateReducer) finishDownload(state *AppState, a DownloadFinishedAction) {
	state.Busy = max(0, state.Busy-1)
	if a.Err != nil {
		p := ""
		if len(a.Paths) == 1 {
			p = a.Paths[0]
		}
		r.surface(state, "download", p, a.Err)
		return
	}
	msg := "Downloaded " + plural(len(a.Paths), "file")
	if a.SavedPath != "" {
		msg += " to " + a.SavedPath
	}
	r.notify(state, NoticeInfo, "", msg)
}

func bundleName(dir string) string {
	if fs.IsRoot(dir) {
		return "download.zip"
	}
	return fs.Base(dir) + ".zip"
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
