package state

import (
	"fmt"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/upload"
)

const sessionClosed = "session closed before the upload finished"

func (r *StateReducer) addUploads(state *AppState, files []upload.File) {
	if len(files) == 0 {
		return
	}
	rejections := r.uploads.Add(files...)
	for _, rej := range rejections {
		r.notify(state, NoticeWarn, remote.KindValidation, rej.Error())
	}
	if accepted := len(files) - len(rejections); accepted > 0 {
		state.UploadPanel = true
		r.notify(state, NoticeInfo, "", fmt.Sprintf("Added %s to upload", plural(accepted, "file")))
	}
}

func (r *StateReducer) addUploadPaths(state *AppState, paths []string) {
	files := make([]upload.File, 0, len(paths))
	for _, p := range paths {
		f, err := upload.FromPath(p)
		if err != nil {
			r.rejectInput(state, err)
			continue
		}
		files = append(files, f)
	}
	r.addUploads(state, files)
}

func (r *StateReducer) startUpload(state *AppState, dest string) error {
	if dest == "" {
		dest = state.CurrentPath
	}
	batch, ok := r.uploads.Begin(fs.Clean(dest))
	if !ok {
		if r.uploads.Uploading() {
			r.notify(state, NoticeWarn, "", "An upload is already running")
		} else {
			r.notify(state, NoticeWarn, "", "Nothing to upload")
		}
		return nil
	}

	r.log.Info().Str("dest", batch.Dest).Int("files", len(batch.Files)).Msg("upload started")

	state.Busy++
	ctx, token := r.upload.Begin(r.ctx)
	gw, pipeline, scope := r.gw, r.uploads, &r.upload
	dispatch := state.getDispatch()
	progress := func(index, percent int) {
		if dispatch != nil {
			dispatch(UploadProgressAction{Generation: batch.Generation, Index: index, Percent: percent})
			return
		}
		pipeline.SetProgress(batch.Generation, index, percent)
	}
	return r.spawn(state, func() Action {
		results, err := gw.Upload(ctx, batch.Dest, batch.Files, progress)
		scope.Finish(token)
		return UploadFinishedAction{Generation: batch.Generation, Dest: batch.Dest, Results: results, Err: err}
	})
}

func (r *StateReducer) finishUpload(state *AppState, a UploadFinishedAction) error {
	state.Busy = max(0, state.Busy-1)
	sum, ok := r.uploads.Complete(a.Generation, a.Results, a.Err)
	if !ok {
		return nil
	}
	if a.Err != nil {
		r.surface(state, "upload", a.Dest, a.Err)
		return nil
	}

	total := sum.Succeeded + sum.Failed
	switch {
	case sum.Failed == 0:
		r.notify(state, NoticeInfo, "", "Uploaded "+plural(total, "file"))
	case sum.Succeeded == 0:
		r.notify(state, NoticeError, "", "Upload failed for "+plural(total, "file"))
		return nil
	default:
		r.notify(state, NoticeWarn, "", fmt.Sprintf("Uploaded %d of %d files, %d failed", sum.Succeeded, total, sum.Failed))
	}
	if a.Dest == state.CurrentPath {
		return r.reload(state)
	}
	return nil
}
