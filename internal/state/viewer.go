package state

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
)

const (
	hexPreviewMaxBytes  = 1024
	hexPreviewLineWidth = 16
)

// openViewer replaces any open viewer, releasing its preview handle, and
// fetches the content of entry.
func (r *StateReducer) openViewer(state *AppState, entry fs.Entry) error {
	r.closeViewer(state)

	ctx, token := r.viewer.Begin(r.ctx)
	state.Viewer = &Viewer{
		Entry:    entry,
		Category: fs.CategoryOf(entry.Name),
		Loading:  true,
		token:    token,
	}

	gw, p := r.gw, entry.Path
	return r.spawn(state, func() Action {
		content, err := gw.Read(ctx, p)
		return ViewerLoadedAction{Token: token, Path: p, Content: content, Err: err}
	})
}

func (r *StateReducer) applyViewerContent(state *AppState, a ViewerLoadedAction) {
	v := state.Viewer
	if v == nil || a.Token != v.token || !r.viewer.IsCurrent(a.Token) {
		return
	}
	r.viewer.Finish(a.Token)
	v.Loading = false

	if remote.IsCanceled(a.Err) {
		return
	}
	if a.Err != nil {
		v.Err = a.Err
		kind := remote.KindOf(a.Err)
		if kind.Persistent() {
			state.Alert = &Alert{Kind: kind, Path: a.Path, Message: describe(a.Err)}
		}
		return
	}

	data := a.Content.Data
	v.Size = len(data)
	if v.Category == fs.CategoryText && !fs.IsTextContent(v.Entry.Name, data) {
		v.Category = fs.CategoryBinary
	}

	if v.Category == fs.CategoryText {
		v.Encoding = fs.DetectUnicodeEncoding(data)
		v.Text = fs.DecodeText(data)
		v.Original = v.Text
		return
	}

	v.MIME = mimetype.Detect(data).String()
	v.Handle = r.blobs.Create(data, v.MIME)
	if v.Category == fs.CategoryBinary {
		v.HexLines = HexDump(data, hexPreviewMaxBytes)
	}
}

// saveViewer writes the edit buffer. It is a no-op without changes or while
// a save is outstanding.
func (r *StateReducer) saveViewer(state *AppState) error {
	v := state.Viewer
	if !v.CanSave() {
		if v != nil && v.Saving {
			r.notify(state, NoticeInfo, "", "Save already in progress")
		}
		return nil
	}
	v.Saving = true

	gw, ctx := r.gw, r.ctx
	p, text, token := v.Entry.Path, v.Text, v.token
	return r.spawn(state, func() Action {
		return ViewerSavedAction{Token: token, Text: text, Err: gw.Write(ctx, p, text)}
	})
}

func (r *StateReducer) finishSave(state *AppState, a ViewerSavedAction) error {
	v := state.Viewer
	if v == nil || v.token != a.Token {
		if a.Err != nil {
			r.surface(state, "save", "", a.Err)
		}
		return nil
	}
	v.Saving = false
	if a.Err != nil {
		r.surface(state, "save", v.Entry.Path, a.Err)
		return nil
	}
	v.Original = a.Text
	r.notify(state, NoticeInfo, "", "Saved "+v.Entry.Name)
	return r.reload(state)
}

// requestCloseViewer asks for confirmation when the buffer has unsaved changes.
func (r *StateReducer) requestCloseViewer(state *AppState) {
	v := state.Viewer
	if v == nil {
		return
	}
	if v.Dirty() {
		r.confirm(state, fmt.Sprintf("Discard unsaved changes to %s?", v.Entry.Name), viewerDiscardAction{})
		return
	}
	r.closeViewer(state)
}

func (r *StateReducer) closeViewer(state *AppState) {
	v := state.Viewer
	if v == nil {
		return
	}
	r.viewer.Cancel()
	r.blobs.Revoke(v.Handle)
	state.Viewer = nil
}

// dropViewer stops viewer requests for a session that is going away. An
// edited buffer stays open so it can be saved after reconnecting.
func (r *StateReducer) dropViewer(state *AppState) {
	v := state.Viewer
	if v == nil {
		return
	}
	if !v.Dirty() {
		r.closeViewer(state)
		return
	}
	r.viewer.Cancel()
}

// HexDump renders up to limit bytes of content in the classic offset, hex,
// ASCII layout.
func HexDump(content []byte, limit int) []string {
	if len(content) == 0 {
		return nil
	}
	total := len(content)
	if limit > 0 && len(content) > limit {
		content = content[:limit]
	}

	lines := make([]string, 0, len(content)/hexPreviewLineWidth+2)
	for offset := 0; offset < len(content); offset += hexPreviewLineWidth {
		chunk := content[offset:min(offset+hexPreviewLineWidth, len(content))]
		lines = append(lines, formatHexLine(offset, chunk))
	}
	if len(content) < total {
		lines = append(lines, fmt.Sprintf("... (%d bytes not shown)", total-len(content)))
	}
	return lines
}

func formatHexLine(offset int, chunk []byte) string {
	var builder strings.Builder
	builder.Grow(80)
	fmt.Fprintf(&builder, "%08X  ", offset)

	for i := 0; i < hexPreviewLineWidth; i++ {
		if i < len(chunk) {
			fmt.Fprintf(&builder, "%02X ", chunk[i])
		} else {
			builder.WriteString("   ")
		}
		if i == 7 {
			builder.WriteString(" ")
		}
	}

	builder.WriteString(" |")
	for _, b := range chunk {
		builder.WriteByte(printableASCII(b))
	}
	for i := len(chunk); i < hexPreviewLineWidth; i++ {
		builder.WriteByte(' ')
	}
	builder.WriteString("|")
	return builder.String()
}

func printableASCII(b byte) byte {
	if b >= 32 && b <= 126 {
		return b
	}
	return '.'
}
