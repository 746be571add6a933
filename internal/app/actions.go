package app

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
	"github.com/pkg/errors"
)

// commandBuilder creates external processes; tests swap it for a helper.
var commandBuilder = exec.Command

func (app *Application) handleClipboard() bool {
	target := yankTarget(app.state)
	if len(app.clipboardCmd) == 0 {
		app.notify(statepkg.NoticeWarn, "No clipboard command found")
		return true
	}

	cmd := commandBuilder(app.clipboardCmd[0], app.clipboardCmd[1:]...)
	cmd.Stdin = strings.NewReader(target)
	if out, err := cmd.CombinedOutput(); err != nil {
		err = errors.Wrapf(err, "%s: %s", app.clipboardCmd[0], strings.TrimSpace(string(out)))
		app.log.Warn().Err(err).Msg("clipboard copy failed")
		app.notify(statepkg.NoticeError, "Copy failed: "+err.Error())
		return true
	}
	app.notify(statepkg.NoticeInfo, "Copied "+target)
	return true
}

// yankTarget picks the remote path the user is looking at.
func yankTarget(state *statepkg.AppState) string {
	if v := state.Viewer; v != nil {
		return v.Entry.Path
	}
	if s := state.Search; s.Active && s.Selected >= 0 && s.Selected < len(s.Results) {
		return s.Results[s.Selected].Path
	}
	if entry, ok := state.CursorEntry(); ok {
		return entry.Path
	}
	return state.CurrentPath
}

// handleEditorOpen round-trips the viewer buffer through a local editor. The
// edited text lands in the buffer unsaved; ^S still writes it to the server.
func (app *Application) handleEditorOpen() bool {
	v := app.state.Viewer
	if v == nil || v.Loading || v.Err != nil || !v.Category.Editable() {
		return false
	}
	if len(app.editorCmd) == 0 {
		app.notify(statepkg.NoticeWarn, "No editor found; set $EDITOR")
		return true
	}

	text, err := app.editText(fs.Base(v.Entry.Path), v.Text)
	if err != nil {
		app.log.Warn().Err(err).Str("path", v.Entry.Path).Msg("external edit failed")
		app.notify(statepkg.NoticeError, "Editor failed: "+err.Error())
		return true
	}
	if text != v.Text {
		app.reduce(statepkg.ViewerSetTextAction{Text: text})
	}
	return true
}

func (app *Application) editText(name, text string) (string, error) {
	// Keep the extension so the editor picks the right syntax mode.
	tmp, err := os.CreateTemp("", "rbrowse-*-"+strings.ReplaceAll(name, "*", "_"))
	if err != nil {
		return "", errors.Wrap(err, "create scratch file")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return "", errors.Wrap(err, "write scratch file")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "write scratch file")
	}

	if err := app.openFileInEditor(tmp.Name()); err != nil {
		return "", err
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", errors.Wrap(err, "read scratch file")
	}
	return string(data), nil
}

func (app *Application) openFileInEditor(filePath string) error {
	if len(app.editorCmd) == 0 {
		return errors.New("no editor configured")
	}

	editorArgs := app.editorArgsWithFile(filePath)
	if runtime.GOOS == "windows" {
		return app.openFileInEditorFallback(editorArgs)
	}

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return app.openFileInEditorFallback(editorArgs)
	}
	defer func() {
		_ = tty.Close()
	}()

	if err := app.screen.Suspend(); err != nil {
		return errors.Wrap(err, "suspend screen")
	}

	cmd := commandBuilder(editorArgs[0], editorArgs[1:]...)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	runErr := cmd.Run()

	if err := app.screen.Resume(); err != nil {
		return errors.Wrap(err, "resume screen")
	}
	app.screen.Sync()
	return errors.Wrap(runErr, filepath.Base(editorArgs[0]))
}

func (app *Application) openFileInEditorFallback(args []string) error {
	if err := app.screen.Suspend(); err != nil {
		return errors.Wrap(err, "suspend screen")
	}
	defer func() {
		_ = app.screen.Resume()
		app.screen.Sync()
	}()

	cmd := commandBuilder(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return errors.Wrap(cmd.Run(), filepath.Base(args[0]))
}

func (app *Application) editorArgsWithFile(filePath string) []string {
	args := make([]string, len(app.editorCmd)+1)
	copy(args, app.editorCmd)
	args[len(app.editorCmd)] = filePath
	return args
}
