//go:build !windows

package app

import (
	"syscall"

	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
)

func (app *Application) suspendToShell() {
	// Return terminal control to the shell before stopping the process.
	_ = app.screen.Suspend()
	// Stop only this process so job control in the parent shell keeps working.
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGTSTP)
}

func (app *Application) resumeAfterStop() bool {
	if err := app.screen.Resume(); err != nil {
		app.log.Warn().Err(err).Msg("resume after stop failed")
		return false
	}
	app.screen.EnableMouse()
	app.screen.Sync()
	_ = app.screen.PostEvent(tcell.NewEventInterrupt("resume"))
	if w, h := app.screen.Size(); w > 0 && h > 0 {
		app.reduce(statepkg.ResizeAction{Width: w, Height: h})
	}
	return true
}
