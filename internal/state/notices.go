package state

import (
	"strings"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/pkg/errors"
)

const maxNotices = 5

func (r *StateReducer) notify(state *AppState, level NoticeLevel, kind remote.ErrorKind, message string) {
	n := Notice{Level: level, Kind: kind, Message: message, At: r.now()}
	state.Notices = append(state.Notices, n)
	if len(state.Notices) > maxNotices {
		state.Notices = state.Notices[len(state.Notices)-maxNotices:]
	}
	if r.notifier != nil {
		r.notifier.Notify(n)
	}
}

// PruneNotices drops notices older than ttl and reports whether any were removed.
func (s *AppState) PruneNotices(now time.Time, ttl time.Duration) bool {
	kept := s.Notices[:0]
	for _, n := range s.Notices {
		if now.Sub(n.At) < ttl {
			kept = append(kept, n)
		}
	}
	removed := len(kept) != len(s.Notices)
	s.Notices = kept
	return removed
}

// describe renders err for the user: the server's own message when there is
// one, otherwise the headline of its kind.
func describe(err error) string {
	var re *remote.Error
	if errors.As(err, &re) {
		if re.Message != "" {
			return re.Message
		}
		return re.Kind.UserMessage()
	}
	return errors.Cause(err).Error()
}

// surface reports a failed mutation. Failures that change what the user can
// do next become a persistent alert, the rest a transient notice.
func (r *StateReducer) surface(state *AppState, op, p string, err error) {
	if remote.IsCanceled(err) {
		return
	}
	kind := remote.KindOf(err)
	r.log.Warn().Err(err).Str("op", op).Str("path", p).Str("kind", string(kind)).Msg("operation failed")
	if kind.Persistent() {
		state.Alert = &Alert{Kind: kind, Path: p, Message: describe(err)}
		return
	}
	msg := describe(err)
	if op != "" {
		msg = op + " failed: " + msg
	}
	r.notify(state, NoticeError, kind, msg)
}

func (r *StateReducer) rejectInput(state *AppState, err error) {
	r.notify(state, NoticeWarn, remote.KindValidation, errors.Cause(err).Error())
}

func (r *StateReducer) openPrompt(state *AppState, kind PromptKind) {
	p := &Prompt{Kind: kind}
	switch kind {
	case PromptCreateFile:
		p.Label = "New file"
	case PromptCreateFolder:
		p.Label = "New folder"
	case PromptRename:
		entry, ok := state.CursorEntry()
		if !ok {
			return
		}
		p.Label = "Rename to"
		p.Target = entry.Path
		p.Value = entry.Name
	case PromptChmod:
		targets := state.Targets()
		if ok, reason := CanChmod(StatsOf(targets)); !ok {
			r.notify(state, NoticeWarn, "", reason)
			return
		}
		p.Label = "Mode (octal)"
		p.Target = targets[0].Path
		if mode, err := fs.SymbolicToOctal(targets[0].Permissions); err == nil {
			p.Value = mode
		}
	case PromptUpload:
		p.Label = "Upload local files (space separated)"
	case PromptReconnect:
		p.Label = "Session token"
	default:
		return
	}
	state.Prompt = p
}

func (r *StateReducer) submitPrompt(state *AppState) (*AppState, error) {
	p := state.Prompt
	if p == nil {
		return state, nil
	}
	state.Prompt = nil
	value := strings.TrimSpace(p.Value)

	switch p.Kind {
	case PromptCreateFile, PromptCreateFolder:
		if err := fs.ValidateName(value); err != nil {
			r.rejectInput(state, err)
			return state, nil
		}
		target := fs.Join(state.CurrentPath, fs.NormalizeName(value))
		if p.Kind == PromptCreateFile {
			return r.Reduce(state, CreateFileAction{Path: target})
		}
		return r.Reduce(state, CreateFolderAction{Path: target})
	case PromptRename:
		return r.Reduce(state, RenameAction{Path: p.Target, NewName: p.Value})
	case PromptChmod:
		return r.Reduce(state, ChmodAction{Path: p.Target, Mode: value})
	case PromptUpload:
		return r.Reduce(state, UploadPathsAction{Paths: strings.Fields(value)})
	case PromptReconnect:
		session := r.gw.Session()
		session.Token = value
		return r.Reduce(state, ConnectAction{Session: session})
	}
	return state, nil
}

func (r *StateReducer) confirm(state *AppState, prompt string, onAccept Action) {
	state.Confirm = &Confirmation{Prompt: prompt, OnAccept: onAccept}
}
