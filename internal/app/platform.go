package app

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

type lookPathFunc func(string) (string, error)

func detectClipboard() []string {
	return detectClipboardInternal(runtime.GOOS, os.Getenv, exec.LookPath)
}

// detectClipboardInternal finds a command that copies its stdin to the
// system clipboard. Wayland sessions prefer wl-copy over the X11 tools.
func detectClipboardInternal(goos string, getenv func(string) string, lookPath lookPathFunc) []string {
	var candidates [][]string
	switch strings.ToLower(goos) {
	case "windows":
		candidates = [][]string{
			{"clip.exe"},
			{"clip"},
			{"powershell", "-NoLogo", "-NoProfile", "-Command", "Set-Clipboard"},
			{"pwsh", "-NoLogo", "-NoProfile", "-Command", "Set-Clipboard"},
		}
	case "darwin":
		candidates = [][]string{{"pbcopy"}}
	default:
		if getenv("WAYLAND_DISPLAY") != "" {
			candidates = append(candidates, []string{"wl-copy"})
		}
		candidates = append(candidates,
			[]string{"xclip", "-selection", "clipboard"},
			[]string{"xsel", "--clipboard", "--input"},
			[]string{"wl-copy"},
		)
	}
	return firstAvailable(candidates, lookPath)
}

func detectEditorCommand(override string) []string {
	return detectEditorCommandInternal(runtime.GOOS, override, os.Getenv, exec.LookPath)
}

// detectEditorCommandInternal resolves the editor from the configured
// override, then $VISUAL and $EDITOR, then a per-platform default.
func detectEditorCommandInternal(goos, override string, getenv func(string) string, lookPath lookPathFunc) []string {
	for _, candidate := range []string{override, getenv("VISUAL"), getenv("EDITOR")} {
		args := splitCommandLine(candidate)
		if len(args) == 0 {
			continue
		}
		if resolved, ok := resolveExecutable(args[0], lookPath); ok {
			args[0] = resolved
			return args
		}
	}

	defaults := [][]string{{"vim"}, {"vi"}, {"nano"}}
	if strings.EqualFold(goos, "windows") {
		defaults = [][]string{{"code", "--wait"}, {"notepad++.exe"}, {"notepad.exe"}}
	}
	return firstAvailable(defaults, lookPath)
}

func firstAvailable(candidates [][]string, lookPath lookPathFunc) []string {
	for _, c := range candidates {
		if resolved, ok := resolveExecutable(c[0], lookPath); ok {
			return append([]string{resolved}, c[1:]...)
		}
	}
	return nil
}

// splitCommandLine splits a shell-like command string. Single and double
// quotes group words; a backslash outside single quotes escapes the next rune.
func splitCommandLine(cmd string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
		escaped bool
		inWord  bool
	)
	for _, r := range strings.TrimSpace(cmd) {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		args = append(args, current.String())
	}
	if len(args) > 0 {
		args[0] = expandUserPath(args[0])
	}
	return args
}

func expandUserPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != '\\' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) == 1 {
		return home
	}
	return filepath.Join(home, path[2:])
}

func resolveExecutable(cmd string, lookPath lookPathFunc) (string, bool) {
	if cmd == "" {
		return "", false
	}
	path, err := lookPath(expandUserPath(cmd))
	if err != nil || path == "" {
		return "", false
	}
	return path, true
}
