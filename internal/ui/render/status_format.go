package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/kk-code-lab/rbrowse/internal/search"
	statepkg "github.com/kk-code-lab/rbrowse/internal/state"
	"github.com/kk-code-lab/rbrowse/internal/upload"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

func spinnerFrame(tick int) string {
	if tick < 0 {
		tick = -tick
	}
	return string(spinnerFrames[tick%len(spinnerFrames)])
}

func formatSelectionSummary(st statepkg.SelectionStats) string {
	if st.Count == 0 {
		return ""
	}
	parts := []string{fmt.Sprintf("%d selected", st.Count)}
	if st.HasFiles {
		parts = append(parts, humanize.IBytes(st.TotalSize))
	}
	if st.HasDirectories && st.HasFiles {
		parts = append(parts, "mixed")
	}
	return strings.Join(parts, " · ")
}

func formatSearchStatus(s statepkg.SearchState) string {
	switch s.Status {
	case search.StatusDebouncing, search.StatusSearching:
		return "searching…"
	case search.StatusNoResults:
		return "no results"
	case search.StatusInvalidPattern:
		return "invalid pattern"
	case search.StatusError:
		return "search failed"
	case search.StatusDone:
		label := formatCompactNumber(len(s.Results)) + " results"
		if len(s.Results) == 1 {
			label = "1 result"
		}
		if s.Truncated {
			label = "first " + label
		}
		return label
	default:
		return ""
	}
}

func formatSearchFlags(q search.Query) string {
	var parts []string
	if q.Regex {
		parts = append(parts, "regex")
	}
	if q.CaseSensitive {
		parts = append(parts, "case")
	}
	typ := q.Type
	if typ == "" {
		typ = search.TypeAll
	}
	parts = append(parts, "type:"+string(typ))
	return strings.Join(parts, " ")
}

func formatUploadSummary(items []upload.Item) string {
	if len(items) == 0 {
		return ""
	}
	counts := map[upload.Status]int{}
	for _, it := range items {
		counts[it.Status]++
	}
	var parts []string
	for _, s := range []upload.Status{upload.StatusPending, upload.StatusUploading, upload.StatusSuccess, upload.StatusError} {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, uploadStatusLabel(s)))
		}
	}
	return strings.Join(parts, " · ")
}

func uploadStatusLabel(s upload.Status) string {
	switch s {
	case upload.StatusSuccess:
		return "done"
	case upload.StatusError:
		return "failed"
	default:
		return string(s)
	}
}

func uploadIcon(it upload.Item) string {
	switch it.Status {
	case upload.StatusUploading:
		return "↑"
	case upload.StatusSuccess:
		return "✓"
	case upload.StatusError:
		return "✗"
	default:
		return "·"
	}
}

func formatNotice(n statepkg.Notice) string {
	switch n.Level {
	case statepkg.NoticeError:
		return "✗ " + n.Message
	case statepkg.NoticeWarn:
		return "! " + n.Message
	default:
		return n.Message
	}
}

func formatAlert(a *statepkg.Alert) string {
	switch a.Kind {
	case remote.KindPermission:
		msg := a.Message
		if a.Path != "" {
			msg += ": " + a.Path
		}
		return msg + "  ·  A: request access  Esc: dismiss"
	case remote.KindSessionExpired:
		return a.Message + "  ·  c: reconnect  Esc: dismiss"
	default:
		return a.Message + "  ·  Esc: dismiss"
	}
}

func formatCompactNumber(n int) string {
	switch {
	case n >= 1_000_000:
		return trimTrailingZero(fmt.Sprintf("%.1f", float64(n)/1_000_000.0)) + "M"
	case n >= 1_000:
		return trimTrailingZero(fmt.Sprintf("%.1f", float64(n)/1_000.0)) + "k"
	default:
		return fmt.Sprintf("%d", n)
	}
}

func trimTrailingZero(s string) string {
	return strings.TrimSuffix(strings.TrimSuffix(s, "0"), ".")
}
