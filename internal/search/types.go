package search

import (
	"regexp"
	"strings"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/pkg/errors"
)

const (
	// MaxResults caps how many results are requested and shown.
	MaxResults = 50
	// DebounceDelay is the quiet period after the last keystroke before a
	// query is sent.
	DebounceDelay = 300 * time.Millisecond
)

// Result is one search hit.
type Result = remote.SearchResult

// TypeFilter restricts results by entry type.
type TypeFilter string

const (
	TypeAll       TypeFilter = "all"
	TypeFile      TypeFilter = "file"
	TypeDirectory TypeFilter = "directory"
)

// Next cycles all -> file -> directory -> all.
func (t TypeFilter) Next() TypeFilter {
	switch t {
	case TypeAll, "":
		return TypeFile
	case TypeFile:
		return TypeDirectory
	default:
		return TypeAll
	}
}

// Status is the phase of the search panel.
type Status string

const (
	StatusIdle           Status = ""
	StatusDebouncing     Status = "debouncing"
	StatusSearching      Status = "searching"
	StatusDone           Status = "done"
	StatusNoResults      Status = "no_results"
	StatusInvalidPattern Status = "invalid_pattern"
	StatusError          Status = "error"
)

// ErrInvalidPattern is returned for regex queries that do not compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// Query is the full set of inputs of one search. Results are only valid for
// the exact Query that produced them.
type Query struct {
	Text          string
	Root          string
	Type          TypeFilter
	CaseSensitive bool
	Regex         bool
}

// Empty reports whether there is nothing to search for.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// Validate checks a regex query without touching the network.
func (q Query) Validate() error {
	if !q.Regex {
		return nil
	}
	pattern := q.Text
	if !q.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return errors.Wrap(ErrInvalidPattern, err.Error())
	}
	return nil
}

// Request converts q into the wire request.
func (q Query) Request(max int) remote.SearchRequest {
	t := q.Type
	if t == "" {
		t = TypeAll
	}
	text := q.Text
	if !q.Regex {
		text = strings.TrimSpace(text)
	}
	return remote.SearchRequest{
		Query:         text,
		Path:          q.Root,
		Type:          string(t),
		CaseSensitive: q.CaseSensitive,
		Regex:         q.Regex,
		MaxResults:    max,
	}
}

func (q Query) accepts(r Result) bool {
	switch q.Type {
	case TypeFile:
		return r.Type != fs.TypeDirectory
	case TypeDirectory:
		return r.Type == fs.TypeDirectory
	}
	return true
}
