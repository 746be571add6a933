package fs

import (
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// EntryType distinguishes files from directories in a remote listing.
type EntryType string

const (
	TypeFile      EntryType = "file"
	TypeDirectory EntryType = "directory"
)

// Entry represents a single file or directory on the remote host.
type Entry struct {
	Path        string
	Name        string
	Type        EntryType
	Size        uint64
	Modified    time.Time
	Permissions string
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Type == TypeDirectory
}

// IsHidden reports whether the entry should be treated as hidden.
func (e Entry) IsHidden() bool {
	return strings.HasPrefix(e.Name, ".")
}

// DisplaySize returns a human readable size; directories render as "-".
func (e Entry) DisplaySize() string {
	if e.IsDir() {
		return "-"
	}
	return humanize.IBytes(e.Size)
}

// DisplayPermissions returns the symbolic permissions; directories render as "-".
func (e Entry) DisplayPermissions() string {
	if e.IsDir() || e.Permissions == "" {
		return "-"
	}
	return e.Permissions
}

// SortEntries orders directories first, then names alphabetically.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name < entries[j].Name
	})
}
