package fs

import (
	"path"
	"strings"
)

// Root is the top of every remote filesystem.
const Root = "/"

// Clean normalizes a remote path: always absolute, '/'-separated, no trailing slash.
func Clean(p string) string {
	if p == "" {
		return Root
	}
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Join appends name to dir.
func Join(dir string, elem ...string) string {
	parts := append([]string{Clean(dir)}, elem...)
	return Clean(path.Join(parts...))
}

// Split returns the parent directory and the final element of p.
func Split(p string) (dir, name string) {
	p = Clean(p)
	if p == Root {
		return Root, ""
	}
	return Parent(p), path.Base(p)
}

// Parent returns the containing directory; the parent of root is root.
func Parent(p string) string {
	p = Clean(p)
	if p == Root {
		return Root
	}
	return path.Dir(p)
}

// Base returns the last element of p, or "/" for root.
func Base(p string) string {
	return path.Base(Clean(p))
}

// IsRoot reports whether p is the filesystem root.
func IsRoot(p string) bool {
	return Clean(p) == Root
}

// Ext returns the lower-cased extension of name including the dot.
func Ext(name string) string {
	return strings.ToLower(path.Ext(name))
}

// Segments splits p into breadcrumb segments starting with "/".
func Segments(p string) []string {
	p = Clean(p)
	if p == Root {
		return []string{Root}
	}
	return append([]string{Root}, strings.Split(strings.TrimPrefix(p, "/"), "/")...)
}

// SegmentPath rebuilds the path for the idx-th breadcrumb segment.
func SegmentPath(segments []string, idx int) string {
	if idx <= 0 || len(segments) == 0 {
		return Root
	}
	if idx >= len(segments) {
		idx = len(segments) - 1
	}
	return Join(Root, segments[1:idx+1]...)
}
