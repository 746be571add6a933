package render

import (
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/textutil"
)

const (
	headerTitle = "rbrowse"
	crumbSep    = " › "

	minNameWidth  = 16
	markerWidth   = 2
	sizeWidth     = 10
	modifiedWidth = 17
	permsWidth    = 11

	// header, bar, status and footer rows around the list
	chromeRows = 4
	listTop    = 2
)

// listColumns holds the cell width of every list column; zero hides it.
type listColumns struct {
	marker   int
	name     int
	size     int
	modified int
	perms    int
}

// computeColumns drops the least important columns first when the terminal
// is too narrow for all of them.
func computeColumns(width int) listColumns {
	c := listColumns{marker: markerWidth, size: sizeWidth, modified: modifiedWidth, perms: permsWidth}
	rest := width - c.marker - c.size
	switch {
	case rest-c.modified-c.perms >= minNameWidth:
	case rest-c.modified >= minNameWidth:
		c.perms = 0
	default:
		c.perms, c.modified = 0, 0
	}
	c.name = width - c.marker - c.size - c.modified - c.perms
	if c.name < minNameWidth {
		c.size = 0
		c.name = width - c.marker
	}
	if c.name < 0 {
		c.name = 0
	}
	return c
}

type crumb struct {
	text  string
	path  string
	start int
	end   int
}

// breadcrumbLayout places the segments of p between startX and maxX. Leading
// segments are replaced by an ellipsis until the rest fits; the last segment
// is truncated as a final resort.
func breadcrumbLayout(p string, startX, maxX int) (crumbs []crumb, elided bool) {
	segments := fs.Segments(p)
	items := make([]crumb, len(segments))
	for i, s := range segments {
		items[i] = crumb{text: textutil.SafeName(s), path: fs.SegmentPath(segments, i)}
	}

	first := 0
	for first < len(items)-1 && crumbsWidth(items[first:], first > 0) > maxX-startX {
		first++
	}

	x := startX
	if first > 0 {
		x += textutil.DisplayWidth(textutil.Ellipsis + crumbSep)
	}
	sepWidth := textutil.DisplayWidth(crumbSep)
	for i := first; i < len(items); i++ {
		if i > first {
			x += sepWidth
		}
		c := items[i]
		c.text = textutil.Truncate(c.text, maxX-x)
		c.start = x
		c.end = x + textutil.DisplayWidth(c.text)
		x = c.end
		crumbs = append(crumbs, c)
	}
	return crumbs, first > 0
}

func crumbsWidth(items []crumb, elided bool) int {
	w := 0
	if elided {
		w += textutil.DisplayWidth(textutil.Ellipsis + crumbSep)
	}
	for i, c := range items {
		if i > 0 {
			w += textutil.DisplayWidth(crumbSep)
		}
		w += textutil.DisplayWidth(c.text)
	}
	return w
}

func breadcrumbStart() int {
	return textutil.DisplayWidth(headerTitle) + 1
}

// BreadcrumbAt returns the directory whose breadcrumb segment covers column x
// of the header drawn for p at the given width.
func BreadcrumbAt(p string, width, x int) (string, bool) {
	crumbs, _ := breadcrumbLayout(p, breadcrumbStart(), width)
	for _, c := range crumbs {
		if x >= c.start && x < c.end {
			return c.path, true
		}
	}
	return "", false
}
