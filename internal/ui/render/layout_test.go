package render

import "testing"

func TestComputeColumnsDropsColumnsWhenNarrow(t *testing.T) {
	tests := []struct {
		width int
		want  listColumns
	}{
		{width: 80, want: listColumns{marker: 2, name: 40, size: 10, modified: 17, perms: 11}},
		{width: 50, want: listColumns{marker: 2, name: 21, size: 10, modified: 17}},
		{width: 40, want: listColumns{marker: 2, name: 28, size: 10}},
		{width: 20, want: listColumns{marker: 2, name: 18}},
	}
	for _, tt := range tests {
		if got := computeColumns(tt.width); got != tt.want {
			t.Errorf("computeColumns(%d) = %+v, want %+v", tt.width, got, tt.want)
		}
	}
}

func TestBreadcrumbLayoutFits(t *testing.T) {
	crumbs, elided := breadcrumbLayout("/src/lib", 8, 80)
	if elided || len(crumbs) != 3 {
		t.Fatalf("crumbs = %+v elided=%v", crumbs, elided)
	}
	if crumbs[0].text != "/" || crumbs[0].start != 8 || crumbs[0].path != "/" {
		t.Fatalf("root crumb = %+v", crumbs[0])
	}
	// "/ › src": the separator takes three cells.
	if crumbs[1].start != 12 || crumbs[1].path != "/src" {
		t.Fatalf("second crumb = %+v", crumbs[1])
	}
	if crumbs[2].path != "/src/lib" {
		t.Fatalf("last crumb = %+v", crumbs[2])
	}
}

func TestBreadcrumbLayoutElidesLeadingSegments(t *testing.T) {
	crumbs, elided := breadcrumbLayout("/alpha/beta/gamma/delta", 8, 30)
	if !elided {
		t.Fatalf("expected leading segments to be elided")
	}
	last := crumbs[len(crumbs)-1]
	if last.text != "delta" || last.end > 30 {
		t.Fatalf("last crumb = %+v", last)
	}
	if crumbs[0].text == "/" {
		t.Fatalf("root should be elided first: %+v", crumbs)
	}
}

func TestBreadcrumbAt(t *testing.T) {
	if p, ok := BreadcrumbAt("/src/lib", 80, 8); !ok || p != "/" {
		t.Fatalf("root hit = %q %v", p, ok)
	}
	if p, ok := BreadcrumbAt("/src/lib", 80, 13); !ok || p != "/src" {
		t.Fatalf("src hit = %q %v", p, ok)
	}
	if _, ok := BreadcrumbAt("/src/lib", 80, 10); ok {
		t.Fatalf("separator should not hit a segment")
	}
	if _, ok := BreadcrumbAt("/src/lib", 80, 2); ok {
		t.Fatalf("title should not hit a segment")
	}
}
