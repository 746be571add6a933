package devserver

import (
	iofs "io/fs"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	defaultMaxResults = 100
	maxMaxResults     = 1000
)

var errSearchFull = errors.New("search result limit reached")

// search handles POST /files/search: a name match over the tree under path.
func (s *Server) search(c echo.Context) error {
	var req remote.SearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid search request")
	}
	if strings.TrimSpace(req.Query) == "" {
		return badRequest("query is required")
	}
	match, err := nameMatcher(req)
	if err != nil {
		return badRequest("invalid pattern: " + err.Error())
	}
	limit := req.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	limit = min(limit, maxMaxResults)

	root := fs.Clean(req.Path)
	local, err := s.resolve(root)
	if err != nil {
		return mapError(err)
	}

	ctx := c.Request().Context()
	results := make([]wireEntry, 0)
	walkErr := filepath.WalkDir(local, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			if p == local {
				return err
			}
			// Unreadable subtrees are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p == local {
			return nil
		}
		if !typeMatches(req.Type, d.IsDir()) || !match(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		results = append(results, toWire(s.remotePath(p), info))
		if len(results) >= limit {
			return errSearchFull
		}
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, errSearchFull) {
		return mapError(walkErr)
	}
	return c.JSON(http.StatusOK, map[string]any{"results": results})
}

func nameMatcher(req remote.SearchRequest) (func(string) bool, error) {
	if req.Regex {
		expr := req.Query
		if !req.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil
	}
	if req.CaseSensitive {
		return func(name string) bool { return strings.Contains(name, req.Query) }, nil
	}
	needle := strings.ToLower(req.Query)
	return func(name string) bool { return strings.Contains(strings.ToLower(name), needle) }, nil
}

func typeMatches(filter string, isDir bool) bool {
	switch filter {
	case "file":
		return !isDir
	case "directory":
		return isDir
	default:
		return true
	}
}
