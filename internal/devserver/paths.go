package devserver

import (
	iofs "io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var errOutsideRoot = errors.New("path escapes the served root")

// wireEntry is the JSON shape of a listing entry or search hit.
type wireEntry struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	Mtime       string `json:"mtime"`
	Permissions string `json:"permissions,omitempty"`
}

// resolve maps a remote path onto the local filesystem. Symlinks that lead
// outside the root are refused.
func (s *Server) resolve(p string) (string, error) {
	clean := fs.Clean(p)
	local := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if !within(s.root, local) {
		return "", errOutsideRoot
	}
	real, err := filepath.EvalSymlinks(local)
	if err != nil {
		// Not created yet: its parent decides where it would land.
		real, err = filepath.EvalSymlinks(filepath.Dir(local))
	}
	if err == nil && !within(s.root, real) {
		return "", errOutsideRoot
	}
	return local, nil
}

// remotePath is the inverse of resolve.
func (s *Server) remotePath(local string) string {
	rel, err := filepath.Rel(s.root, local)
	if err != nil || rel == "." {
		return "/"
	}
	return fs.Clean("/" + filepath.ToSlash(rel))
}

func within(root, p string) bool {
	if p == root {
		return true
	}
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// filePath extracts the remote path of a /files/* route from the decoded URL.
func filePath(c echo.Context) string {
	prefix := "/api/connections/" + c.Param("conn") + "/files"
	return fs.Clean(strings.TrimPrefix(c.Request().URL.Path, prefix))
}

func toWire(p string, info iofs.FileInfo) wireEntry {
	typ := "file"
	size := info.Size()
	if info.IsDir() {
		typ = "directory"
		size = 0
	}
	return wireEntry{
		Path:        p,
		Name:        fs.Base(p),
		Type:        typ,
		Size:        size,
		Mtime:       info.ModTime().UTC().Format(time.RFC3339),
		Permissions: info.Mode().Perm().String()[1:],
	}
}

// mapError turns filesystem failures into the statuses the client classifies.
func mapError(err error) error {
	var he *echo.HTTPError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &he):
		return he
	case errors.Is(err, errOutsideRoot), errors.Is(err, os.ErrPermission):
		return echo.NewHTTPError(http.StatusForbidden, "Permission denied")
	case errors.Is(err, os.ErrNotExist):
		return echo.NewHTTPError(http.StatusNotFound, "No such file or directory")
	case errors.Is(err, os.ErrExist):
		return echo.NewHTTPError(http.StatusConflict, "File already exists")
	default:
		return errors.WithStack(err)
	}
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, message)
}
