package devserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// list handles GET /files?path=
func (s *Server) list(c echo.Context) error {
	dir := fs.Clean(c.QueryParam("path"))
	local, err := s.resolve(dir)
	if err != nil {
		return mapError(err)
	}
	info, err := os.Stat(local)
	if err != nil {
		return mapError(err)
	}
	if !info.IsDir() {
		return badRequest("Not a directory")
	}

	items, err := os.ReadDir(local)
	if err != nil {
		return mapError(err)
	}
	files := make([]wireEntry, 0, len(items))
	for _, item := range items {
		info, err := item.Info()
		if err != nil {
			// Vanished between ReadDir and Info.
			continue
		}
		files = append(files, toWire(fs.Join(dir, item.Name()), info))
	}
	return c.JSON(http.StatusOK, map[string]any{"files": files})
}

// read handles GET /files/<path>
func (s *Server) read(c echo.Context) error {
	local, err := s.resolve(filePath(c))
	if err != nil {
		return mapError(err)
	}
	info, err := os.Stat(local)
	if err != nil {
		return mapError(err)
	}
	if info.IsDir() {
		return badRequest("Is a directory")
	}

	mtype, err := mimetype.DetectFile(local)
	if err != nil {
		return mapError(err)
	}
	f, err := os.Open(local)
	if err != nil {
		return mapError(err)
	}
	defer func() {
		_ = f.Close()
	}()
	c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(info.Size(), 10))
	return c.Stream(http.StatusOK, mtype.String(), f)
}

// write handles PUT /files/<path>. "If-None-Match: *" turns it into a create
// that fails when anything already exists at the path.
func (s *Server) write(c echo.Context) error {
	p := filePath(c)
	if fs.IsRoot(p) {
		return badRequest("Is a directory")
	}
	var req struct {
		Content *string `json:"content"`
	}
	if err := c.Bind(&req); err != nil || req.Content == nil {
		return badRequest("content is required")
	}
	local, err := s.resolve(p)
	if err != nil {
		return mapError(err)
	}
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return badRequest("Is a directory")
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if c.Request().Header.Get("If-None-Match") == "*" {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(local, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return echo.NewHTTPError(http.StatusPreconditionFailed, "file already exists")
	}
	if err != nil {
		return mapError(err)
	}
	if _, err := f.WriteString(*req.Content); err != nil {
		_ = f.Close()
		return mapError(err)
	}
	if err := f.Close(); err != nil {
		return mapError(err)
	}
	s.log.Info().Str("path", p).Int("bytes", len(*req.Content)).Msg("file written")
	return c.JSON(http.StatusOK, map[string]any{"success": true, "path": p})
}

// remove handles DELETE /files/<path>; directories go recursively.
func (s *Server) remove(c echo.Context) error {
	p := filePath(c)
	if fs.IsRoot(p) {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot delete the root directory")
	}
	local, err := s.resolve(p)
	if err != nil {
		return mapError(err)
	}
	if _, err := os.Lstat(local); err != nil {
		return mapError(err)
	}
	if err := os.RemoveAll(local); err != nil {
		return mapError(err)
	}
	s.log.Info().Str("path", p).Msg("entry deleted")
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// rename handles POST /files/rename
func (s *Server) rename(c echo.Context) error {
	var req struct {
		OldPath string `json:"oldPath"`
		NewPath string `json:"newPath"`
	}
	if err := c.Bind(&req); err != nil || req.OldPath == "" || req.NewPath == "" {
		return badRequest("oldPath and newPath are required")
	}
	oldPath, newPath := fs.Clean(req.OldPath), fs.Clean(req.NewPath)
	if fs.IsRoot(oldPath) || fs.IsRoot(newPath) {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot rename the root directory")
	}
	if err := fs.ValidateName(fs.Base(newPath)); err != nil {
		return badRequest(err.Error())
	}
	from, err := s.resolve(oldPath)
	if err != nil {
		return mapError(err)
	}
	to, err := s.resolve(newPath)
	if err != nil {
		return mapError(err)
	}
	if _, err := os.Lstat(from); err != nil {
		return mapError(err)
	}
	if _, err := os.Lstat(to); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "destination already exists")
	}
	if err := os.Rename(from, to); err != nil {
		return mapError(err)
	}
	s.log.Info().Str("from", oldPath).Str("to", newPath).Msg("entry renamed")
	return c.JSON(http.StatusOK, map[string]any{"success": true, "path": newPath})
}

// mkdir handles POST /files/mkdir
func (s *Server) mkdir(c echo.Context) error {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return badRequest("path is required")
	}
	p := fs.Clean(req.Path)
	if err := fs.ValidateName(fs.Base(p)); err != nil {
		return badRequest(err.Error())
	}
	local, err := s.resolve(p)
	if err != nil {
		return mapError(err)
	}
	if err := os.Mkdir(local, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return echo.NewHTTPError(http.StatusConflict, "directory already exists")
		}
		return mapError(err)
	}
	s.log.Info().Str("path", p).Msg("directory created")
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "path": p})
}

// chmod handles POST /files/chmod with a three-digit octal mode.
func (s *Server) chmod(c echo.Context) error {
	var req struct {
		Path string `json:"path"`
		Mode string `json:"mode"`
	}
	if err := c.Bind(&req); err != nil || req.Path == "" {
		return badRequest("path and mode are required")
	}
	if err := fs.ValidateOctal(req.Mode); err != nil {
		return badRequest(err.Error())
	}
	mode, err := strconv.ParseUint(req.Mode, 8, 32)
	if err != nil {
		return badRequest(fs.ErrInvalidMode.Error())
	}
	p := fs.Clean(req.Path)
	local, err := s.resolve(p)
	if err != nil {
		return mapError(err)
	}
	if err := os.Chmod(local, os.FileMode(mode)); err != nil {
		return mapError(err)
	}
	info, err := os.Stat(local)
	if err != nil {
		return mapError(err)
	}
	s.log.Info().Str("path", p).Str("mode", req.Mode).Msg("mode changed")
	return c.JSON(http.StatusOK, toWire(p, info))
}

// baseName validates a client-supplied file name for use inside dir.
func baseName(name string) (string, error) {
	name = fs.NormalizeName(filepath.Base(filepath.FromSlash(name)))
	if err := fs.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}
