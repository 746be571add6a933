package devserver

import (
	"io"
	iofs "io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/klauspost/compress/zip"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type uploadResult struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Path    string `json:"path,omitempty"`
}

// upload handles POST /files/upload. Each "file" part gets one result, in
// request order; a failed part does not stop the others.
func (s *Server) upload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest("expected a multipart form")
	}
	defer func() {
		_ = form.RemoveAll()
	}()

	dest := "/"
	if v := form.Value["path"]; len(v) > 0 {
		dest = fs.Clean(v[0])
	}
	dir, err := s.resolve(dest)
	if err != nil {
		return mapError(err)
	}
	if info, err := os.Stat(dir); err != nil {
		return mapError(err)
	} else if !info.IsDir() {
		return badRequest("Not a directory")
	}

	parts := form.File["file"]
	if len(parts) == 0 {
		return badRequest("no files in request")
	}
	if len(parts) > s.limits.MaxFiles {
		return badRequest("too many files: at most " + strconv.Itoa(s.limits.MaxFiles) + " per upload")
	}

	results := make([]uploadResult, len(parts))
	var total int64
	for i, part := range parts {
		res := uploadResult{Name: part.Filename}
		total += part.Size
		switch {
		case part.Size > s.limits.MaxFileSize:
			res.Error = "file too large: limit is " + humanize.IBytes(uint64(s.limits.MaxFileSize))
		case total > s.limits.MaxTotalSize:
			res.Error = "upload too large: limit is " + humanize.IBytes(uint64(s.limits.MaxTotalSize))
		default:
			if p, err := s.storePart(dir, dest, part); err != nil {
				res.Error = err.Error()
			} else {
				res.Success = true
				res.Path = p
			}
		}
		if !res.Success {
			s.log.Warn().Str("name", part.Filename).Str("reason", res.Error).Msg("upload part rejected")
		}
		results[i] = res
	}
	return c.JSON(http.StatusOK, map[string]any{"results": results})
}

func (s *Server) storePart(dir, dest string, part *multipart.FileHeader) (string, error) {
	name, err := baseName(part.Filename)
	if err != nil {
		return "", err
	}
	src, err := part.Open()
	if err != nil {
		return "", errors.Wrap(err, "read part")
	}
	defer func() {
		_ = src.Close()
	}()

	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return "", errors.New("permission denied")
		}
		return "", errors.Wrap(err, "create file")
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", errors.Wrap(err, "write file")
	}
	if err := dst.Close(); err != nil {
		return "", errors.Wrap(err, "write file")
	}
	return fs.Join(dest, name), nil
}

// download handles GET /files/download?path= for a single file.
func (s *Server) download(c echo.Context) error {
	p := fs.Clean(c.QueryParam("path"))
	local, err := s.resolve(p)
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
	return c.Attachment(local, fs.Base(p))
}

// downloadBundle handles POST /files/download: every path is zipped under its
// own base name, directories recursively.
func (s *Server) downloadBundle(c echo.Context) error {
	var req struct {
		Paths  []string `json:"paths"`
		Format string   `json:"format"`
	}
	if err := c.Bind(&req); err != nil || len(req.Paths) == 0 {
		return badRequest("paths are required")
	}
	if req.Format != "" && req.Format != "zip" {
		return badRequest("unsupported format " + req.Format)
	}

	locals := make([]string, len(req.Paths))
	for i, p := range req.Paths {
		local, err := s.resolve(p)
		if err != nil {
			return mapError(err)
		}
		if _, err := os.Stat(local); err != nil {
			return mapError(err)
		}
		locals[i] = local
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/zip")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="download.zip"`)
	res.WriteHeader(http.StatusOK)

	zw := zip.NewWriter(res)
	for _, local := range locals {
		if err := addToZip(zw, local); err != nil {
			// Headers are gone; a truncated archive is all we can signal.
			s.log.Error().Err(err).Str("path", s.remotePath(local)).Msg("bundle aborted")
			return nil
		}
	}
	if err := zw.Close(); err != nil {
		s.log.Error().Err(err).Msg("bundle close failed")
	}
	return nil
}

func addToZip(zw *zip.Writer, local string) error {
	base := filepath.Dir(local)
	return filepath.WalkDir(local, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
			_, err = zw.CreateHeader(hdr)
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		_, err = io.Copy(w, f)
		return err
	})
}
