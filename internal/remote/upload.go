package remote

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/pkg/errors"
)

// UploadFile is one local file to send in a multipart upload.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// ProgressFunc receives per-file progress in percent as bytes are streamed.
type ProgressFunc func(index int, percent int)

// Upload streams files to dest in a single multipart request. Results are
// returned in request order; files the server did not report on are marked
// failed.
func (c *Client) Upload(ctx context.Context, dest string, files []UploadFile, progress ProgressFunc) ([]UploadResult, error) {
	dest = fs.Clean(dest)
	if len(files) == 0 {
		return nil, nil
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pw.CloseWithError(writeUploadBody(writer, dest, files, progress))
	}()

	body, err := c.exchange(ctx, "upload", dest, http.MethodPost, "/files/upload", nil, pr, writer.FormDataContentType())
	_ = pr.CloseWithError(io.ErrClosedPipe)
	wg.Wait()
	if err != nil {
		return nil, err
	}

	reported := parseUploadResults(body)
	results := make([]UploadResult, len(files))
	for i, f := range files {
		switch {
		case i < len(reported):
			results[i] = reported[i]
			if results[i].Name == "" {
				results[i].Name = f.Name
			}
		default:
			results[i] = UploadResult{Name: f.Name, Error: "no result reported by server"}
		}
		if results[i].Path == "" && results[i].Success {
			results[i].Path = fs.Join(dest, f.Name)
		}
	}
	return results, nil
}

func writeUploadBody(writer *multipart.Writer, dest string, files []UploadFile, progress ProgressFunc) error {
	if err := writer.WriteField("path", dest); err != nil {
		return err
	}
	for i, f := range files {
		if err := writeUploadPart(writer, i, f, progress); err != nil {
			return errors.Wrapf(err, "upload %s", f.Name)
		}
	}
	return writer.Close()
}

func writeUploadPart(writer *multipart.Writer, index int, f UploadFile, progress ProgressFunc) error {
	if f.Open == nil {
		return errors.New("file has no content source")
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	part, err := writer.CreateFormFile("file", f.Name)
	if err != nil {
		return err
	}

	counter := &progressWriter{index: index, total: f.Size, report: progress}
	if _, err := io.Copy(io.MultiWriter(part, counter), src); err != nil {
		return err
	}
	counter.finish()
	return nil
}

type progressWriter struct {
	index   int
	total   int64
	written int64
	last    int
	report  ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.report == nil || w.total <= 0 {
		return len(p), nil
	}
	pct := int(w.written * 100 / w.total)
	if pct > 99 {
		// 100 is reserved for a confirmed server result.
		pct = 99
	}
	if pct != w.last {
		w.last = pct
		w.report(w.index, pct)
	}
	return len(p), nil
}

func (w *progressWriter) finish() {
	if w.report != nil && w.last < 99 {
		w.last = 99
		w.report(w.index, 99)
	}
}
