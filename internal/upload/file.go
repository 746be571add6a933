package upload

import (
	"io"
	"os"
	"path/filepath"

	"github.com/kk-code-lab/rbrowse/internal/remote"
	"github.com/pkg/errors"
)

// File is a candidate for upload. Open is called each time the content is
// needed: once for preview generation and once when the batch is sent.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromPath builds a File backed by a local regular file.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, errors.Wrap(err, "stat upload source")
	}
	if !info.Mode().IsRegular() {
		return File{}, errors.Errorf("%s is not a regular file", path)
	}
	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func (f File) toRemote() remote.UploadFile {
	return remote.UploadFile{Name: f.Name, Size: f.Size, Open: f.Open}
}
