package state

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DiscardSink drops downloaded content.
type DiscardSink struct{}

func (DiscardSink) Save(_ string, r io.Reader) (string, error) {
	_, err := io.Copy(io.Discard, r)
	return "", err
}

// DirSink writes downloads into Dir without overwriting existing files.
type DirSink struct {
	Dir string
}

func (d DirSink) Save(name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create download directory")
	}

	name = filepath.Base(filepath.Clean("/" + name))
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		target := filepath.Join(d.Dir, candidate)
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", errors.Wrap(err, "create download file")
		}
		if _, err := io.Copy(f, r); err != nil {
			_ = f.Close()
			_ = os.Remove(target)
			return "", errors.Wrap(err, "write download")
		}
		return target, errors.Wrap(f.Close(), "close download")
	}
}
