package upload

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kk-code-lab/rbrowse/internal/fs"
	"github.com/pkg/errors"
)

// Limits bounds a single pending batch.
type Limits struct {
	MaxFiles     int
	MaxFileSize  int64
	MaxTotalSize int64
}

// DefaultLimits mirrors the file API's own quotas.
func DefaultLimits() Limits {
	return Limits{
		MaxFiles:     10,
		MaxFileSize:  100 << 20,
		MaxTotalSize: 500 << 20,
	}
}

// Rejection reasons. They are matched with errors.Is.
var (
	ErrTooManyFiles     = errors.New("too many files")
	ErrFileTooLarge     = errors.New("file too large")
	ErrBatchTooLarge    = errors.New("batch exceeds total size limit")
	ErrBlockedExtension = errors.New("file type not allowed")
	ErrDuplicate        = errors.New("file already in batch")
)

// Executable and script-like extensions that are never accepted. Plain shell
// and JavaScript sources are allowed since they are routinely edited on servers.
var blockedExtensions = map[string]struct{}{
	".app": {},
	".bat": {},
	".cmd": {},
	".com": {},
	".dll": {},
	".exe": {},
	".jar": {},
	".msi": {},
	".ps1": {},
	".scr": {},
	".vbs": {},
}

// Rejection reports why one candidate was not accepted.
type Rejection struct {
	Name string
	Err  error
}

func (r Rejection) Error() string {
	return r.Name + ": " + r.Err.Error()
}

// Blocked reports whether name carries a denied extension.
func Blocked(name string) bool {
	_, ok := blockedExtensions[fs.Ext(name)]
	return ok
}

func (l Limits) check(f File, count int, total int64) error {
	switch {
	case l.MaxFiles > 0 && count+1 > l.MaxFiles:
		return errors.Wrapf(ErrTooManyFiles, "at most %d files per upload", l.MaxFiles)
	case l.MaxFileSize > 0 && f.Size > l.MaxFileSize:
		return errors.Wrapf(ErrFileTooLarge, "%s exceeds %s", humanize.IBytes(uint64(f.Size)), humanize.IBytes(uint64(l.MaxFileSize)))
	case l.MaxTotalSize > 0 && total+f.Size > l.MaxTotalSize:
		return errors.Wrapf(ErrBatchTooLarge, "limit is %s", humanize.IBytes(uint64(l.MaxTotalSize)))
	case Blocked(f.Name):
		return errors.Wrapf(ErrBlockedExtension, "%s files are blocked", strings.TrimPrefix(fs.Ext(f.Name), "."))
	}
	return nil
}
