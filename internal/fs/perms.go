package fs

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidMode     = errors.New("mode must be three octal digits (000-777)")
	ErrInvalidSymbolic = errors.New("permissions must be nine rwx characters")
)

// Triad is one read/write/execute group.
type Triad struct {
	Read    bool
	Write   bool
	Execute bool
}

// PermissionMatrix is the owner/group/other view of a Unix mode.
type PermissionMatrix struct {
	Owner Triad
	Group Triad
	Other Triad
}

// ValidateOctal rejects anything that is not exactly three digits in 0-7.
func ValidateOctal(mode string) error {
	if len(mode) != 3 {
		return errors.Wrapf(ErrInvalidMode, "got %q", mode)
	}
	for i := 0; i < len(mode); i++ {
		if mode[i] < '0' || mode[i] > '7' {
			return errors.Wrapf(ErrInvalidMode, "digit %q out of range", mode[i])
		}
	}
	return nil
}

// ParseOctal decodes a 3-digit octal mode.
func ParseOctal(mode string) (PermissionMatrix, error) {
	if err := ValidateOctal(mode); err != nil {
		return PermissionMatrix{}, err
	}
	return PermissionMatrix{
		Owner: triadFromDigit(mode[0] - '0'),
		Group: triadFromDigit(mode[1] - '0'),
		Other: triadFromDigit(mode[2] - '0'),
	}, nil
}

// Octal encodes the matrix as a 3-digit octal string.
func (m PermissionMatrix) Octal() string {
	return string([]byte{
		'0' + m.Owner.digit(),
		'0' + m.Group.digit(),
		'0' + m.Other.digit(),
	})
}

// ParseSymbolic decodes "rwxr-xr--". A leading file-type character ("drwx...")
// is tolerated. Setuid/setgid/sticky markers count as execute when lower-case.
func ParseSymbolic(s string) (PermissionMatrix, error) {
	if len(s) == 10 {
		s = s[1:]
	}
	if len(s) != 9 {
		return PermissionMatrix{}, errors.Wrapf(ErrInvalidSymbolic, "got %q", s)
	}
	var triads [3]Triad
	for i := range triads {
		chunk := s[i*3 : i*3+3]
		t, ok := triadFromSymbols(chunk)
		if !ok {
			return PermissionMatrix{}, errors.Wrapf(ErrInvalidSymbolic, "bad group %q", chunk)
		}
		triads[i] = t
	}
	return PermissionMatrix{Owner: triads[0], Group: triads[1], Other: triads[2]}, nil
}

// Symbolic renders the matrix as nine rwx characters.
func (m PermissionMatrix) Symbolic() string {
	var b strings.Builder
	b.Grow(9)
	for _, t := range []Triad{m.Owner, m.Group, m.Other} {
		b.WriteString(t.String())
	}
	return b.String()
}

// SymbolicToOctal converts "rw-r--r--" into "644".
func SymbolicToOctal(s string) (string, error) {
	m, err := ParseSymbolic(s)
	if err != nil {
		return "", err
	}
	return m.Octal(), nil
}

func (t Triad) String() string {
	out := []byte("---")
	if t.Read {
		out[0] = 'r'
	}
	if t.Write {
		out[1] = 'w'
	}
	if t.Execute {
		out[2] = 'x'
	}
	return string(out)
}

func (t Triad) digit() byte {
	var d byte
	if t.Read {
		d |= 4
	}
	if t.Write {
		d |= 2
	}
	if t.Execute {
		d |= 1
	}
	return d
}

func triadFromDigit(d byte) Triad {
	return Triad{Read: d&4 != 0, Write: d&2 != 0, Execute: d&1 != 0}
}

func triadFromSymbols(chunk string) (Triad, bool) {
	var t Triad
	switch chunk[0] {
	case 'r':
		t.Read = true
	case '-':
	default:
		return t, false
	}
	switch chunk[1] {
	case 'w':
		t.Write = true
	case '-':
	default:
		return t, false
	}
	switch chunk[2] {
	case 'x', 's', 't':
		t.Execute = true
	case '-', 'S', 'T':
	default:
		return t, false
	}
	return t, true
}
