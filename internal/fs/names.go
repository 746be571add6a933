package fs

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// MaxNameLength is the longest name accepted for rename/create, in characters.
const MaxNameLength = 255

var (
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrNameTooLong      = errors.New("name is longer than 255 characters")
	ErrNameHasSeparator = errors.New("name cannot contain a path separator")
	ErrReservedName     = errors.New("name cannot be . or ..")
	ErrNameUnchanged    = errors.New("name is unchanged")
)

// NormalizeName returns the NFC form of a remote name so composed and
// decomposed spellings compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// ValidateName checks a single path element.
func ValidateName(name string) error {
	switch {
	case name == "":
		return ErrEmptyName
	case utf8.RuneCountInString(name) > MaxNameLength:
		return ErrNameTooLong
	case strings.ContainsAny(name, "/\\"):
		return ErrNameHasSeparator
	case name == "." || name == "..":
		return ErrReservedName
	}
	return nil
}

// ValidateRename checks next as a replacement for current.
func ValidateRename(current, next string) error {
	if err := ValidateName(next); err != nil {
		return err
	}
	if NormalizeName(next) == NormalizeName(current) {
		return ErrNameUnchanged
	}
	return nil
}
