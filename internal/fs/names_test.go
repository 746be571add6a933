package fs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRename(t *testing.T) {
	tests := []struct {
		name    string
		current string
		next    string
		want    error
	}{
		{"valid", "a.txt", "b.txt", nil},
		{"empty", "a.txt", "", ErrEmptyName},
		{"too long", "a.txt", strings.Repeat("x", 256), ErrNameTooLong},
		{"max length", "a.txt", strings.Repeat("é", 255), nil},
		{"slash", "a.txt", "dir/b.txt", ErrNameHasSeparator},
		{"backslash", "a.txt", `dir\b.txt`, ErrNameHasSeparator},
		{"dot", "a.txt", ".", ErrReservedName},
		{"dotdot", "a.txt", "..", ErrReservedName},
		{"unchanged", "a.txt", "a.txt", ErrNameUnchanged},
		{"unchanged after NFC", "caf\u00e9", "cafe\u0301", ErrNameUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRename(tt.current, tt.next)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
