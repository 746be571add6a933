package textutil

import "testing"

func TestSafeTextReplacesControlRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "report.txt", want: "report.txt"},
		{name: "escape sequence", in: "a\x1b[31mb", want: "a?[31mb"},
		{name: "newlines", in: "line1\nline2\r", want: "line1 line2 "},
		{name: "tab kept", in: "a\tb", want: "a\tb"},
		{name: "c1 control", in: "x\u0085y", want: "x?y"},
		{name: "delete", in: "x\x7fy", want: "x?y"},
		{name: "bidi override", in: "invoice\u202etxt.exe", want: "invoice⟪RLO⟫txt.exe"},
		{name: "unicode kept", in: "zażółć 日本", want: "zażółć 日本"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeText(tt.in); got != tt.want {
				t.Fatalf("SafeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSafeNameFlattensTabs(t *testing.T) {
	if got := SafeName("a\tb\nc"); got != "a b c" {
		t.Fatalf("SafeName = %q", got)
	}
}

func TestDeceptive(t *testing.T) {
	if Deceptive("plain.txt") {
		t.Fatalf("plain name flagged")
	}
	if !Deceptive("gnp\u202e.exe") {
		t.Fatalf("RLO name not flagged")
	}
	if !Deceptive("a\u200bb") {
		t.Fatalf("zero-width space not flagged")
	}
}
