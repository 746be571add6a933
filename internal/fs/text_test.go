package fs

import "testing"

func TestIsTextContentDetectsUTF16LE(t *testing.T) {
	content := []byte{0xFF, 0xFE, 0x41, 0x00, 0x0D, 0x00, 0x0A, 0x00}
	if !IsTextContent("config.ini", content) {
		t.Fatalf("expected UTF-16 LE content to be treated as text")
	}
}

func TestDecodeTextUTF16LE(t *testing.T) {
	content := []byte{0xFF, 0xFE, 0x41, 0x00, 0x0D, 0x00, 0x0A, 0x00}
	got := DecodeText(content)
	want := "A\r\n"
	if got != want {
		t.Fatalf("DecodeText returned %q, want %q", got, want)
	}
}

func TestDecodeTextStripsUTF8BOM(t *testing.T) {
	got := DecodeText([]byte{0xEF, 0xBB, 0xBF, 'h', 'i'})
	if got != "hi" {
		t.Fatalf("DecodeText returned %q, want %q", got, "hi")
	}
}

func TestIsTextContentRejectsNULBytes(t *testing.T) {
	if IsTextContent("ls", []byte{0x7F, 'E', 'L', 'F', 0x00, 0x01}) {
		t.Fatalf("expected ELF header to be treated as binary")
	}
}

func TestIsTextContentRejectsBinaryCategory(t *testing.T) {
	if IsTextContent("photo.png", []byte("plain")) {
		t.Fatalf("image extension should never be text")
	}
}
