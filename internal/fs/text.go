package fs

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

const (
	textDetectionSampleSize      = 4096
	nonPrintableThresholdPercent = 30
)

// UnicodeEncoding identifies a byte-order-mark prefixed encoding.
type UnicodeEncoding int

const (
	EncodingUnknown UnicodeEncoding = iota
	EncodingUTF8BOM
	EncodingUTF16LE
	EncodingUTF16BE
)

// IsTextContent sniffs fetched content to confirm it can be shown as text.
// The name short-circuits categories that are never text.
func IsTextContent(name string, content []byte) bool {
	if CategoryOf(name) != CategoryText {
		return false
	}

	if len(content) == 0 {
		return true
	}

	sample := content
	if len(sample) > textDetectionSampleSize {
		sample = sample[:textDetectionSampleSize]
	}

	if enc := DetectUnicodeEncoding(sample); enc != EncodingUnknown {
		return true
	}

	if bytes.IndexByte(sample, 0x00) != -1 {
		return false
	}

	if utf8.Valid(sample) {
		return true
	}

	printable := 0
	nonPrintable := 0
	for _, b := range sample {
		if isCommonTextByte(b) {
			printable++
		} else {
			nonPrintable++
		}
	}

	if printable == 0 {
		return false
	}

	return nonPrintable*100/len(sample) < nonPrintableThresholdPercent
}

func isCommonTextByte(b byte) bool {
	switch {
	case b == 0x09 || b == 0x0A || b == 0x0D:
		return true
	case b >= 0x20 && b <= 0x7E:
		return true
	case b == 0x1B:
		return true
	case b >= 0x80:
		return true
	default:
		return false
	}
}

// DetectUnicodeEncoding inspects the BOM at the start of sample.
func DetectUnicodeEncoding(sample []byte) UnicodeEncoding {
	if len(sample) >= 3 && sample[0] == 0xEF && sample[1] == 0xBB && sample[2] == 0xBF {
		return EncodingUTF8BOM
	}
	if len(sample) >= 2 {
		switch {
		case sample[0] == 0xFF && sample[1] == 0xFE:
			return EncodingUTF16LE
		case sample[0] == 0xFE && sample[1] == 0xFF:
			return EncodingUTF16BE
		}
	}
	return EncodingUnknown
}

// DecodeText converts fetched bytes into a UTF-8 string, honoring BOMs.
func DecodeText(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	switch DetectUnicodeEncoding(content) {
	case EncodingUTF8BOM:
		return string(content[3:])
	case EncodingUTF16LE:
		return decodeUTF16(content, unicode.LittleEndian)
	case EncodingUTF16BE:
		return decodeUTF16(content, unicode.BigEndian)
	default:
		return string(content)
	}
}

func decodeUTF16(content []byte, endian unicode.Endianness) string {
	decoder := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
	out, err := decoder.Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(out)
}
