// Package encoding provides text encoding utilities for RIP capture files.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// CP437ToUTF8 converts CP437 encoded bytes to a UTF-8 string.
// Every byte maps to exactly one rune, so decoding cannot fail;
// the raw bytes are returned as a string if the decoder ever errors.
func CP437ToUTF8(data []byte) string {
	result, err := charmap.CodePage437.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToCP437 converts a UTF-8 string to CP437 encoded bytes.
// Returns the original bytes if s holds runes CP437 cannot represent.
func UTF8ToCP437(s string) []byte {
	encoder := charmap.CodePage437.NewEncoder()
	result, err := encoder.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// CString returns the bytes of data up to (not including) the first null byte.
func CString(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

// IsPrintable reports whether b is a printable 7-bit ASCII byte.
func IsPrintable(b byte) bool {
	return b >= 0x20 && b < 0x7f
}
