package bwav

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText turns a fixed or NUL terminated text field into a string.
// Valid UTF-8 is kept, anything else is read as Windows-1252.
func decodeText(b []byte) string {
	b = b[:clen(b)]

	if utf8.Valid(b) {
		return string(b)
	}

	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}

	return string(out)
}

// encodeText renders s as Windows-1252 when every rune is representable,
// as UTF-8 otherwise.
func encodeText(s string) []byte {
	raw, _ := encodeTextFallback(s)
	return raw
}

func encodeTextFallback(s string) ([]byte, bool) {
	if isASCII(s) {
		return []byte(s), false
	}

	out, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s), true
	}

	return out, false
}

// encodeFixedText writes s into an n byte NUL padded field. A UTF-8
// sequence is never split at the field boundary.
func encodeFixedText(s string, n int) []byte {
	raw, isUTF8 := encodeTextFallback(s)
	if len(raw) > n {
		raw = raw[:n]
		for isUTF8 && len(raw) > 0 && !utf8.Valid(raw) {
			raw = raw[:len(raw)-1]
		}
	}

	out := make([]byte, n)
	copy(out, raw)

	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}

	return true
}
