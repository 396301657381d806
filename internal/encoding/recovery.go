package encoding

import (
	"bytes"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Latin1ToUTF8 converts every byte that is not part of a valid UTF-8
// sequence as if it were Windows-1252 (ISO-8859-1 for the bytes 1252 leaves
// undefined). Valid UTF-8 passes through unchanged.
func Latin1ToUTF8(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data) + len(data)/8)
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size > 1 {
			out.Write(data[:size])
			data = data[size:]
			continue
		}
		out.WriteRune(latin1Rune(data[0]))
		data = data[1:]
	}
	return out.Bytes()
}

func latin1Rune(b byte) rune {
	if b >= 0x80 && b <= 0x9F {
		switch b {
		case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
			return charmap.ISO8859_1.DecodeByte(b)
		}
		return charmap.Windows1252.DecodeByte(b)
	}
	return charmap.ISO8859_1.DecodeByte(b)
}

// FixControlChars replaces ASCII control characters other than tab, line
// feed and carriage return with spaces, and does the same for numeric
// character references (&#NN; or &#xNN;) that denote them.
func FixControlChars(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '&' && i+2 < len(data) && data[i+1] == '#' {
			if n, ok := controlReference(data[i:]); ok {
				out = append(out, ' ')
				i += n - 1
				continue
			}
		}
		if isControl(c) {
			out = append(out, ' ')
			continue
		}
		out = append(out, c)
	}
	return out
}

// controlReference reports the length of a character reference at the
// start of data if it names a control character.
func controlReference(data []byte) (int, bool) {
	end := bytes.IndexByte(data, ';')
	if end < 3 || end > 10 {
		return 0, false
	}
	digits := string(data[2:end])
	base := 10
	if digits[0] == 'x' {
		digits = digits[1:]
		base = 16
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil || v > 0x7F || !isControl(byte(v)) {
		return 0, false
	}
	return end + 1, true
}

func isControl(c byte) bool {
	return c < 0x20 && c != '\t' && c != '\n' && c != '\r'
}
