// Package encoding holds the byte-level helpers of the metadata engine:
// character set detection and transcoding, recovery filters for damaged
// packets, Base64 and packet fingerprints.
package encoding

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Charset identifies a Unicode encoding form.
type Charset int

const (
	UTF8 Charset = iota
	UTF16BE
	UTF16LE
	UTF32BE
	UTF32LE
)

func (c Charset) String() string {
	switch c {
	case UTF8:
		return "UTF-8"
	case UTF16BE:
		return "UTF-16BE"
	case UTF16LE:
		return "UTF-16LE"
	case UTF32BE:
		return "UTF-32BE"
	case UTF32LE:
		return "UTF-32LE"
	default:
		return "unknown"
	}
}

// UnitSize returns the size in bytes of one code unit; padding is counted
// in units.
func (c Charset) UnitSize() int {
	switch c {
	case UTF16BE, UTF16LE:
		return 2
	case UTF32BE, UTF32LE:
		return 4
	default:
		return 1
	}
}

func (c Charset) codec() encoding.Encoding {
	switch c {
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)
	default:
		return unicode.UTF8
	}
}

// ParseCharset maps a name such as "UTF-16LE" to a Charset.
func ParseCharset(name string) (Charset, error) {
	switch name {
	case "", "UTF-8", "utf-8", "utf8":
		return UTF8, nil
	case "UTF-16BE", "utf-16be", "UTF-16", "utf-16":
		return UTF16BE, nil
	case "UTF-16LE", "utf-16le":
		return UTF16LE, nil
	case "UTF-32BE", "utf-32be":
		return UTF32BE, nil
	case "UTF-32LE", "utf-32le":
		return UTF32LE, nil
	default:
		return UTF8, fmt.Errorf("unsupported encoding %q", name)
	}
}

// Detect guesses the encoding from the first four bytes, using the byte
// order mark if present and the position of zero bytes otherwise.
func Detect(data []byte) Charset {
	if len(data) < 2 {
		return UTF8
	}
	switch {
	case data[0] == 0:
		if len(data) < 4 || data[1] != 0 {
			return UTF16BE
		}
		return UTF32BE
	case data[0] < 0x80:
		if data[1] != 0 {
			return UTF8
		}
		if len(data) < 4 || data[2] != 0 {
			return UTF16LE
		}
		return UTF32LE
	default:
		switch {
		case data[0] == 0xEF:
			return UTF8
		case data[0] == 0xFE:
			return UTF16BE
		case len(data) < 4 || data[2] != 0:
			return UTF16LE
		default:
			return UTF32LE
		}
	}
}

var boms = map[Charset][]byte{
	UTF8:    {0xEF, 0xBB, 0xBF},
	UTF16BE: {0xFE, 0xFF},
	UTF16LE: {0xFF, 0xFE},
	UTF32BE: {0x00, 0x00, 0xFE, 0xFF},
	UTF32LE: {0xFF, 0xFE, 0x00, 0x00},
}

// ToUTF8 detects the encoding of data and returns it as UTF-8 without a
// byte order mark.
func ToUTF8(data []byte) ([]byte, Charset, error) {
	cs := Detect(data)
	data = bytes.TrimPrefix(data, boms[cs])
	if cs == UTF8 {
		return data, cs, nil
	}
	out, err := cs.codec().NewDecoder().Bytes(data)
	if err != nil {
		return nil, cs, fmt.Errorf("failed to decode %s input: %w", cs, err)
	}
	return out, cs, nil
}

// FromUTF8 encodes s in the given charset.
func FromUTF8(s string, cs Charset) ([]byte, error) {
	if cs == UTF8 {
		return []byte(s), nil
	}
	out, err := cs.codec().NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s output: %w", cs, err)
	}
	return out, nil
}
