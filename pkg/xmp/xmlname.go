package xmp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// nameStartTable holds the non-ASCII NameStartChar ranges of XML 1.0 (5th ed).
var nameStartTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{0x00C0, 0x00D6, 1},
		{0x00D8, 0x00F6, 1},
		{0x00F8, 0x02FF, 1},
		{0x0370, 0x037D, 1},
		{0x037F, 0x1FFF, 1},
		{0x200C, 0x200D, 1},
		{0x2070, 0x218F, 1},
		{0x2C00, 0x2FEF, 1},
		{0x3001, 0xD7FF, 1},
		{0xF900, 0xFDCF, 1},
		{0xFDF0, 0xFFFD, 1},
	},
	R32: []unicode.Range32{
		{0x10000, 0xEFFFF, 1},
	},
}

var nameCharTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{0x00B7, 0x00B7, 1},
		{0x0300, 0x036F, 1},
		{0x203F, 0x2040, 1},
	},
}

func isNameStartRune(r rune) bool {
	if r < utf8.RuneSelf {
		return r == ':' || r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
	}
	return unicode.Is(nameStartTable, r)
}

func isNameRune(r rune) bool {
	if r < utf8.RuneSelf {
		return isNameStartRune(r) || r == '-' || r == '.' || ('0' <= r && r <= '9')
	}
	return unicode.Is(nameStartTable, r) || unicode.Is(nameCharTable, r)
}

// isXMLName reports whether s is a valid XML Name.
func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !isNameStartRune(r) {
				return false
			}
			continue
		}
		if !isNameRune(r) {
			return false
		}
	}
	return true
}

// isXMLNameNS reports whether s is a valid NCName (an XML Name without colons).
func isXMLNameNS(s string) bool {
	return isXMLName(s) && !strings.ContainsRune(s, ':')
}

func checkSimpleXMLName(name string) error {
	if !isXMLNameNS(name) {
		return Errorf(KindBadXPath, "bad XML name: %q", name)
	}
	return nil
}
