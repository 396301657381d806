package encoding

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeBase64 encodes data with the standard alphabet and '=' padding.
// A positive lineLength wraps the output with "\n"; it must be a multiple
// of 4.
func EncodeBase64(data []byte, lineLength int) (string, error) {
	if lineLength < 0 || lineLength%4 != 0 {
		return "", fmt.Errorf("line length %d must be a non-negative multiple of 4", lineLength)
	}
	s := base64.StdEncoding.EncodeToString(data)
	if lineLength == 0 || len(s) <= lineLength {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/lineLength)
	for len(s) > lineLength {
		b.WriteString(s[:lineLength])
		b.WriteByte('\n')
		s = s[lineLength:]
	}
	b.WriteString(s)
	return b.String(), nil
}

// DecodeBase64 decodes s, ignoring embedded whitespace.
func DecodeBase64(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 value: %w", err)
	}
	return data, nil
}
