package xmp

import (
	"strconv"
	"strings"
	"time"

	"github.com/aleksaelezovic/xmpkit/internal/encoding"
)

// ValueKind tags the variant held by a Value.
type ValueKind byte

const (
	ValueString ValueKind = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueDate
	ValueBytes
)

// Value is a typed property value. It is converted to its canonical string
// form as soon as it enters the tree.
type Value struct {
	kind  ValueKind
	str   string
	b     bool
	i     int64
	f     float64
	date  DateTime
	bytes []byte
}

func StringValue(s string) Value   { return Value{kind: ValueString, str: s} }
func BoolValue(b bool) Value       { return Value{kind: ValueBool, b: b} }
func IntValue(i int) Value         { return Value{kind: ValueInt, i: int64(i)} }
func Int64Value(i int64) Value     { return Value{kind: ValueInt, i: i} }
func FloatValue(f float64) Value   { return Value{kind: ValueFloat, f: f} }
func DateValue(d DateTime) Value   { return Value{kind: ValueDate, date: d} }
func TimeValue(t time.Time) Value  { return Value{kind: ValueDate, date: DateFromTime(t)} }
func BytesValue(data []byte) Value { return Value{kind: ValueBytes, bytes: data} }
func (v Value) Kind() ValueKind    { return v.kind }

// String returns the canonical string form.
func (v Value) String() string {
	switch v.kind {
	case ValueBool:
		return ConvertFromBoolean(v.b)
	case ValueInt:
		return strconv.FormatInt(v.i, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case ValueDate:
		return v.date.String()
	case ValueBytes:
		s, _ := encoding.EncodeBase64(v.bytes, 0)
		return s
	default:
		return v.str
	}
}

// ConvertFromBoolean renders "True" or "False".
func ConvertFromBoolean(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ConvertToBoolean accepts integers (non-zero is true) and the words
// true, t, on and yes in any case; everything else is false.
func ConvertToBoolean(s string) (bool, error) {
	if s == "" {
		return false, Errorf(KindBadValue, "empty convert-string")
	}
	s = strings.ToLower(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i != 0, nil
	}
	switch s {
	case "true", "t", "on", "yes":
		return true, nil
	}
	return false, nil
}

// ConvertToInteger parses a decimal or 0x-prefixed hexadecimal integer.
func ConvertToInteger(s string) (int, error) {
	v, err := ConvertToLong(s)
	if err != nil {
		return 0, err
	}
	if int64(int(v)) != v || v > 1<<31-1 || v < -1<<31 {
		return 0, Errorf(KindBadValue, "invalid integer string: %q", s)
	}
	return int(v), nil
}

// ConvertToLong parses a decimal or 0x-prefixed hexadecimal integer.
func ConvertToLong(s string) (int64, error) {
	if s == "" {
		return 0, Errorf(KindBadValue, "empty convert-string")
	}
	var v int64
	var err error
	if strings.HasPrefix(s, "0x") {
		v, err = strconv.ParseInt(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, Errorf(KindBadValue, "invalid long string: %q", s)
	}
	return v, nil
}

// ConvertToDouble parses a floating point number.
func ConvertToDouble(s string) (float64, error) {
	if s == "" {
		return 0, Errorf(KindBadValue, "empty convert-string")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, Errorf(KindBadValue, "invalid double string: %q", s)
	}
	return f, nil
}

// ConvertToDate parses an ISO 8601 date.
func ConvertToDate(s string) (DateTime, error) {
	if s == "" {
		return DateTime{}, Errorf(KindBadValue, "empty convert-string")
	}
	return ParseDate(s)
}

// DecodeBase64 decodes a Base64 property value.
func DecodeBase64(s string) ([]byte, error) {
	data, err := encoding.DecodeBase64(s)
	if err != nil {
		return nil, WrapError(KindBadValue, err, "invalid base64 string")
	}
	return data, nil
}
