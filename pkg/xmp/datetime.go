package xmp

import (
	"fmt"
	"strings"
	"time"
)

// DateTime is an ISO 8601 date that remembers which components were given.
// Components that were not given are zero and are omitted on rendering.
type DateTime struct {
	Year       int
	Month      int
	Day        int
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
	// TZOffset is the timezone offset east of UTC in seconds.
	TZOffset int

	HasDate     bool
	HasTime     bool
	HasTimeZone bool
}

// DateFromTime converts t, keeping its zone offset.
func DateFromTime(t time.Time) DateTime {
	_, offset := t.Zone()
	return DateTime{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond(),
		TZOffset: offset,
		HasDate:  true, HasTime: true, HasTimeZone: true,
	}
}

// Time converts d to a time.Time. Missing month and day default to 1;
// a missing timezone is treated as UTC.
func (d DateTime) Time() time.Time {
	month, day := d.Month, d.Day
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	loc := time.UTC
	if d.HasTimeZone && d.TZOffset != 0 {
		loc = time.FixedZone("", d.TZOffset)
	}
	return time.Date(d.Year, time.Month(month), day, d.Hour, d.Minute, d.Second, d.Nanosecond, loc)
}

// Compare orders two dates by instant.
func (d DateTime) Compare(other DateTime) int {
	return d.Time().Compare(other.Time())
}

type dateScanner struct {
	s   string
	pos int
}

func (p *dateScanner) hasNext() bool { return p.pos < len(p.s) }
func (p *dateScanner) ch() byte      { return p.s[p.pos] }

func (p *dateScanner) gatherInt(errMsg string, max int) (int, error) {
	value := 0
	start := p.pos
	for p.hasNext() && isDigit(p.ch()) {
		value = value*10 + int(p.ch()-'0')
		p.pos++
		if value > 999999999 {
			value = 999999999
		}
	}
	if p.pos == start {
		return 0, Errorf(KindBadValue, "%s", errMsg)
	}
	if value > max {
		return max, nil
	}
	return value, nil
}

// ParseDate parses the ISO 8601 subset used in metadata:
// YYYY, YYYY-MM, YYYY-MM-DD, YYYY-MM-DDThh:mmTZD, YYYY-MM-DDThh:mm:ssTZD
// and YYYY-MM-DDThh:mm:ss.sTZD, where TZD is Z or +hh:mm or -hh:mm.
func ParseDate(s string) (DateTime, error) {
	var d DateTime
	if s == "" {
		return d, nil
	}
	p := &dateScanner{s: s}

	negative := p.ch() == '-'
	if negative {
		p.pos++
	}
	year, err := p.gatherInt("invalid year in date string", 9999)
	if err != nil {
		return d, err
	}
	if p.hasNext() && p.ch() != '-' {
		return d, Errorf(KindBadValue, "invalid date string, after year")
	}
	if negative {
		year = -year
	}
	d.Year = year
	d.HasDate = true
	if !p.hasNext() {
		return d, nil
	}

	p.pos++
	if d.Month, err = p.gatherInt("invalid month in date string", 12); err != nil {
		return d, err
	}
	if p.hasNext() && p.ch() != '-' {
		return d, Errorf(KindBadValue, "invalid date string, after month")
	}
	if !p.hasNext() {
		return d, nil
	}

	p.pos++
	if d.Day, err = p.gatherInt("invalid day in date string", 31); err != nil {
		return d, err
	}
	if p.hasNext() && p.ch() != 'T' {
		return d, Errorf(KindBadValue, "invalid date string, after day")
	}
	if !p.hasNext() {
		return d, nil
	}

	p.pos++
	if d.Hour, err = p.gatherInt("invalid hour in date string", 23); err != nil {
		return d, err
	}
	if !p.hasNext() || p.ch() != ':' {
		return d, Errorf(KindBadValue, "invalid date string, after hour")
	}
	p.pos++
	if d.Minute, err = p.gatherInt("invalid minute in date string", 59); err != nil {
		return d, err
	}
	if p.hasNext() && !strings.ContainsRune(":Z+-", rune(p.ch())) {
		return d, Errorf(KindBadValue, "invalid date string, after minute")
	}
	d.HasTime = true

	if p.hasNext() && p.ch() == ':' {
		p.pos++
		if d.Second, err = p.gatherInt("invalid whole seconds in date string", 59); err != nil {
			return d, err
		}
		if p.hasNext() && !strings.ContainsRune(".Z+-", rune(p.ch())) {
			return d, Errorf(KindBadValue, "invalid date string, after whole seconds")
		}
		if p.hasNext() && p.ch() == '.' {
			p.pos++
			start := p.pos
			nano, err := p.gatherInt("invalid fractional seconds in date string", 999999999)
			if err != nil {
				return d, err
			}
			if p.hasNext() && !strings.ContainsRune("Z+-", rune(p.ch())) {
				return d, Errorf(KindBadValue, "invalid date string, after fractional second")
			}
			digits := p.pos - start
			for ; digits > 9; digits-- {
				nano /= 10
			}
			for ; digits < 9; digits++ {
				nano *= 10
			}
			d.Nanosecond = nano
		}
	}

	if p.hasNext() {
		switch p.ch() {
		case 'Z':
			p.pos++
			d.HasTimeZone = true
		case '+', '-':
			sign := 1
			if p.ch() == '-' {
				sign = -1
			}
			p.pos++
			tzHour, err := p.gatherInt("invalid time zone hour in date string", 23)
			if err != nil {
				return d, err
			}
			if !p.hasNext() || p.ch() != ':' {
				return d, Errorf(KindBadValue, "invalid date string, after time zone hour")
			}
			p.pos++
			tzMinute, err := p.gatherInt("invalid time zone minute in date string", 59)
			if err != nil {
				return d, err
			}
			d.TZOffset = sign * (tzHour*3600 + tzMinute*60)
			d.HasTimeZone = true
		}
	}
	if p.hasNext() {
		return d, Errorf(KindBadValue, "invalid date string, extra chars at end")
	}
	return d, nil
}

// String renders d, omitting trailing components that were not given.
func (d DateTime) String() string {
	if !d.HasDate {
		return ""
	}
	var b strings.Builder
	if d.Year < 0 {
		fmt.Fprintf(&b, "-%04d", -d.Year)
	} else {
		fmt.Fprintf(&b, "%04d", d.Year)
	}
	if d.Month == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "-%02d", d.Month)
	if d.Day == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "-%02d", d.Day)
	if !d.HasTime {
		return b.String()
	}
	fmt.Fprintf(&b, "T%02d:%02d", d.Hour, d.Minute)
	if d.Second != 0 || d.Nanosecond != 0 {
		fmt.Fprintf(&b, ":%02d", d.Second)
		if d.Nanosecond != 0 {
			frac := strings.TrimRight(fmt.Sprintf("%09d", d.Nanosecond), "0")
			b.WriteString("." + frac)
		}
	}
	if d.HasTimeZone {
		if d.TZOffset == 0 {
			b.WriteByte('Z')
		} else {
			offset := d.TZOffset
			sign := byte('+')
			if offset < 0 {
				sign = '-'
				offset = -offset
			}
			fmt.Fprintf(&b, "%c%02d:%02d", sign, offset/3600, (offset%3600)/60)
		}
	}
	return b.String()
}
