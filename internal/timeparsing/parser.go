// Package timeparsing reads the date expressions accepted by --due,
// --spent-on, --from, --to and query date values.
//
// An expression is one of, tried in order: a compact offset from now
// (+6h, -1d, 2w), a calendar date (2025-02-01), an RFC3339 timestamp, or
// English such as "yesterday" or "next monday".
package timeparsing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateLayout is the wire and CLI format for calendar dates.
const DateLayout = "2006-01-02"

var english = func() *when.Parser {
	p := when.New(nil)
	p.Add(en.All...)
	p.Add(common.All...)
	return p
}()

// offset is a parsed compact duration.
type offset struct {
	n    int
	unit byte
}

func (o offset) from(t time.Time) time.Time {
	switch o.unit {
	case 'h':
		return t.Add(time.Duration(o.n) * time.Hour)
	case 'd':
		return t.AddDate(0, 0, o.n)
	case 'w':
		return t.AddDate(0, 0, 7*o.n)
	case 'm':
		return t.AddDate(0, o.n, 0)
	}
	return t.AddDate(o.n, 0, 0)
}

// scanOffset parses [+-]N followed by one of h d w m y (either case).
func scanOffset(s string) (offset, bool) {
	if len(s) < 2 {
		return offset{}, false
	}
	unit := s[len(s)-1] | 0x20
	if !strings.ContainsRune("hdwmy", rune(unit)) {
		return offset{}, false
	}
	num := s[:len(s)-1]
	neg := false
	switch num[0] {
	case '-':
		neg = true
		num = num[1:]
	case '+':
		num = num[1:]
	}
	if num == "" || strings.TrimLeft(num, "0123456789") != "" {
		return offset{}, false
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return offset{}, false
	}
	if neg {
		n = -n
	}
	return offset{n: n, unit: unit}, true
}

// IsCompactDuration reports whether s is a compact offset such as -7d.
func IsCompactDuration(s string) bool {
	_, ok := scanOffset(s)
	return ok
}

// ParseCompactDuration applies a compact offset to now. Units are hours,
// days, weeks, months and years; an unsigned amount counts forward.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	o, ok := scanOffset(s)
	if !ok {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}
	return o.from(now), nil
}

// ParseNaturalLanguage resolves English like "tomorrow" or "3 days ago"
// against now.
func ParseNaturalLanguage(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty time expression")
	}
	r, err := english.Parse(s, now)
	switch {
	case err != nil:
		return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
	case r == nil:
		return time.Time{}, fmt.Errorf("unrecognized time expression: %q", s)
	}
	return r.Time, nil
}

type layer func(s string, now time.Time) (time.Time, bool)

var layers = []layer{
	func(s string, now time.Time) (time.Time, bool) {
		o, ok := scanOffset(s)
		return o.from(now), ok
	},
	func(s string, _ time.Time) (time.Time, bool) {
		t, err := time.Parse(DateLayout, s)
		return t, err == nil
	},
	func(s string, _ time.Time) (time.Time, bool) {
		t, err := time.Parse(time.RFC3339, s)
		return t, err == nil
	},
	func(s string, now time.Time) (time.Time, bool) {
		t, err := ParseNaturalLanguage(s, now)
		return t, err == nil
	},
}

// ParseDate reads any supported expression. A calendar date is midnight
// UTC of that day.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, try := range layers {
		if t, ok := try(s, now); ok {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD, RFC3339, +/-Nd, or phrases like \"yesterday\")", s)
}

// ParseDay is ParseDate truncated to midnight UTC of the resulting day.
func ParseDay(s string, now time.Time) (time.Time, error) {
	t, err := ParseDate(s, now)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
