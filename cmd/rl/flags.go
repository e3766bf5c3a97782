package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/steveyegge/redline/internal/timeparsing"
	"github.com/steveyegge/redline/internal/validation"
)

// isNone reports whether a flag value asks to clear an optional field.
func isNone(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none", "null", "-":
		return true
	}
	return false
}

// parseInto runs parse on raw and records a failure under field instead of
// returning it.
func parseInto[T any](errs validation.FieldErrors, field, raw string, parse func(string) (T, error)) T {
	v, err := parse(raw)
	if err != nil {
		errs[field] = err.Error()
	}
	return v
}

// dayParser parses calendar days relative to now ("2024-03-01", "today",
// "-2d").
func dayParser(now time.Time) func(string) (*time.Time, error) {
	return func(raw string) (*time.Time, error) {
		if isNone(raw) {
			return nil, nil
		}
		t, err := timeparsing.ParseDay(raw, now)
		if err != nil {
			return nil, err
		}
		return &t, nil
	}
}

// parseHoursFlag parses a number of hours. Range checks belong to the
// form validators.
func parseHoursFlag(raw string) (*float64, error) {
	if isNone(raw) {
		return nil, nil
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(raw), "h"), 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", raw)
	}
	return &h, nil
}

// mergeErrors copies parse failures over validator messages.
func mergeErrors(dst, parseErrs validation.FieldErrors) validation.FieldErrors {
	for k, v := range parseErrs {
		dst[k] = v
	}
	return dst
}
