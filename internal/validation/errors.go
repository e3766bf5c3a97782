// Package validation checks submitted forms and builds records from them.
//
// Validators never stop at the first problem: every failing field is
// reported in the returned FieldErrors. Constructors are the only code that
// assigns ids, defaults and timestamps.
package validation

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// FieldErrors maps a form field to its error message. A field without an
// entry is valid.
type FieldErrors map[string]string

// Has reports whether field failed validation.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// Error renders the errors as "field: message" pairs in field order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return strings.Join(parts, "; ")
}

// Err returns fe as an error, or nil when there are no errors.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// trimmedPtr trims *s and maps blank strings to nil.
func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
