package idgen

import (
	"regexp"
	"strconv"
	"strings"
)

// StopWords are dropped from project names when deriving an identifier.
var StopWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"of": true, "with": true, "by": true, "from": true,
	"and": true, "or": true,
}

// MaxIdentifierLength matches the project form limit.
const MaxIdentifierLength = 50

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// SuggestIdentifier derives a project identifier from a project name.
// The result is lowercase, hyphen separated, starts with a letter, and is
// 2-50 characters long. When exists reports a collision a numeric suffix is
// appended ("web-2", "web-3", ...). exists may be nil.
func SuggestIdentifier(name string, exists func(identifier string) bool) string {
	words := strings.Fields(nonAlphanumericRegex.ReplaceAllString(strings.ToLower(name), " "))

	filtered := make([]string, 0, len(words))
	for _, w := range words {
		if !StopWords[w] {
			filtered = append(filtered, w)
		}
	}
	if len(filtered) == 0 && len(words) > 0 {
		filtered = []string{words[0]}
	}

	slug := strings.Join(filtered, "-")
	if slug == "" {
		slug = "project"
	}
	if slug[0] < 'a' || slug[0] > 'z' {
		slug = "p" + slug
	}
	if len(slug) > MaxIdentifierLength-3 {
		truncated := slug[:MaxIdentifierLength-3]
		if cut := strings.LastIndex(truncated, "-"); cut > len(truncated)/2 {
			truncated = truncated[:cut]
		}
		slug = strings.TrimRight(truncated, "-")
	}
	if len(slug) < 2 {
		slug += "x"
	}

	if exists == nil {
		return slug
	}
	id := slug
	for n := 2; exists(id) && n < 100; n++ {
		id = slug + "-" + strconv.Itoa(n)
	}
	return id
}
