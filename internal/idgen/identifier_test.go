package idgen

import (
	"regexp"
	"strings"
	"testing"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

func TestSuggestIdentifier(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Website", "website"},
		{"multi word", "The Web Site Redesign", "web-site-redesign"},
		{"punctuation", "Billing & Payments (v2)", "billing-payments-v2"},
		{"numeric start", "2025 Roadmap", "p2025-roadmap"},
		{"only stop words", "The", "the"},
		{"empty", "   ", "project"},
		{"single letter", "X", "xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestIdentifier(tt.in, nil)
			if got != tt.want {
				t.Errorf("SuggestIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !identifierPattern.MatchString(got) {
				t.Errorf("SuggestIdentifier(%q) = %q is not a valid identifier", tt.in, got)
			}
		})
	}
}

func TestSuggestIdentifierLength(t *testing.T) {
	got := SuggestIdentifier(strings.Repeat("alpha beta ", 20), nil)
	if len(got) > MaxIdentifierLength {
		t.Errorf("identifier too long: %d", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("identifier has trailing hyphen: %q", got)
	}
}

func TestSuggestIdentifierCollision(t *testing.T) {
	taken := map[string]bool{"web": true, "web-2": true}
	got := SuggestIdentifier("Web", func(id string) bool { return taken[id] })
	if got != "web-3" {
		t.Errorf("got %q, want web-3", got)
	}
}
