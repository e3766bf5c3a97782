package ui

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var escapeCodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Login fails", 20, "Login fails"},
		{"Login fails", 11, "Login fails"},
		{"Login fails on Safari", 12, "Login fails…"},
		{"Login fails", 6, "Login…"},
		{"Über straße", 5, "Über…"},
		{"日本語テキスト", 7, "日本語…"},
		{"abc", 0, ""},
		{"", 4, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.width), "Truncate(%q, %d)", tt.in, tt.width)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "short line", 80, "short line"},
		{"greedy", "the quick brown fox jumps over the lazy dog", 20, "the quick brown fox\njumps over the lazy\ndog"},
		{"long word alone", "see https://example.com/a/long/path now", 10, "see\nhttps://example.com/a/long/path\nnow"},
		{"keeps breaks", "first\n\nsecond paragraph here", 10, "first\n\nsecond\nparagraph\nhere"},
		{"default width", "a b", 0, "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapText(tt.in, tt.width))
		})
	}
}

func TestTable(t *testing.T) {
	got := Table(
		[]string{"id", "subject", "status"},
		[][]string{
			{"i1", "Login fails", RenderStatus("new")},
			{"i22", "Docs", "in_progress", "extra"},
		},
	)
	want := "" +
		"ID   SUBJECT      STATUS\n" +
		"i1   Login fails  new\n" +
		"i22  Docs         in_progress\n"
	assert.Equal(t, want, escapeCodes.ReplaceAllString(got, ""))
}
