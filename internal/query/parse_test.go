package query

import (
	"slices"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []tokenKind
	}{
		{"status=new", []tokenKind{tokWord, tokCmp, tokWord, tokEOF}},
		{"updated>7d", []tokenKind{tokWord, tokCmp, tokAge, tokEOF}},
		{"created>-2w", []tokenKind{tokWord, tokCmp, tokAge, tokEOF}},
		{"due<2025-01-31", []tokenKind{tokWord, tokCmp, tokDay, tokEOF}},
		{"estimated>=1.5", []tokenKind{tokWord, tokCmp, tokNumber, tokEOF}},
		{"id=c1a2-b*", []tokenKind{tokWord, tokCmp, tokWord, tokEOF}},
		{`subject!="log in"`, []tokenKind{tokWord, tokCmp, tokQuoted, tokEOF}},
		{"not (a=b or c=d)", []tokenKind{tokNot, tokOpen, tokWord, tokCmp, tokWord, tokOr, tokWord, tokCmp, tokWord, tokClose, tokEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, err := tokenize(tt.input)
			if err != nil {
				t.Fatalf("tokenize error: %v", err)
			}
			got := make([]tokenKind, len(toks))
			for i, tok := range toks {
				got[i] = tok.kind
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeValues(t *testing.T) {
	toks, err := tokenize(`priority <= high AND subject='it\'s "done"'`)
	if err != nil {
		t.Fatal(err)
	}
	if toks[1].op != Le {
		t.Errorf("operator = %v, want <=", toks[1].op)
	}
	if got := toks[len(toks)-2].text; got != `it's "done"` {
		t.Errorf("quoted text = %q", got)
	}
	if toks[2].pos != 12 {
		t.Errorf("value position = %d, want 12", toks[2].pos)
	}
}

func TestTokenizeErrors(t *testing.T) {
	for _, input := range []string{"status!new", `subject="open`, "a=#", `subject="x\`} {
		if _, err := tokenize(input); err == nil {
			t.Errorf("tokenize(%q) expected error", input)
		}
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"status=new OR status=closed AND priority=high", "(status=new OR (status=closed AND priority=high))"},
		{"status=new AND status=closed OR priority=high", "((status=new AND status=closed) OR priority=high)"},
		{"id=1 OR author=2 OR project=3", "((id=1 OR author=2) OR project=3)"},
		{"NOT status=new AND tracker=bug", "(NOT status=new AND tracker=bug)"},
		{"NOT (status=new OR tracker=bug)", "NOT (status=new OR tracker=bug)"},
		{"Title=crash AND type=bug", "(subject=crash AND tracker=bug)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, err := Parse(tt.input)
			if err != nil {
				t.Fatal(err)
			}
			if expr.String() != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.input, expr.String(), tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "empty query"},
		{"   ", "empty query"},
		{"status", "expected an operator"},
		{"status=", "expected a value"},
		{"(status=new", "expected ')'"},
		{"status=new)", "expected end of query"},
		{"=new", "expected a field name"},
		{"color=red", `unknown field "color"`},
		{"status=new AND", "expected a field name"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.input)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse(%q) error = %q, want it to mention %q", tt.input, err, tt.want)
			}
		})
	}
}
