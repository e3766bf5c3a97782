package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokWord
	tokQuoted
	tokNumber
	tokAge // 7d, 2w
	tokDay // 2024-01-31
	tokCmp
	tokAnd
	tokOr
	tokNot
	tokOpen
	tokClose
)

var tokenKindNames = [...]string{
	tokEOF:    "end of query",
	tokWord:   "word",
	tokQuoted: "quoted text",
	tokNumber: "number",
	tokAge:    "age",
	tokDay:    "date",
	tokCmp:    "operator",
	tokAnd:    "AND",
	tokOr:     "OR",
	tokNot:    "NOT",
	tokOpen:   "'('",
	tokClose:  "')'",
}

func (k tokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("token(%d)", k)
}

type token struct {
	kind tokenKind
	text string
	op   CmpOp
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return t.kind.String()
	}
	return fmt.Sprintf("%s %q", t.kind, t.text)
}

// tokenize splits a query into tokens. The result always ends with tokEOF.
func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokOpen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokClose, text: ")", pos: i})
			i++
		case c == '=' || c == '!' || c == '<' || c == '>':
			tok, err := scanOperator(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += len(tok.text)
		case c == '"' || c == '\'':
			tok, n, err := scanQuoted(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i += n
		case isDigit(c) || ((c == '-' || c == '+') && i+1 < len(src) && isDigit(src[i+1])):
			tok := scanNumeric(src, i)
			toks = append(toks, tok)
			i += len(tok.text)
		default:
			r, _ := utf8.DecodeRuneInString(src[i:])
			if !unicode.IsLetter(r) && r != '_' {
				return nil, fmt.Errorf("unexpected character %q at position %d", r, i)
			}
			tok := scanWord(src, i)
			toks = append(toks, tok)
			i += len(tok.text)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func scanOperator(src string, i int) (token, error) {
	two := ""
	if i+1 < len(src) {
		two = src[i : i+2]
	}
	switch two {
	case "!=":
		return token{kind: tokCmp, text: two, op: Ne, pos: i}, nil
	case "<=":
		return token{kind: tokCmp, text: two, op: Le, pos: i}, nil
	case ">=":
		return token{kind: tokCmp, text: two, op: Ge, pos: i}, nil
	}
	switch src[i] {
	case '=':
		return token{kind: tokCmp, text: "=", op: Eq, pos: i}, nil
	case '<':
		return token{kind: tokCmp, text: "<", op: Lt, pos: i}, nil
	case '>':
		return token{kind: tokCmp, text: ">", op: Gt, pos: i}, nil
	}
	return token{}, fmt.Errorf("unexpected '!' at position %d (use != or NOT)", i)
}

// scanQuoted reads a single- or double-quoted string with backslash
// escapes. It returns the token and the number of bytes consumed.
func scanQuoted(src string, start int) (token, int, error) {
	quote := src[start]
	var b strings.Builder
	for i := start + 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == quote:
			return token{kind: tokQuoted, text: b.String(), pos: start}, i + 1 - start, nil
		case c == '\\':
			i++
			if i == len(src) {
				return token{}, 0, fmt.Errorf("unterminated escape at position %d", i-1)
			}
			switch src[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(src[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return token{}, 0, fmt.Errorf("unterminated string starting at position %d", start)
}

// scanNumeric reads a number (3, 1.5, -2), a date (2024-01-31) or an age
// (7d, +2w).
func scanNumeric(src string, start int) token {
	i := start
	signed := src[i] == '-' || src[i] == '+'
	if signed {
		i++
	}
	i = skipDigits(src, i)

	switch {
	case !signed && i+1 < len(src) && src[i] == '-' && isDigit(src[i+1]):
		for i < len(src) && (isDigit(src[i]) || src[i] == '-') {
			i++
		}
		return token{kind: tokDay, text: src[start:i], pos: start}
	case i+1 < len(src) && src[i] == '.' && isDigit(src[i+1]):
		i = skipDigits(src, i+1)
		return token{kind: tokNumber, text: src[start:i], pos: start}
	case i < len(src) && strings.IndexByte("hdwmyHDWMY", src[i]) >= 0 && (i+1 == len(src) || !isWordByte(src[i+1])):
		return token{kind: tokAge, text: src[start : i+1], pos: start}
	}
	return token{kind: tokNumber, text: src[start:i], pos: start}
}

// scanWord reads a field name, bare value or keyword. Words may contain
// hyphens, dots and a trailing * so ids like c1a2-b and prefixes like c1*
// stay in one token.
func scanWord(src string, start int) token {
	i := start
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("_-.*", r) {
			break
		}
		i += size
	}
	text := src[start:i]
	kind := tokWord
	switch strings.ToUpper(text) {
	case "AND":
		kind = tokAnd
	case "OR":
		kind = tokOr
	case "NOT":
		kind = tokNot
	}
	return token{kind: kind, text: text, pos: start}
}

func skipDigits(src string, i int) int {
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordByte(c byte) bool {
	return isDigit(c) || c == '_' || c == '-' || c == '.' || c == '*' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}
