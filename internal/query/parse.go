// Package query filters and sorts tracker records.
//
// The filter and sort functions are pure: they never modify their input
// and never read the wall clock. The package also compiles a small query
// language for issues:
//
//	status=new AND priority>normal
//	(tracker=bug OR tracker=support) AND assignee=none
//	NOT status=closed AND updated>7d
//	due<2024-01-31 OR subject="login page"
//
// NOT binds tighter than AND, which binds tighter than OR. Ages such as 7d
// or 2w mean "that long before now".
package query

import (
	"errors"
	"fmt"
	"strings"
)

// CmpOp is a comparison operator.
type CmpOp uint8

const (
	Eq CmpOp = iota + 1
	Ne
	Lt
	Le
	Gt
	Ge
)

var cmpOpText = [...]string{Eq: "=", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">="}

func (op CmpOp) String() string {
	if op >= Eq && op <= Ge {
		return cmpOpText[op]
	}
	return "?"
}

// holds reports whether op accepts a three-way comparison result.
func (op CmpOp) holds(c int) bool {
	switch op {
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	}
	return false
}

// ValueKind records how a comparison value was written.
type ValueKind uint8

const (
	ValueWord   ValueKind = iota // new, u2, none
	ValueText                    // "quoted text"
	ValueNumber                  // 3, 1.5
	ValueAge                     // 7d, 2w
	ValueDay                     // 2024-01-31
)

var valueKinds = map[tokenKind]ValueKind{
	tokWord:   ValueWord,
	tokQuoted: ValueText,
	tokNumber: ValueNumber,
	tokAge:    ValueAge,
	tokDay:    ValueDay,
}

// Expr is a parsed query.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Comparison tests one issue field, e.g. priority>=high. Field is the
// canonical lowercase name with aliases resolved.
type Comparison struct {
	Field string
	Op    CmpOp
	Value string
	Kind  ValueKind
}

// Logical joins two expressions with AND, or with OR when Or is set.
type Logical struct {
	Or          bool
	Left, Right Expr
}

// Negation inverts an expression.
type Negation struct {
	X Expr
}

func (*Comparison) isExpr() {}
func (*Logical) isExpr()    {}
func (*Negation) isExpr()   {}

func (c *Comparison) String() string { return c.Field + c.Op.String() + c.Value }

func (l *Logical) String() string {
	word := "AND"
	if l.Or {
		word = "OR"
	}
	return "(" + l.Left.String() + " " + word + " " + l.Right.String() + ")"
}

func (n *Negation) String() string { return "NOT " + n.X.String() }

// fieldAliases maps alternative field names to their canonical name.
var fieldAliases = map[string]string{
	"title":      "subject",
	"desc":       "description",
	"type":       "tracker",
	"due_date":   "due",
	"created_at": "created",
	"updated_at": "updated",
}

func canonicalField(name string) string {
	name = strings.ToLower(name)
	if canonical, ok := fieldAliases[name]; ok {
		return canonical
	}
	return name
}

// Parse parses a query into an expression tree. Unknown fields are
// rejected here; value checks happen when the query is compiled.
func Parse(query string) (Expr, error) {
	toks, err := tokenize(query)
	if err != nil {
		return nil, err
	}
	if toks[0].kind == tokEOF {
		return nil, errors.New("empty query")
	}
	p := &parser{toks: toks}
	expr, err := p.binary(1)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s at position %d, expected end of query", t, t.pos)
	}
	return expr, nil
}

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

// precedence of a binary keyword; 0 for anything else.
func precedence(k tokenKind) int {
	switch k {
	case tokOr:
		return 1
	case tokAnd:
		return 2
	}
	return 0
}

// binary parses operators of at least minPrec, left-associatively.
func (p *parser) binary(minPrec int) (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		prec := precedence(p.peek().kind)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		op := p.next()
		right, err := p.binary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Logical{Or: op.kind == tokOr, Left: left, Right: right}
	}
}

func (p *parser) unary() (Expr, error) {
	switch p.peek().kind {
	case tokNot:
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Negation{X: x}, nil
	case tokOpen:
		p.next()
		x, err := p.binary(1)
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokClose {
			return nil, fmt.Errorf("expected ')' at position %d, got %s", t.pos, t)
		}
		return x, nil
	}
	return p.comparison()
}

func (p *parser) comparison() (Expr, error) {
	name := p.next()
	if name.kind != tokWord {
		return nil, fmt.Errorf("expected a field name at position %d, got %s", name.pos, name)
	}
	field := canonicalField(name.text)
	if _, ok := fieldPredicates[field]; !ok {
		return nil, fmt.Errorf("unknown field %q at position %d", name.text, name.pos)
	}
	op := p.next()
	if op.kind != tokCmp {
		return nil, fmt.Errorf("expected an operator after %s at position %d, got %s", name.text, op.pos, op)
	}
	val := p.next()
	kind, ok := valueKinds[val.kind]
	if !ok {
		return nil, fmt.Errorf("expected a value for %s at position %d, got %s", name.text, val.pos, val)
	}
	return &Comparison{Field: field, Op: op.op, Value: val.text, Kind: kind}, nil
}
