package query

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/steveyegge/redline/internal/timeparsing"
	"github.com/steveyegge/redline/internal/types"
)

// IssuePredicate reports whether an issue matches a compiled query.
type IssuePredicate func(types.Issue) bool

// QueryResult is an evaluated query. An AND chain of "=" tests on distinct
// filterable fields (status, priority, tracker, project, assignee) becomes
// Filter alone; any other query carries a Predicate as well.
type QueryResult struct {
	Filter            IssueFilters
	Predicate         IssuePredicate
	RequiresPredicate bool
}

// Apply runs the filter and, when required, the predicate.
func (r *QueryResult) Apply(issues []types.Issue) []types.Issue {
	out := FilterIssues(issues, r.Filter)
	if r.RequiresPredicate && r.Predicate != nil {
		out = MatchIssues(out, r.Predicate)
	}
	return out
}

// EvaluateAt parses query and resolves relative dates against now.
func EvaluateAt(query string, now time.Time) (*QueryResult, error) {
	expr, err := Parse(query)
	if err != nil {
		return nil, err
	}
	filter, ok, err := asFilter(expr)
	if err != nil {
		return nil, err
	}
	if ok {
		return &QueryResult{Filter: filter}, nil
	}
	pred, err := compile(expr, now)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Predicate: pred, RequiresPredicate: true}, nil
}

// CompileIssueQuery parses query into one predicate evaluated against
// clock.Now().
func CompileIssueQuery(query string, clock types.Clock) (IssuePredicate, error) {
	expr, err := Parse(query)
	if err != nil {
		return nil, err
	}
	return compile(expr, clock.Now())
}

// MatchIssues keeps the issues accepted by pred, in order.
func MatchIssues(issues []types.Issue, pred IssuePredicate) []types.Issue {
	out := make([]types.Issue, 0, len(issues))
	for _, issue := range issues {
		if pred(issue) {
			out = append(out, issue)
		}
	}
	return out
}

var filterable = map[string]bool{"status": true, "priority": true, "tracker": true, "project": true, "assignee": true}

// asFilter converts expr to IssueFilters when it qualifies. ok is false
// when expr needs a predicate.
func asFilter(expr Expr) (f IssueFilters, ok bool, err error) {
	var tests []*Comparison
	if !flattenAnd(expr, &tests) {
		return f, false, nil
	}
	seen := make(map[string]bool, len(tests))
	for _, c := range tests {
		if c.Op != Eq || !filterable[c.Field] || seen[c.Field] {
			return f, false, nil
		}
		seen[c.Field] = true
	}

	for _, c := range tests {
		switch c.Field {
		case "status":
			s, err := parseStatusValue(c.Value)
			if err != nil {
				return f, false, err
			}
			f.Status = []types.Status{s}
		case "priority":
			p, err := parsePriorityValue(c.Value)
			if err != nil {
				return f, false, err
			}
			f.Priority = []types.Priority{p}
		case "tracker":
			t, err := parseTrackerValue(c.Value)
			if err != nil {
				return f, false, err
			}
			f.Tracker = []types.Tracker{t}
		case "project":
			f.ProjectID = []string{c.Value}
		case "assignee":
			if isNone(c.Value) {
				f.Assignee = Unassigned()
			} else {
				f.Assignee = AssignedTo(c.Value)
			}
		}
	}
	return f, true, nil
}

func flattenAnd(expr Expr, out *[]*Comparison) bool {
	switch e := expr.(type) {
	case *Comparison:
		*out = append(*out, e)
		return true
	case *Logical:
		return !e.Or && flattenAnd(e.Left, out) && flattenAnd(e.Right, out)
	}
	return false
}

func compile(expr Expr, now time.Time) (IssuePredicate, error) {
	switch e := expr.(type) {
	case *Comparison:
		build, ok := fieldPredicates[e.Field]
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", e.Field)
		}
		return build(e, now)
	case *Logical:
		left, err := compile(e.Left, now)
		if err != nil {
			return nil, err
		}
		right, err := compile(e.Right, now)
		if err != nil {
			return nil, err
		}
		if e.Or {
			return func(i types.Issue) bool { return left(i) || right(i) }, nil
		}
		return func(i types.Issue) bool { return left(i) && right(i) }, nil
	case *Negation:
		x, err := compile(e.X, now)
		if err != nil {
			return nil, err
		}
		return func(i types.Issue) bool { return !x(i) }, nil
	}
	return nil, fmt.Errorf("unexpected expression %T", expr)
}

type predicateBuilder func(c *Comparison, now time.Time) (IssuePredicate, error)

// fieldPredicates holds one builder per queryable field.
var fieldPredicates = map[string]predicateBuilder{
	"status": func(c *Comparison, _ time.Time) (IssuePredicate, error) {
		s, err := parseStatusValue(c.Value)
		if err != nil {
			return nil, err
		}
		return ranked(c.Op, s.Rank(), func(i types.Issue) int { return i.Status.Rank() }), nil
	},
	"priority": func(c *Comparison, _ time.Time) (IssuePredicate, error) {
		p, err := parsePriorityValue(c.Value)
		if err != nil {
			return nil, err
		}
		return ranked(c.Op, p.Rank(), func(i types.Issue) int { return i.Priority.Rank() }), nil
	},
	"tracker": func(c *Comparison, _ time.Time) (IssuePredicate, error) {
		t, err := parseTrackerValue(c.Value)
		if err != nil {
			return nil, err
		}
		return equality(c, string(t), func(i types.Issue) string { return string(i.Tracker) })
	},
	"project":     exactField(func(i types.Issue) string { return i.ProjectID }),
	"author":      exactField(func(i types.Issue) string { return i.AuthorID }),
	"assignee":    assigneePredicate,
	"id":          idPredicate,
	"subject":     textField(func(i types.Issue) string { return i.Subject }),
	"description": textField(func(i types.Issue) string { return i.Description }),
	"estimated":   estimatedPredicate,
	"created":     timeField(func(i types.Issue) *time.Time { return &i.CreatedAt }),
	"updated":     timeField(func(i types.Issue) *time.Time { return &i.UpdatedAt }),
	"due":         timeField(func(i types.Issue) *time.Time { return i.DueDate }),
}

func unsupported(c *Comparison) error {
	return fmt.Errorf("%s does not support the %s operator", c.Field, c.Op)
}

func ranked(op CmpOp, target int, rank func(types.Issue) int) IssuePredicate {
	return func(i types.Issue) bool { return op.holds(cmp.Compare(rank(i), target)) }
}

func equality(c *Comparison, want string, get func(types.Issue) string) (IssuePredicate, error) {
	switch c.Op {
	case Eq:
		return func(i types.Issue) bool { return get(i) == want }, nil
	case Ne:
		return func(i types.Issue) bool { return get(i) != want }, nil
	}
	return nil, unsupported(c)
}

// presence answers field=none and field!=none.
func presence(c *Comparison, isSet func(types.Issue) bool) (IssuePredicate, error) {
	switch c.Op {
	case Eq:
		return func(i types.Issue) bool { return !isSet(i) }, nil
	case Ne:
		return isSet, nil
	}
	return nil, fmt.Errorf("%s=none only supports = and !=", c.Field)
}

func exactField(get func(types.Issue) string) predicateBuilder {
	return func(c *Comparison, _ time.Time) (IssuePredicate, error) {
		return equality(c, c.Value, get)
	}
}

func assigneePredicate(c *Comparison, _ time.Time) (IssuePredicate, error) {
	if isNone(c.Value) {
		return presence(c, func(i types.Issue) bool { return i.AssigneeID != nil })
	}
	return equality(c, c.Value, func(i types.Issue) string {
		if i.AssigneeID == nil {
			return ""
		}
		return *i.AssigneeID
	})
}

// idPredicate matches exact ids, or prefixes written as c1*.
func idPredicate(c *Comparison, _ time.Time) (IssuePredicate, error) {
	prefix, wildcard := strings.CutSuffix(c.Value, "*")
	if !wildcard {
		return equality(c, c.Value, func(i types.Issue) string { return i.ID })
	}
	hasPrefix := func(i types.Issue) bool { return strings.HasPrefix(i.ID, prefix) }
	switch c.Op {
	case Eq:
		return hasPrefix, nil
	case Ne:
		return func(i types.Issue) bool { return !hasPrefix(i) }, nil
	}
	return nil, fmt.Errorf("id with * only supports = and !=")
}

// textField matches case-insensitive substrings. An unquoted none matches
// an empty value.
func textField(get func(types.Issue) string) predicateBuilder {
	return func(c *Comparison, _ time.Time) (IssuePredicate, error) {
		if isNone(c.Value) && c.Kind != ValueText {
			return presence(c, func(i types.Issue) bool { return get(i) != "" })
		}
		needle := strings.ToLower(c.Value)
		contains := func(i types.Issue) bool { return strings.Contains(strings.ToLower(get(i)), needle) }
		switch c.Op {
		case Eq:
			return contains, nil
		case Ne:
			return func(i types.Issue) bool { return !contains(i) }, nil
		}
		return nil, unsupported(c)
	}
}

func estimatedPredicate(c *Comparison, _ time.Time) (IssuePredicate, error) {
	if isNone(c.Value) {
		return presence(c, func(i types.Issue) bool { return i.EstimatedHours != nil })
	}
	target, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid estimated hours: %s", c.Value)
	}
	return func(i types.Issue) bool {
		return i.EstimatedHours != nil && c.Op.holds(cmp.Compare(*i.EstimatedHours, target))
	}, nil
}

// timeField compares a timestamp. = and != compare calendar days (UTC);
// the other operators compare instants. A missing timestamp never matches
// except through field=none.
func timeField(get func(types.Issue) *time.Time) predicateBuilder {
	return func(c *Comparison, now time.Time) (IssuePredicate, error) {
		if isNone(c.Value) {
			return presence(c, func(i types.Issue) bool { return get(i) != nil })
		}
		target, err := resolveTime(c, now)
		if err != nil {
			return nil, fmt.Errorf("invalid %s time: %w", c.Field, err)
		}
		targetDay := types.StartOfDay(target.UTC())
		return func(i types.Issue) bool {
			actual := get(i)
			if actual == nil {
				return false
			}
			switch c.Op {
			case Eq:
				return types.StartOfDay(actual.UTC()).Equal(targetDay)
			case Ne:
				return !types.StartOfDay(actual.UTC()).Equal(targetDay)
			}
			return c.Op.holds(actual.Compare(target))
		}, nil
	}
}

// resolveTime turns a value into an instant. An age like 7d means seven
// days before now.
func resolveTime(c *Comparison, now time.Time) (time.Time, error) {
	if c.Kind == ValueAge {
		return timeparsing.ParseCompactDuration("-"+strings.TrimLeft(c.Value, "+-"), now)
	}
	return timeparsing.ParseDate(c.Value, now)
}

func isNone(v string) bool {
	switch strings.ToLower(v) {
	case "none", "null", "":
		return true
	}
	return false
}

func parseStatusValue(v string) (types.Status, error) {
	s := types.Status(strings.ToLower(v))
	if !s.IsValid() {
		return "", fmt.Errorf("invalid status: %s", v)
	}
	return s, nil
}

// parsePriorityValue accepts a name (high) or a rank (3).
func parsePriorityValue(v string) (types.Priority, error) {
	if n, err := strconv.Atoi(v); err == nil {
		for _, p := range types.AllPriorities() {
			if p.Rank() == n {
				return p, nil
			}
		}
		return "", fmt.Errorf("invalid priority: %s (ranks are 1-5)", v)
	}
	p := types.Priority(strings.ToLower(v))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority: %s", v)
	}
	return p, nil
}

func parseTrackerValue(v string) (types.Tracker, error) {
	t := types.Tracker(strings.ToLower(v))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid tracker: %s", v)
	}
	return t, nil
}
