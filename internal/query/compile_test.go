package query

import (
	"slices"
	"testing"
	"time"

	"github.com/steveyegge/redline/internal/types"
)

func TestEvaluateFilterOnly(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	result, err := EvaluateAt("status=new AND project=p1 AND assignee=none", now)
	if err != nil {
		t.Fatal(err)
	}
	if result.RequiresPredicate {
		t.Fatal("simple AND chain should not need a predicate")
	}
	if !slices.Equal(result.Filter.Status, []types.Status{types.StatusNew}) {
		t.Errorf("Filter.Status = %v", result.Filter.Status)
	}
	if !result.Filter.Assignee.IsSet() {
		t.Error("assignee filter should be set")
	}
}

func TestEvaluateRepeatedFieldUsesPredicate(t *testing.T) {
	result, err := EvaluateAt("status=new AND status=closed", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !result.RequiresPredicate {
		t.Fatal("repeated field must fall back to a predicate")
	}
	if got := result.Apply(sampleIssues()); len(got) != 0 {
		t.Errorf("contradictory query matched %v", ids(got))
	}
}

func TestQueryApply(t *testing.T) {
	now := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)
	issues := sampleIssues()

	tests := []struct {
		query string
		want  []string
	}{
		{"status=new", []string{"i1"}},
		{"status<resolved", []string{"i1", "i2"}},
		{"status>=closed", []string{"i4", "i5"}},
		{"priority>normal", []string{"i1", "i3", "i5"}},
		{"priority>=4", []string{"i3", "i5"}},
		{"tracker=bug OR type=support", []string{"i1", "i3", "i5"}},
		{"NOT status=closed AND project=p2", []string{"i3"}},
		{"assignee=none", []string{"i2", "i4", "i5"}},
		{"assignee!=none", []string{"i1", "i3"}},
		{"assignee=u2", []string{"i1"}},
		{"author=u2", []string{"i3", "i4"}},
		{"id=i*", []string{"i1", "i2", "i3", "i4", "i5"}},
		{"id!=i1", []string{"i2", "i3", "i4", "i5"}},
		{`subject="login"`, []string{"i1"}},
		{"title=crash", []string{"i5"}},
		{"description=none", []string{"i2", "i4", "i5"}},
		{"desc=login", []string{"i3"}},
		{"due=none", []string{"i2", "i5"}},
		{"due<2024-01-31", []string{"i3", "i4"}},
		{"due=2024-03-01", []string{"i1"}},
		{"updated>3d", []string{"i1", "i4", "i5"}},
		{"created<=2024-01-02", []string{"i1", "i2"}},
		{"(tracker=bug OR tracker=task) AND priority<=high", []string{"i1", "i4"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			result, err := EvaluateAt(tt.query, now)
			if err != nil {
				t.Fatalf("EvaluateAt(%q) error: %v", tt.query, err)
			}
			if got := ids(result.Apply(issues)); !slices.Equal(got, tt.want) {
				t.Errorf("query %q = %v, want %v", tt.query, got, tt.want)
			}

			pred, err := CompileIssueQuery(tt.query, types.FixedClock(now))
			if err != nil {
				t.Fatalf("CompileIssueQuery(%q) error: %v", tt.query, err)
			}
			if got := ids(MatchIssues(issues, pred)); !slices.Equal(got, tt.want) {
				t.Errorf("compiled query %q = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestEstimatedQuery(t *testing.T) {
	issues := []types.Issue{
		{ID: "a", EstimatedHours: ptr(2.5)},
		{ID: "b"},
		{ID: "c", EstimatedHours: ptr(8.0)},
	}
	pred, err := CompileIssueQuery("estimated>2", types.FixedClock(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(MatchIssues(issues, pred)); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("estimated>2 = %v", got)
	}
	pred, err = CompileIssueQuery("estimated=none", types.FixedClock(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(MatchIssues(issues, pred)); !slices.Equal(got, []string{"b"}) {
		t.Errorf("estimated=none = %v", got)
	}
}

func TestCompileIssueQueryErrors(t *testing.T) {
	clock := types.FixedClock(time.Now())
	for _, q := range []string{
		"color=red",
		"status=open",
		"priority=p9",
		"priority=9",
		"tracker=epic",
		"tracker>bug",
		"subject<abc",
		"due>xyz",
		"estimated>lots",
	} {
		if _, err := CompileIssueQuery(q, clock); err == nil {
			t.Errorf("CompileIssueQuery(%q) expected error", q)
		}
	}
}
