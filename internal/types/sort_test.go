package types

import "testing"

func TestParseIssueSort(t *testing.T) {
	tests := []struct {
		raw  string
		want IssueSort
	}{
		{"priority-desc", IssueSort{IssueSortPriority, SortDesc}},
		{"status:asc", IssueSort{IssueSortStatus, SortAsc}},
		{"due-descending", IssueSort{IssueSortDueDate, SortDesc}},
		{"Title-ASC", IssueSort{IssueSortSubject, SortAsc}},
		{"created", IssueSort{IssueSortCreatedAt, SortAsc}},
		{" updated:desc ", IssueSort{IssueSortUpdatedAt, SortDesc}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseIssueSort(tt.raw)
			if err != nil {
				t.Fatalf("ParseIssueSort(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseIssueSort(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseIssueSortRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "number-desc", "priority-sideways"} {
		if _, err := ParseIssueSort(raw); err == nil {
			t.Errorf("ParseIssueSort(%q) expected error", raw)
		}
	}
}

func TestIssueSortString(t *testing.T) {
	if got := DefaultIssueSort().String(); got != "priority-desc" {
		t.Errorf("DefaultIssueSort().String() = %q", got)
	}
}

func TestParseUserSort(t *testing.T) {
	field, dir, err := ParseUserSort("lastName-desc")
	if err != nil {
		t.Fatal(err)
	}
	if field != UserSortLastName || dir != SortDesc {
		t.Errorf("got %s %s", field, dir)
	}
	if _, _, err := ParseUserSort("age-asc"); err == nil {
		t.Error("expected error for unknown user field")
	}
}

func TestParseTimeEntrySort(t *testing.T) {
	field, dir, err := ParseTimeEntrySort("hours")
	if err != nil {
		t.Fatal(err)
	}
	if field != TimeEntrySortHours || dir != SortDesc {
		t.Errorf("bare field should default to desc, got %s %s", field, dir)
	}
	field, dir, err = ParseTimeEntrySort("spentOn:asc")
	if err != nil {
		t.Fatal(err)
	}
	if field != TimeEntrySortSpentOn || dir != SortAsc {
		t.Errorf("got %s %s", field, dir)
	}
}

func TestSortDirectionMultiplier(t *testing.T) {
	if SortAsc.Multiplier() != 1 || SortDesc.Multiplier() != -1 {
		t.Error("unexpected multipliers")
	}
}
