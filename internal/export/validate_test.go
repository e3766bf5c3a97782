package export

import (
	"encoding/json"
	"testing"
)

// validSnapshot is a minimal referentially complete snapshot.
const validSnapshot = `{
  "version": 1,
  "exportedAt": "2024-03-01T12:00:00.000Z",
  "data": {
    "users": [{"id": "u1", "email": "ann@example.com", "firstName": "Ann", "lastName": "Lee", "role": "admin", "createdAt": "2024-01-01T00:00:00.000Z"}],
    "projects": [{"id": "p1", "name": "Website", "identifier": "web", "description": "", "status": "active", "createdAt": "2024-01-01T00:00:00.000Z", "updatedAt": "2024-01-01T00:00:00.000Z"}],
    "issues": [{"id": "i1", "tracker": "bug", "subject": "Broken", "description": "", "status": "new", "priority": "normal", "dueDate": null, "estimatedHours": null, "createdAt": "2024-01-02T00:00:00.000Z", "updatedAt": "2024-01-02T00:00:00.000Z", "projectId": "p1", "authorId": "u1", "assigneeId": null}],
    "timeEntries": [{"id": "t1", "hours": 2, "comments": "", "activityType": "development", "spentOn": "2024-01-02T00:00:00.000Z", "createdAt": "2024-01-02T00:00:00.000Z", "issueId": "i1", "userId": "u1"}],
    "comments": [{"id": "c1", "content": "hi", "createdAt": "2024-01-02T00:00:00.000Z", "updatedAt": "2024-01-02T00:00:00.000Z", "issueId": "i1", "authorId": "u1"}]
  }
}`

// mutate decodes validSnapshot, applies fn and returns the raw value.
func mutate(t *testing.T, fn func(root map[string]any)) any {
	t.Helper()
	raw, err := DecodeRaw([]byte(validSnapshot), false)
	if err != nil {
		t.Fatalf("DecodeRaw: %v", err)
	}
	if fn != nil {
		fn(raw.(map[string]any))
	}
	return raw
}

func data(root map[string]any) map[string]any {
	return root["data"].(map[string]any)
}

func record(root map[string]any, table string, i int) map[string]any {
	return data(root)[table].([]any)[i].(map[string]any)
}

func TestValidateExportData(t *testing.T) {
	tests := []struct {
		name string
		raw  func(t *testing.T) any
		want string
	}{
		{
			name: "valid",
			raw:  func(t *testing.T) any { return mutate(t, nil) },
		},
		{
			name: "not an object",
			raw:  func(t *testing.T) any { return []any{} },
			want: "Invalid export format: expected an object",
		},
		{
			name: "nil input",
			raw:  func(t *testing.T) any { return nil },
			want: "Invalid export format: expected an object",
		},
		{
			name: "unsupported version",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { r["version"] = json.Number("2") })
			},
			want: "Unsupported export version: 2",
		},
		{
			name: "missing version",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { delete(r, "version") })
			},
			want: "Unsupported export version: missing",
		},
		{
			name: "string version",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { r["version"] = "1" })
			},
			want: "Unsupported export version: 1",
		},
		{
			name: "missing data",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { delete(r, "data") })
			},
			want: "Invalid export format: missing data section",
		},
		{
			name: "data is an array",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { r["data"] = []any{} })
			},
			want: "Invalid export format: missing data section",
		},
		{
			name: "missing timeEntries",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { delete(data(r), "timeEntries") })
			},
			want: "Invalid export format: missing or invalid timeEntries array",
		},
		{
			name: "users is an object",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { data(r)["users"] = map[string]any{} })
			},
			want: "Invalid export format: missing or invalid users array",
		},
		{
			name: "user missing email",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { delete(record(r, "users", 0), "email") })
			},
			want: "Invalid user record at index 0: missing required fields",
		},
		{
			name: "user with empty last name",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "users", 0)["lastName"] = "" })
			},
			want: "Invalid user record at index 0: missing required fields",
		},
		{
			name: "user id is a number",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "users", 0)["id"] = json.Number("7") })
			},
			want: "Invalid user record at index 0: missing required fields",
		},
		{
			name: "project record is not an object",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) {
					d := data(r)
					d["projects"] = append(d["projects"].([]any), "p2")
				})
			},
			want: "Invalid project record at index 1: missing required fields",
		},
		{
			name: "issue missing subject",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { delete(record(r, "issues", 0), "subject") })
			},
			want: "Invalid issue record at index 0: missing required fields",
		},
		{
			name: "issue with unknown project",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "issues", 0)["projectId"] = "p9" })
			},
			want: "Issue references non-existent project: p9",
		},
		{
			name: "issue with unknown author",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "issues", 0)["authorId"] = "u9" })
			},
			want: "Issue references non-existent author: u9",
		},
		{
			name: "issue with unknown assignee",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "issues", 0)["assigneeId"] = "missing" })
			},
			want: "Issue references non-existent assignee: missing",
		},
		{
			name: "issue without assignee key",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { delete(record(r, "issues", 0), "assigneeId") })
			},
		},
		{
			name: "issue with empty assignee",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "issues", 0)["assigneeId"] = "" })
			},
		},
		{
			name: "null version",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { r["version"] = nil })
			},
			want: "Unsupported export version: missing",
		},
		{
			name: "time entry missing user",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "timeEntries", 0)["userId"] = "" })
			},
			want: "Invalid time entry record at index 0: missing required fields",
		},
		{
			name: "time entry with unknown issue",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "timeEntries", 0)["issueId"] = "i9" })
			},
			want: "Time entry references non-existent issue: i9",
		},
		{
			name: "time entry with unknown user",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "timeEntries", 0)["userId"] = "u9" })
			},
			want: "Time entry references non-existent user: u9",
		},
		{
			name: "comment missing content is fine",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { delete(record(r, "comments", 0), "content") })
			},
		},
		{
			name: "comment missing author",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { delete(record(r, "comments", 0), "authorId") })
			},
			want: "Invalid comment record at index 0: missing required fields",
		},
		{
			name: "comment with unknown issue",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "comments", 0)["issueId"] = "i9" })
			},
			want: "Comment references non-existent issue: i9",
		},
		{
			name: "comment with unknown author",
			raw: func(t *testing.T) any {
				return mutate(t, func(r map[string]any) { record(r, "comments", 0)["authorId"] = "u9" })
			},
			want: "Comment references non-existent author: u9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateExportData(tt.raw(t))
			if got.Valid != (tt.want == "") {
				t.Fatalf("Valid = %v, error %q", got.Valid, got.Error)
			}
			if got.Error != tt.want {
				t.Errorf("Error = %q, want %q", got.Error, tt.want)
			}
		})
	}
}

func TestValidateExportDataStopsAtFirstFailure(t *testing.T) {
	// The project is missing and the time entry points at an unknown user;
	// only the project problem is reported.
	raw := mutate(t, func(r map[string]any) {
		record(r, "issues", 0)["projectId"] = "gone"
		record(r, "timeEntries", 0)["userId"] = "ghost"
	})
	got := ValidateExportData(raw)
	if got.Error != "Issue references non-existent project: gone" {
		t.Errorf("Error = %q", got.Error)
	}
}

func TestValidateExportDataForwardReferences(t *testing.T) {
	// A comment may only reference issues, never other comments; an issue
	// listed after the comment's issue still resolves because all issues
	// are checked before any comment.
	raw := mutate(t, func(r map[string]any) {
		d := data(r)
		issue := map[string]any{"id": "i2", "subject": "Later", "projectId": "p1", "authorId": "u1"}
		d["issues"] = append(d["issues"].([]any), issue)
		record(r, "comments", 0)["issueId"] = "i2"
	})
	if got := ValidateExportData(raw); !got.Valid {
		t.Errorf("unexpected error %q", got.Error)
	}
}

func TestValidateExportDataPlainUnmarshal(t *testing.T) {
	var raw any
	if err := json.Unmarshal([]byte(validSnapshot), &raw); err != nil {
		t.Fatal(err)
	}
	if got := ValidateExportData(raw); !got.Valid {
		t.Errorf("float64 version rejected: %q", got.Error)
	}
}
