package export

import (
	"encoding/json"
	"fmt"
)

// ValidationResult is the outcome of ValidateExportData. Error holds the
// first violation found and is empty when Valid is true.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{Error: fmt.Sprintf(format, args...)}
}

// tableKeys are the arrays required under "data", in checking order.
var tableKeys = []string{"users", "projects", "issues", "timeEntries", "comments"}

// ValidateExportData checks an untyped decoded snapshot (as produced by
// DecodeRaw or json.Unmarshal into any) and stops at the first problem.
//
// Checks run in order: envelope and version, the five data arrays, then
// required fields and references for users, projects, issues, time entries
// and comments. References only resolve to records checked earlier.
func ValidateExportData(raw any) ValidationResult {
	root, ok := raw.(map[string]any)
	if !ok {
		return invalid("Invalid export format: expected an object")
	}
	switch version := root["version"]; {
	case version == nil:
		return invalid("Unsupported export version: missing")
	case !isSupportedVersion(version):
		return invalid("Unsupported export version: %v", version)
	}

	data, ok := root["data"].(map[string]any)
	if !ok {
		return invalid("Invalid export format: missing data section")
	}
	tables := make(map[string][]any, len(tableKeys))
	for _, key := range tableKeys {
		arr, ok := data[key].([]any)
		if !ok {
			return invalid("Invalid export format: missing or invalid %s array", key)
		}
		tables[key] = arr
	}

	userIDs := make(map[string]bool)
	for i, rec := range tables["users"] {
		fields, ok := requireFields(rec, "id", "email", "firstName", "lastName")
		if !ok {
			return invalid("Invalid user record at index %d: missing required fields", i)
		}
		userIDs[fields["id"]] = true
	}

	projectIDs := make(map[string]bool)
	for i, rec := range tables["projects"] {
		fields, ok := requireFields(rec, "id", "name", "identifier")
		if !ok {
			return invalid("Invalid project record at index %d: missing required fields", i)
		}
		projectIDs[fields["id"]] = true
	}

	issueIDs := make(map[string]bool)
	for i, rec := range tables["issues"] {
		fields, ok := requireFields(rec, "id", "subject", "projectId", "authorId")
		if !ok {
			return invalid("Invalid issue record at index %d: missing required fields", i)
		}
		if !projectIDs[fields["projectId"]] {
			return invalid("Issue references non-existent project: %s", fields["projectId"])
		}
		if !userIDs[fields["authorId"]] {
			return invalid("Issue references non-existent author: %s", fields["authorId"])
		}
		if assignee := rec.(map[string]any)["assigneeId"]; assignee != nil && assignee != "" {
			if id, _ := assignee.(string); !userIDs[id] {
				return invalid("Issue references non-existent assignee: %v", assignee)
			}
		}
		issueIDs[fields["id"]] = true
	}

	for i, rec := range tables["timeEntries"] {
		fields, ok := requireFields(rec, "id", "issueId", "userId")
		if !ok {
			return invalid("Invalid time entry record at index %d: missing required fields", i)
		}
		if !issueIDs[fields["issueId"]] {
			return invalid("Time entry references non-existent issue: %s", fields["issueId"])
		}
		if !userIDs[fields["userId"]] {
			return invalid("Time entry references non-existent user: %s", fields["userId"])
		}
	}

	for i, rec := range tables["comments"] {
		fields, ok := requireFields(rec, "id", "issueId", "authorId")
		if !ok {
			return invalid("Invalid comment record at index %d: missing required fields", i)
		}
		if !issueIDs[fields["issueId"]] {
			return invalid("Comment references non-existent issue: %s", fields["issueId"])
		}
		if !userIDs[fields["authorId"]] {
			return invalid("Comment references non-existent author: %s", fields["authorId"])
		}
	}

	return ValidationResult{Valid: true}
}

// isSupportedVersion accepts FormatVersion as a json.Number (UseNumber
// decoding), a float64 (plain json.Unmarshal) or an int.
func isSupportedVersion(v any) bool {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return err == nil && f == FormatVersion
	case float64:
		return n == FormatVersion
	case int:
		return n == FormatVersion
	}
	return false
}

// requireFields returns the named string fields of rec. ok is false when rec
// is not an object or any field is missing, not a string, or empty.
func requireFields(rec any, names ...string) (map[string]string, bool) {
	obj, ok := rec.(map[string]any)
	if !ok {
		return nil, false
	}
	fields := make(map[string]string, len(names))
	for _, name := range names {
		s, ok := obj[name].(string)
		if !ok || s == "" {
			return nil, false
		}
		fields[name] = s
	}
	return fields, true
}
