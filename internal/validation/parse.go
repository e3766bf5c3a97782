package validation

import (
	"fmt"
	"strings"

	"github.com/steveyegge/redline/internal/types"
)

// parseEnum matches raw against all, ignoring case and surrounding space.
func parseEnum[T ~string](kind, raw string, all []T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(raw)))
	for _, candidate := range all {
		if candidate == v {
			return candidate, nil
		}
	}
	valid := make([]string, len(all))
	for i, c := range all {
		valid[i] = string(c)
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q (valid: %s)", kind, raw, strings.Join(valid, ", "))
}

// ParsePriority parses a priority name such as "high".
func ParsePriority(raw string) (types.Priority, error) {
	return parseEnum("priority", raw, types.AllPriorities())
}

// ParseStatus parses an issue status. "in-progress" is accepted for
// in_progress.
func ParseStatus(raw string) (types.Status, error) {
	return parseEnum("status", strings.ReplaceAll(raw, "-", "_"), types.AllStatuses())
}

// ParseTracker parses a tracker name.
func ParseTracker(raw string) (types.Tracker, error) {
	return parseEnum("tracker", raw, types.AllTrackers())
}

// ParseRole parses a user role.
func ParseRole(raw string) (types.Role, error) {
	return parseEnum("role", raw, types.AllRoles())
}

// ParseProjectStatus parses a project status.
func ParseProjectStatus(raw string) (types.ProjectStatus, error) {
	return parseEnum("project status", raw, types.AllProjectStatuses())
}

// ParseActivityType parses one of the known activity types.
func ParseActivityType(raw string) (types.ActivityType, error) {
	return parseEnum("activity type", raw, types.AllActivityTypes())
}

// ParseList splits a comma-separated flag value and parses every element.
func ParseList[T any](raw []string, parse func(string) (T, error)) ([]T, error) {
	var out []T
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			v, err := parse(part)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}
