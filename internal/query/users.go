package query

import (
	"slices"

	"github.com/steveyegge/redline/internal/types"
)

// UserFilters selects users.
type UserFilters struct {
	Role   []types.Role
	Search string
}

// FilterUsers returns users matching the filters in original order.
// Search covers first name, last name and email.
func FilterUsers(users []types.User, f UserFilters) []types.User {
	search := normalizeSearch(f.Search)
	out := make([]types.User, 0, len(users))
	for _, u := range users {
		if len(f.Role) > 0 && !slices.Contains(f.Role, u.Role) {
			continue
		}
		if search != "" && !containsAny(search, u.FirstName, u.LastName, u.Email) {
			continue
		}
		out = append(out, u)
	}
	return out
}

// SortUsers returns a stably sorted copy of users. String fields use
// English collation. An unknown field returns the copy unsorted.
func SortUsers(users []types.User, field types.UserSortField, dir types.SortDirection) []types.User {
	out := slices.Clone(users)
	mult := dir.Multiplier()

	if field == types.UserSortCreatedAt {
		slices.SortStableFunc(out, func(a, b types.User) int { return mult * a.CreatedAt.Compare(b.CreatedAt) })
		return out
	}

	var key func(types.User) string
	switch field {
	case types.UserSortFirstName:
		key = func(u types.User) string { return u.FirstName }
	case types.UserSortLastName:
		key = func(u types.User) string { return u.LastName }
	case types.UserSortEmail:
		key = func(u types.User) string { return u.Email }
	case types.UserSortRole:
		key = func(u types.User) string { return string(u.Role) }
	default:
		return out
	}

	c := newCollator()
	slices.SortStableFunc(out, func(a, b types.User) int { return mult * c.compare(key(a), key(b)) })
	return out
}
