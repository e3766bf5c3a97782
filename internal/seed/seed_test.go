package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/redline/internal/idgen"
	"github.com/steveyegge/redline/internal/testutil/teststore"
	"github.com/steveyegge/redline/internal/types"
)

var seedClock = types.FixedClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC))

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleSeed = `
[[users]]
email = "Ann@Example.com"
first_name = "Ann"
last_name = "Lee"
role = "Admin"

[[users]]
email = "bob@example.com"
first_name = "Bob"
last_name = "Ray"
role = "developer"

[[projects]]
name = "Website"
identifier = "web"

[[projects]]
name = "The Mobile App"
status = "archived"
description = "  iOS and Android  "
`

func TestLoad(t *testing.T) {
	f, err := Load(writeSeed(t, sampleSeed))
	require.NoError(t, err)
	require.Len(t, f.Users, 2)
	require.Len(t, f.Projects, 2)
	assert.Equal(t, "Ann", f.Users[0].FirstName)
	assert.Equal(t, "archived", f.Projects[1].Status)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeSeed(t, "[[users]]\nemail = \"a@b.co\"\nfirstname = \"Al\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys: users.firstname")
}

func TestLoadBadSyntax(t *testing.T) {
	_, err := Load(writeSeed(t, "[[users]\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	f, err := Load(writeSeed(t, sampleSeed))
	require.NoError(t, err)

	result, err := Apply(ctx, store, f, idgen.NewSequence("s"), seedClock)
	require.NoError(t, err)
	assert.Equal(t, &Result{UsersCreated: 2, ProjectsCreated: 2}, result)

	ann, err := store.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", ann.Email)
	assert.Equal(t, types.RoleAdmin, ann.Role)
	assert.True(t, ann.CreatedAt.Equal(time.Time(seedClock)))

	mobile, err := store.GetProjectByIdentifier(ctx, "mobile-app")
	require.NoError(t, err)
	assert.Equal(t, types.ProjectArchived, mobile.Status)
	assert.Equal(t, "iOS and Android", mobile.Description)

	web, err := store.GetProjectByIdentifier(ctx, "web")
	require.NoError(t, err)
	assert.Equal(t, types.ProjectActive, web.Status)

	// Applying again skips everything.
	again, err := Apply(ctx, store, f, idgen.NewSequence("t"), seedClock)
	require.NoError(t, err)
	assert.Equal(t, &Result{UsersSkipped: 2, ProjectsSkipped: 2}, again)
}

func TestApplyDerivedIdentifierAvoidsCollision(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	teststore.Seed(t, store) // holds identifier "web" named "Website"

	f := &File{Projects: []Project{{Name: "Web"}}}
	result, err := Apply(ctx, store, f, idgen.NewSequence("s"), seedClock)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProjectsCreated)

	p, err := store.GetProjectByIdentifier(ctx, "web-2")
	require.NoError(t, err)
	assert.Equal(t, "Web", p.Name)

	// Same name again: the derived identifier now belongs to it, so skip.
	f = &File{Projects: []Project{{Name: "Website"}}}
	_, err = Apply(ctx, store, f, idgen.NewSequence("t"), seedClock)
	require.NoError(t, err)
	result, err = Apply(ctx, store, f, idgen.NewSequence("u"), seedClock)
	require.NoError(t, err)
	assert.Equal(t, &Result{ProjectsSkipped: 1}, result)
}

func TestApplyInvalidRecord(t *testing.T) {
	tests := []struct {
		name       string
		file       File
		wantKind   string
		wantIndex  int
		wantFields map[string]string
	}{
		{
			name: "bad role and short name",
			file: File{Users: []User{
				{Email: "ok@example.com", FirstName: "Ok", LastName: "Person", Role: "reporter"},
				{Email: "x@example.com", FirstName: "X", LastName: "Yz", Role: "owner"},
			}},
			wantKind:  "user",
			wantIndex: 1,
			wantFields: map[string]string{
				"firstName": "First name must be at least 2 characters",
				"role":      `invalid role "owner" (valid: admin, manager, developer, reporter)`,
			},
		},
		{
			name:      "missing role",
			file:      File{Users: []User{{Email: "x@example.com", FirstName: "Xi", LastName: "Yz"}}},
			wantKind:  "user",
			wantIndex: 0,
			wantFields: map[string]string{
				"role": "Role is required",
			},
		},
		{
			name:      "bad identifier",
			file:      File{Projects: []Project{{Name: "Website", Identifier: "1web"}}},
			wantKind:  "project",
			wantIndex: 0,
			wantFields: map[string]string{
				"identifier": "Identifier must start with a letter",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := teststore.New(t)
			_, err := Apply(context.Background(), store, &tt.file, idgen.NewSequence("s"), seedClock)

			var rerr *RecordError
			require.True(t, errors.As(err, &rerr), "got %v", err)
			assert.Equal(t, tt.wantKind, rerr.Kind)
			assert.Equal(t, tt.wantIndex, rerr.Index)
			assert.Equal(t, tt.wantFields, map[string]string(rerr.Fields))
		})
	}
}

func TestApplyKeepsEarlierRecordsOnError(t *testing.T) {
	ctx := context.Background()
	store := teststore.New(t)
	f := &File{Users: []User{
		{Email: "ok@example.com", FirstName: "Ok", LastName: "Person", Role: "manager"},
		{Email: "not-an-email", FirstName: "No", LastName: "Way", Role: "manager"},
	}}

	result, err := Apply(ctx, store, f, idgen.NewSequence("s"), seedClock)
	require.Error(t, err)
	assert.Equal(t, 1, result.UsersCreated)
	assert.Contains(t, err.Error(), "invalid user at index 1: email: Invalid email address")

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
