package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/data/mocks"
)

type fakeSessions struct {
	expired int64
	err     error
}

func (f *fakeSessions) DeleteExpired(context.Context) (int64, error) {
	n := f.expired
	f.expired = 0
	return n, f.err
}

type harness struct {
	db       *mocks.DB
	sessions *fakeSessions
	migrated int
	closed   int
	dsn      string
}

func newHarness() *harness {
	return &harness{db: mocks.New(), sessions: &fakeSessions{}}
}

func (h *harness) open(dsn, envFile string) (*backend, func(), error) {
	h.dsn = dsn
	b := &backend{
		models:   h.db.Models(),
		sessions: h.sessions,
		migrate: func(context.Context) ([]string, error) {
			h.migrated++
			return []string{"migrations/001_catalog.sql"}, nil
		},
	}
	return b, func() { h.closed++ }, nil
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := rootCmd(h.open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "migrate", "--db-dsn", "postgres://example/catalog")
	require.NoError(t, err)
	assert.Equal(t, "applied migrations/001_catalog.sql\n", out)
	assert.Equal(t, 1, h.migrated)
	assert.Equal(t, 1, h.closed)
	assert.Equal(t, "postgres://example/catalog", h.dsn)
}

func TestCreateUser(t *testing.T) {
	h := newHarness()

	out, err := h.run(t, "createuser", "--username", "librarian", "--email", "lib@example.com", "--password", "pa55word", "--staff")
	require.NoError(t, err)
	assert.Contains(t, out, "created user librarian")

	user, err := h.db.Models().Users.GetByUsername(context.Background(), "librarian")
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.Equal(t, "lib@example.com", user.Email)

	id, err := h.db.Models().Users.Authenticate(context.Background(), "librarian", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = h.run(t, "createuser", "--username", "librarian", "--password", "pa55word")
	assert.EqualError(t, err, `username "librarian" is already taken`)
}

func TestCreateUser_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no username", []string{"--password", "pa55word"}, "username: This field is required."},
		{"short password", []string{"--username", "a", "--password", "short"}, "password: Ensure this value is at least 8."},
		{"space in username", []string{"--username", "jane doe", "--password", "pa55word"}, "username: Usernames may not contain spaces or slashes."},
		{"blank password", []string{"--username", "a", "--password", "         "}, "password: This field is required."},
		{"bad email", []string{"--username", "a", "--password", "pa55word", "--email", "nope"}, "email: Enter a valid value."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()

			_, err := h.run(t, append([]string{"createuser"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Zero(t, h.closed, "should fail before connecting")
		})
	}
}

func TestGrant(t *testing.T) {
	h := newHarness()
	id, err := h.db.Models().Users.Insert(context.Background(), "librarian", "", "pa55word", true)
	require.NoError(t, err)

	out, err := h.run(t, "grant", "--username", "librarian")
	require.NoError(t, err)
	assert.Equal(t, "granted catalog.can_mark_returned to librarian\n", out)

	perms, err := h.db.Models().Users.Permissions(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{data.PermissionMarkReturned}, perms)

	_, err = h.run(t, "grant", "--username", "nobody")
	assert.EqualError(t, err, `no user named "nobody"`)

	_, err = h.run(t, "grant", "--username", "librarian", "--permission", "catalog.can_fly")
	assert.EqualError(t, err, `unknown permission "catalog.can_fly"`)

	_, err = h.run(t, "grant")
	assert.EqualError(t, err, "--username is required")
}

func TestPruneSessions(t *testing.T) {
	h := newHarness()
	h.sessions.expired = 3

	out, err := h.run(t, "prune-sessions")
	require.NoError(t, err)
	assert.Equal(t, "deleted 3 expired sessions\n", out)

	h.sessions.err = errors.New("connection reset")
	_, err = h.run(t, "prune-sessions")
	assert.EqualError(t, err, "connection reset")
}
