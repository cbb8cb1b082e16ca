package data

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB connects to the database named by CATALOG_TEST_DSN, applies the
// schema and drops it again when the test ends. Tests are skipped without it.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("CATALOG_TEST_DSN")
	if dsn == "" {
		t.Skip("CATALOG_TEST_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	_, err = Migrate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		defer db.Close()
		_, err := db.Exec(`DROP TABLE IF EXISTS sessions, book_instances, user_permissions, users,
			book_genres, books, authors, languages, genres`)
		require.NoError(t, err)
	})
	return db
}

func TestPostgres_AuthorDeleteSetsNull(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := NewModels(db)

	born := Date(1920, time.October, 8)
	author := &Author{FirstName: "Frank", LastName: "Herbert", DateOfBirth: &born}
	require.NoError(t, m.Authors.Insert(ctx, author))

	genre := &Genre{Name: "Science Fiction"}
	require.NoError(t, m.Genres.Insert(ctx, genre))

	book := &Book{Title: "Dune", AuthorID: &author.ID, Summary: "Spice.", ISBN: "9780441013593", Genres: []*Genre{genre}}
	require.NoError(t, m.Books.Insert(ctx, book))

	got, err := m.Books.Get(ctx, book.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, born, *got.Author.DateOfBirth)
	assert.Equal(t, "Science Fiction", got.DisplayGenre())

	require.NoError(t, m.Authors.Delete(ctx, author.ID))

	got, err = m.Books.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AuthorID)
	assert.Nil(t, got.Author)

	_, err = m.Authors.Get(ctx, author.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestPostgres_InstancesAndLoans(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := NewModels(db)

	book := &Book{Title: "Harry Potter and the Chamber of Secrets", Summary: "s", ISBN: "9780747538493"}
	require.NoError(t, m.Books.Insert(ctx, book))

	alice, err := m.Users.Insert(ctx, "alice", "alice@example.com", "pa55word", false)
	require.NoError(t, err)

	late, early := Date(2024, time.January, 20), Date(2024, time.January, 3)
	a := &BookInstance{BookID: &book.ID, Imprint: "Bloomsbury", BorrowerID: &alice, Status: StatusOnLoan, DueBack: &late}
	b := &BookInstance{BookID: &book.ID, Imprint: "Scholastic", BorrowerID: &alice, Status: StatusOnLoan, DueBack: &early}
	c := &BookInstance{BookID: &book.ID, Imprint: "Raincoast"}
	for _, bi := range []*BookInstance{a, b, c} {
		require.NoError(t, m.Instances.Insert(ctx, bi))
	}
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, StatusMaintenance, c.Status)

	mine, meta, err := m.Instances.LoanedTo(ctx, alice, Filters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, b.ID, mine[0].ID)
	assert.Equal(t, "alice", mine[0].Borrower.Username)
	assert.Equal(t, 2, meta.TotalRecords)

	n, err := m.Instances.Count(ctx, InstanceQuery{TitleContains: "Harry Potter"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	renewed := Date(2024, time.January, 10)
	require.NoError(t, m.Instances.Renew(ctx, a.ID, renewed))
	got, err := m.Instances.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, renewed, *got.DueBack)

	assert.ErrorIs(t, m.Instances.Renew(ctx, uuid.New(), renewed), ErrRecordNotFound)
}

func TestPostgres_LanguageUnique(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	m := NewModels(db)

	require.NoError(t, m.Languages.Insert(ctx, &Language{Name: "French"}))
	assert.ErrorIs(t, m.Languages.Insert(ctx, &Language{Name: "French"}), ErrDuplicateLanguage)
}

func TestPostgres_SessionStore(t *testing.T) {
	db := newTestDB(t)
	store := NewSessionStore(db)

	require.NoError(t, store.Commit("tok", []byte("payload"), time.Now().Add(time.Hour)))
	b, found, err := store.Find("tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), b)

	require.NoError(t, store.Commit("old", []byte("x"), time.Now().Add(-time.Hour)))
	_, found, err = store.Find("old")
	require.NoError(t, err)
	assert.False(t, found)

	n, err := store.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.Delete("tok"))
	_, found, err = store.Find("tok")
	require.NoError(t, err)
	assert.False(t, found)
}
