package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/locallibrary/internal/config"
	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/data/mocks"
)

// testToday is the date every handler test runs on.
var testToday = data.Date(2024, time.January, 5)

func newTestApplication(t *testing.T) (*applicationDependencies, *mocks.DB) {
	t.Helper()

	templateCache, err := newTemplateCache()
	require.NoError(t, err)

	sessionManager := scs.New()
	sessionManager.Lifetime = 12 * time.Hour
	sessionManager.Cookie.Secure = true

	db := mocks.New()
	app := &applicationDependencies{
		config:         &config.Config{Environment: "testing"},
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		models:         db.Models(),
		sessionManager: sessionManager,
		templateCache:  templateCache,
		clock:          func() time.Time { return testToday.Add(10 * time.Hour) },
	}
	return app, db
}

type testServer struct {
	*httptest.Server
}

// newTestServer starts a TLS server whose client keeps cookies and does not
// follow redirects.
func newTestServer(t *testing.T, h http.Handler) *testServer {
	t.Helper()

	ts := httptest.NewTLSServer(h)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	ts.Client().Jar = jar
	ts.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &testServer{ts}
}

func (ts *testServer) get(t *testing.T, path string) (int, http.Header, string) {
	t.Helper()

	rs, err := ts.Client().Get(ts.URL + path)
	require.NoError(t, err)
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	require.NoError(t, err)
	return rs.StatusCode, rs.Header, string(bytes.TrimSpace(body))
}

func (ts *testServer) postForm(t *testing.T, path string, form url.Values) (int, http.Header, string) {
	t.Helper()

	rs, err := ts.Client().PostForm(ts.URL+path, form)
	require.NoError(t, err)
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	require.NoError(t, err)
	return rs.StatusCode, rs.Header, string(bytes.TrimSpace(body))
}

// login creates an account and signs the test client in as it.
func (ts *testServer) login(t *testing.T, db *mocks.DB, username string, staff bool, perms ...string) int64 {
	t.Helper()

	users := db.Models().Users
	id, err := users.Insert(context.Background(), username, username+"@example.com", "pa55word", staff)
	require.NoError(t, err)
	for _, p := range perms {
		require.NoError(t, users.Grant(context.Background(), id, p))
	}

	code, header, _ := ts.postForm(t, "/accounts/login/", url.Values{
		"username": {username},
		"password": {"pa55word"},
	})
	require.Equal(t, http.StatusSeeOther, code)
	require.Equal(t, "/", header.Get("Location"))
	return id
}

// seedBook stores a book with a fresh author, genre and language.
func seedBook(t *testing.T, db *mocks.DB, title string) *data.Book {
	t.Helper()

	ctx := context.Background()
	m := db.Models()

	author := &data.Author{FirstName: "Joanne", LastName: "Rowling"}
	require.NoError(t, m.Authors.Insert(ctx, author))
	genre := &data.Genre{Name: "Fantasy"}
	require.NoError(t, m.Genres.Insert(ctx, genre))
	language := &data.Language{Name: "English " + title}
	require.NoError(t, m.Languages.Insert(ctx, language))

	book := &data.Book{
		Title:      title,
		AuthorID:   &author.ID,
		Summary:    "A summary.",
		ISBN:       "9780747532699",
		Genres:     []*data.Genre{genre},
		LanguageID: &language.ID,
	}
	require.NoError(t, m.Books.Insert(ctx, book))
	return book
}

// seedLoan stores a copy of book with the given status, borrower and due date.
func seedLoan(t *testing.T, db *mocks.DB, book *data.Book, status data.LoanStatus, borrower *int64, due *time.Time) *data.BookInstance {
	t.Helper()

	bi := &data.BookInstance{BookID: &book.ID, Imprint: "Bloomsbury", Status: status, BorrowerID: borrower, DueBack: due}
	require.NoError(t, db.Models().Instances.Insert(context.Background(), bi))
	return bi
}

func datePtr(t time.Time) *time.Time { return &t }
