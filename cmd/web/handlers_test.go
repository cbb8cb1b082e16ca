package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoideee/locallibrary/internal/data"
)

func TestHealthz(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, _, body := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)
}

func TestHome(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	hp := seedBook(t, db, "Harry Potter and the Philosopher's Stone")
	other := seedBook(t, db, "Dune")
	seedLoan(t, db, hp, data.StatusAvailable, nil, nil)
	seedLoan(t, db, hp, data.StatusMaintenance, nil, nil)
	seedLoan(t, db, other, data.StatusAvailable, nil, nil)

	code, _, body := ts.get(t, "/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<strong>Books:</strong> 2")
	assert.Contains(t, body, "<strong>Copies:</strong> 3")
	assert.Contains(t, body, "<strong>Copies available:</strong> 2")
	assert.Contains(t, body, "<strong>Harry Potter copies:</strong> 2")
	assert.Contains(t, body, "You have visited this page 0 times.")

	_, _, body = ts.get(t, "/")
	assert.Contains(t, body, "You have visited this page 1 time.")

	_, _, body = ts.get(t, "/")
	assert.Contains(t, body, "You have visited this page 2 times.")
}

func TestHome_VisitsArePerSession(t *testing.T) {
	app, _ := newTestApplication(t)
	handler := app.routes()

	first := newTestServer(t, handler)
	first.get(t, "/")
	first.get(t, "/")

	second := newTestServer(t, handler)
	_, _, body := second.get(t, "/")
	assert.Contains(t, body, "You have visited this page 0 times.")
}

func TestShowBook(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	book := seedBook(t, db, "Dune")
	seedLoan(t, db, book, data.StatusAvailable, nil, nil)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"existing", fmt.Sprintf("/book/%d/", book.ID), http.StatusOK, "Title: Dune"},
		{"missing", "/book/999/", http.StatusNotFound, "The requested page could not be found."},
		{"negative", "/book/-1/", http.StatusNotFound, ""},
		{"not a number", "/book/dune/", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, body := ts.get(t, tt.path)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, body, tt.wantBody)
		})
	}
}

func TestShowBook_ListsCopies(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	book := seedBook(t, db, "Dune")
	due := datePtr(data.Date(2024, 1, 20))
	bi := seedLoan(t, db, book, data.StatusOnLoan, nil, due)

	_, _, body := ts.get(t, fmt.Sprintf("/book/%d/", book.ID))
	assert.Contains(t, body, bi.ID.String())
	assert.Contains(t, body, "On loan")
	assert.Contains(t, body, "Jan 20, 2024")
	assert.Contains(t, body, "Rowling, Joanne")
	assert.NotContains(t, body, "Update book")
}

func TestListBooks_Pagination(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	for i := 1; i <= 6; i++ {
		seedBook(t, db, fmt.Sprintf("Book %d", i))
	}

	code, _, body := ts.get(t, "/books/")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Book 1")
	assert.Contains(t, body, "Book 5")
	assert.NotContains(t, body, "Book 6")
	assert.Contains(t, body, "Page 1 of 2.")

	code, _, body = ts.get(t, "/books/?page=2")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Book 6")
	assert.NotContains(t, body, "Book 1")

	for _, page := range []string{"3", "0", "-1", "x"} {
		code, _, _ := ts.get(t, "/books/?page="+page)
		assert.Equal(t, http.StatusNotFound, code, "page=%s", page)
	}
}

func TestListBooks_Empty(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, _, body := ts.get(t, "/books/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "There are no books in the library.")
}

func TestListAuthors_Ordering(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	ctx := context.Background()
	for _, a := range []*data.Author{
		{FirstName: "Isaac", LastName: "Asimov"},
		{FirstName: "Frank", LastName: "Herbert"},
		{FirstName: "Brian", LastName: "Herbert"},
	} {
		require.NoError(t, db.Models().Authors.Insert(ctx, a))
	}

	code, _, body := ts.get(t, "/authors/")
	require.Equal(t, http.StatusOK, code)

	asimov := strings.Index(body, "Asimov, Isaac")
	brian := strings.Index(body, "Herbert, Brian")
	frank := strings.Index(body, "Herbert, Frank")
	assert.True(t, asimov < brian && brian < frank, "authors out of order")
}

func TestShowAuthor(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	book := seedBook(t, db, "Dune")

	code, _, body := ts.get(t, fmt.Sprintf("/author/%d/", *book.AuthorID))
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Author: Rowling, Joanne")
	assert.Contains(t, body, "Dune")

	code, _, _ = ts.get(t, "/author/999/")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStaticFiles(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, header, _ := ts.get(t, "/static/css/main.css")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, header.Get("Content-Type"), "text/css")
}

func TestCommonHeaders(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, header, _ := ts.get(t, "/")
	assert.Equal(t, "default-src 'self'", header.Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", header.Get("X-Content-Type-Options"))
	assert.Equal(t, "deny", header.Get("X-Frame-Options"))
}

func TestMethodNotAllowed(t *testing.T) {
	app, _ := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	code, _, _ := ts.postForm(t, "/books/", url.Values{})
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	for _, path := range []string{"/book/7/", "/author/3/"} {
		code, header, _ := ts.postForm(t, path, url.Values{})
		assert.Equal(t, http.StatusMethodNotAllowed, code, path)
		assert.Equal(t, http.MethodGet, header.Get("Allow"), path)
	}

	// A copy has no page of its own.
	code, _, _ = ts.postForm(t, "/book/7/instance/"+uuid.NewString()+"/", url.Values{})
	assert.Equal(t, http.StatusNotFound, code)
}
