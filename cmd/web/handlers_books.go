// cmd/web/handlers_books.go
// This file contains the handlers for books: list, detail and the staff
// create/update/delete forms.
package main

import (
	"fmt"
	"net/http"

	"github.com/aoideee/locallibrary/internal/data"
)

// listBooksHandler handles GET /books/?page=N.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := app.readPage(r.URL.Query())
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	books, metadata, err := app.models.Books.GetAll(r.Context(), data.Filters{Page: page, PageSize: booksPerPage})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if pageOutOfRange(page, len(books)) {
		app.notFoundResponse(w, r)
		return
	}

	td := app.newTemplateData(r)
	td.Books = books
	td.Metadata = metadata
	app.render(w, r, http.StatusOK, "book_list.tmpl", td)
}

// showBookHandler handles GET /book/:id/ with the book's copies.
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	book, err := app.models.Books.Get(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	instances, err := app.models.Instances.ForBook(r.Context(), id)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	td := app.newTemplateData(r)
	td.Book = book
	td.Instances = instances
	app.render(w, r, http.StatusOK, "book_detail.tmpl", td)
}

// renderBookForm renders the create or update form with its select options.
func (app *applicationDependencies) renderBookForm(w http.ResponseWriter, r *http.Request, status int, book *data.Book, form *bookForm) {
	ctx := r.Context()

	authors, err := app.models.Authors.Choices(ctx)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	genres, err := app.models.Genres.GetAll(ctx)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	languages, err := app.models.Languages.GetAll(ctx)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	td := app.newTemplateData(r)
	td.Book = book
	td.Authors = authors
	td.Genres = genres
	td.Languages = languages
	td.Form = form
	app.render(w, r, status, "book_form.tmpl", td)
}

// createBookFormHandler handles GET /book/create/.
func (app *applicationDependencies) createBookFormHandler(w http.ResponseWriter, r *http.Request) {
	app.renderBookForm(w, r, http.StatusOK, nil, &bookForm{})
}

// createBookHandler handles POST /book/create/.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	form, err := app.readBookForm(r)
	if err != nil {
		app.formErrorResponse(w, r, err)
		return
	}
	if !form.Valid() {
		app.renderBookForm(w, r, http.StatusUnprocessableEntity, nil, form)
		return
	}

	book := form.book(0)
	if err := app.models.Books.Insert(r.Context(), book); err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, fmt.Sprintf("/book/%d/", book.ID))
}

// updateBookFormHandler handles GET /book/:id/update/.
func (app *applicationDependencies) updateBookFormHandler(w http.ResponseWriter, r *http.Request) {
	book, ok := app.bookFromPath(w, r)
	if !ok {
		return
	}
	app.renderBookForm(w, r, http.StatusOK, book, bookFormFrom(book))
}

// updateBookHandler handles POST /book/:id/update/.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	book, ok := app.bookFromPath(w, r)
	if !ok {
		return
	}

	form, err := app.readBookForm(r)
	if err != nil {
		app.formErrorResponse(w, r, err)
		return
	}
	if !form.Valid() {
		app.renderBookForm(w, r, http.StatusUnprocessableEntity, book, form)
		return
	}

	if err := app.models.Books.Update(r.Context(), form.book(book.ID)); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, fmt.Sprintf("/book/%d/", book.ID))
}

// deleteBookFormHandler handles GET /book/:id/delete/, the confirmation page.
func (app *applicationDependencies) deleteBookFormHandler(w http.ResponseWriter, r *http.Request) {
	book, ok := app.bookFromPath(w, r)
	if !ok {
		return
	}

	td := app.newTemplateData(r)
	td.Book = book
	app.render(w, r, http.StatusOK, "book_confirm_delete.tmpl", td)
}

// deleteBookHandler handles POST /book/:id/delete/. Copies of the book are
// kept with their book reference cleared.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	if err := app.models.Books.Delete(r.Context(), id); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "Book deleted.")
	app.redirect(w, r, "/books/")
}

// bookFromPath loads the book named by the :id parameter, answering 404
// itself when there is none.
func (app *applicationDependencies) bookFromPath(w http.ResponseWriter, r *http.Request) (*data.Book, bool) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, false
	}

	book, err := app.models.Books.Get(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return nil, false
	}
	return book, true
}
