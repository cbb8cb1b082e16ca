// cmd/web/handlers_authors.go
// This file contains the handlers for authors: list, detail and the staff
// create/update/delete forms.
package main

import (
	"fmt"
	"net/http"

	"github.com/aoideee/locallibrary/internal/data"
)

// listAuthorsHandler handles GET /authors/?page=N.
func (app *applicationDependencies) listAuthorsHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := app.readPage(r.URL.Query())
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	authors, metadata, err := app.models.Authors.GetAll(r.Context(), data.Filters{Page: page, PageSize: authorsPerPage})
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}
	if pageOutOfRange(page, len(authors)) {
		app.notFoundResponse(w, r)
		return
	}

	td := app.newTemplateData(r)
	td.Authors = authors
	td.Metadata = metadata
	app.render(w, r, http.StatusOK, "author_list.tmpl", td)
}

// showAuthorHandler handles GET /author/:id/ with the author's books.
func (app *applicationDependencies) showAuthorHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := app.authorFromPath(w, r)
	if !ok {
		return
	}

	books, err := app.models.Books.ByAuthor(r.Context(), author.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	td := app.newTemplateData(r)
	td.Author = author
	td.Books = books
	app.render(w, r, http.StatusOK, "author_detail.tmpl", td)
}

func (app *applicationDependencies) renderAuthorForm(w http.ResponseWriter, r *http.Request, status int, author *data.Author, form *authorForm) {
	td := app.newTemplateData(r)
	td.Author = author
	td.Form = form
	app.render(w, r, status, "author_form.tmpl", td)
}

// createAuthorFormHandler handles GET /author/create/. The date of birth is
// pre-filled with today's date.
func (app *applicationDependencies) createAuthorFormHandler(w http.ResponseWriter, r *http.Request) {
	form := &authorForm{AuthorInput: data.AuthorInput{DateOfBirth: isoDate(app.today())}}
	app.renderAuthorForm(w, r, http.StatusOK, nil, form)
}

// createAuthorHandler handles POST /author/create/.
func (app *applicationDependencies) createAuthorHandler(w http.ResponseWriter, r *http.Request) {
	form, err := readAuthorForm(r)
	if err != nil {
		app.formErrorResponse(w, r, err)
		return
	}
	if !form.Valid() {
		app.renderAuthorForm(w, r, http.StatusUnprocessableEntity, nil, form)
		return
	}

	author := form.author(0)
	if err := app.models.Authors.Insert(r.Context(), author); err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, fmt.Sprintf("/author/%d/", author.ID))
}

// updateAuthorFormHandler handles GET /author/:id/update/.
func (app *applicationDependencies) updateAuthorFormHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := app.authorFromPath(w, r)
	if !ok {
		return
	}
	app.renderAuthorForm(w, r, http.StatusOK, author, authorFormFrom(author))
}

// updateAuthorHandler handles POST /author/:id/update/.
func (app *applicationDependencies) updateAuthorHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := app.authorFromPath(w, r)
	if !ok {
		return
	}

	form, err := readAuthorForm(r)
	if err != nil {
		app.formErrorResponse(w, r, err)
		return
	}
	if !form.Valid() {
		app.renderAuthorForm(w, r, http.StatusUnprocessableEntity, author, form)
		return
	}

	if err := app.models.Authors.Update(r.Context(), form.author(author.ID)); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.redirect(w, r, fmt.Sprintf("/author/%d/", author.ID))
}

// deleteAuthorFormHandler handles GET /author/:id/delete/.
func (app *applicationDependencies) deleteAuthorFormHandler(w http.ResponseWriter, r *http.Request) {
	author, ok := app.authorFromPath(w, r)
	if !ok {
		return
	}

	td := app.newTemplateData(r)
	td.Author = author
	app.render(w, r, http.StatusOK, "author_confirm_delete.tmpl", td)
}

// deleteAuthorHandler handles POST /author/:id/delete/. The author's books
// are kept with their author cleared.
func (app *applicationDependencies) deleteAuthorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	if err := app.models.Authors.Delete(r.Context(), id); err != nil {
		app.storeErrorResponse(w, r, err)
		return
	}

	app.sessionManager.Put(r.Context(), "flash", "Author deleted.")
	app.redirect(w, r, "/authors/")
}

func (app *applicationDependencies) authorFromPath(w http.ResponseWriter, r *http.Request) (*data.Author, bool) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.notFoundResponse(w, r)
		return nil, false
	}

	author, err := app.models.Authors.Get(r.Context(), id)
	if err != nil {
		app.storeErrorResponse(w, r, err)
		return nil, false
	}
	return author, true
}
